package repository

import (
	"context"
	"etape/training-hub/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Page is an offset window. A zero Limit means "use the repository default".
type Page struct {
	Skip  int64
	Limit int64
}

// UserFilter narrows user listings. Zero values mean no constraint.
type UserFilter struct {
	Role domain.Role
	Page Page
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// SearchCoaches finds active, unlocked trainers and admins whose name or email contains query.
	SearchCoaches(ctx context.Context, query string, page Page) ([]domain.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	SetLocked(ctx context.Context, id primitive.ObjectID, locked bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CountByRole counts users with role; an empty role counts everyone.
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	// CountSignInAdmins counts active, unlocked admins other than exclude.
	CountSignInAdmins(ctx context.Context, exclude primitive.ObjectID) (int64, error)
}

// TrainerRequestRepository stores athlete-to-trainer requests.
type TrainerRequestRepository interface {
	Create(ctx context.Context, req *domain.TrainerRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerRequest, error)
	FindPending(ctx context.Context, athleteID, trainerID primitive.ObjectID) (*domain.TrainerRequest, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerRequest, error)
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.TrainerRequest, error)
	// Resolve persists req's new status only if the stored request is still pending.
	// A request resolved concurrently yields ErrNotFound.
	Resolve(ctx context.Context, req *domain.TrainerRequest) error
}

// AssignmentRepository stores trainer/athlete assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.TrainerAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerAssignment, error)
	FindActive(ctx context.Context, trainerID, athleteID primitive.ObjectID) (*domain.TrainerAssignment, error)
	ListActiveByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerAssignment, error)
	ListActiveByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.TrainerAssignment, error)
	List(ctx context.Context, activeOnly bool) ([]domain.TrainerAssignment, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	// DeactivateForUser severs every relationship the user takes part in.
	DeactivateForUser(ctx context.Context, userID primitive.ObjectID) error
	CountActive(ctx context.Context) (int64, error)
}

// PlanFilter scopes plan listings. Nil fields mean no constraint.
type PlanFilter struct {
	TrainerID *primitive.ObjectID
	AthleteID *primitive.ObjectID
}

// TrainingPlanRepository defines the interface for interacting with training plan data.
type TrainingPlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.TrainingPlan, error)
	// FindActiveForAthlete returns the most recently started active plan.
	FindActiveForAthlete(ctx context.Context, athleteID primitive.ObjectID) (*domain.TrainingPlan, error)
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// OwnedRepository stores documents that belong to a single owner (a user or a plan).
type OwnedRepository[T any] interface {
	Create(ctx context.Context, doc *T) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	// ListByOwners returns documents newest first. A nil owners slice lists everything.
	ListByOwners(ctx context.Context, owners []primitive.ObjectID, page Page) ([]T, error)
	// ListByOwnerBetween returns documents whose date falls in [from, to), oldest first.
	ListByOwnerBetween(ctx context.Context, owner primitive.ObjectID, from, to time.Time) ([]T, error)
	Replace(ctx context.Context, doc *T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type (
	RideRepository           = OwnedRepository[domain.Ride]
	WorkoutLogRepository     = OwnedRepository[domain.Workout]
	GoalRepository           = OwnedRepository[domain.Goal]
	NutritionLogRepository   = OwnedRepository[domain.NutritionLog]
	PlannedWorkoutRepository = OwnedRepository[domain.PlannedWorkout]
	PlannedGoalRepository    = OwnedRepository[domain.PlannedGoal]
	NutritionPlanRepository  = OwnedRepository[domain.NutritionPlan]
)

// DocumentRepository stores metadata for files attached to plans.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.TrainingDocument) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingDocument, error)
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingDocument, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// InviteRepository stores admin-issued invite tokens.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.InviteToken) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.InviteToken, error)
	GetByToken(ctx context.Context, token string) (*domain.InviteToken, error)
	List(ctx context.Context) ([]domain.InviteToken, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	// MarkUsed consumes the invite only if it is still unused; otherwise ErrNotFound.
	MarkUsed(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
}

// ConversationSummary is one counterparty of a user's messages.
type ConversationSummary struct {
	UserID      primitive.ObjectID `bson:"_id"`
	Last        domain.Message     `bson:"last"`
	UnreadCount int                `bson:"unread"`
}

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error)
	// Conversations returns one summary per counterparty, most recent message first.
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]ConversationSummary, error)
	// ListBetween returns the messages exchanged by a and b, newest first.
	ListBetween(ctx context.Context, a, b primitive.ObjectID, page Page) ([]domain.Message, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkReadFrom(ctx context.Context, recipientID, senderID primitive.ObjectID, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

// IntegrationRepository stores provider credentials per user.
type IntegrationRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID, provider string) (*domain.Integration, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Integration, error)
	Upsert(ctx context.Context, integration *domain.Integration) error
	SetLastSync(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, userID primitive.ObjectID, provider string) error
}

// ActivityRepository stores imported activities.
type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) (primitive.ObjectID, error)
	ExistsExternal(ctx context.Context, userID primitive.ObjectID, source, externalID string) (bool, error)
	List(ctx context.Context, userID primitive.ObjectID, filter domain.ActivityFilter) ([]domain.Activity, error)
}

// OAuthStateRepository keeps single-use OAuth state values for a short time.
type OAuthStateRepository interface {
	Save(ctx context.Context, state, userID string, ttl time.Duration) error
	// Consume returns the user bound to state and forgets it. Unknown or expired state yields ErrNotFound.
	Consume(ctx context.Context, state string) (string, error)
}
