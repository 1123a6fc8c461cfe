package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/storage"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDocumentSize bounds uploaded plan documents.
const MaxDocumentSize = 10 << 20

var allowedDocumentTypes = map[string]bool{".pdf": true, ".txt": true, ".doc": true, ".docx": true}

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("training plan not found")
	ErrPlanItemNotFound = errors.New("plan item not found")
	ErrNotAssigned      = errors.New("you can only create plans for athletes assigned to you")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentTooLarge = errors.New("file exceeds the 10 MB limit")
	ErrDocumentType     = errors.New("only .pdf, .txt, .doc and .docx files are allowed")
)

// DocumentUpload is an incoming file for a plan. Body is read once.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Description string
}

// PlanChildService manages one kind of record nested under a training plan.
type PlanChildService[T any] interface {
	List(ctx context.Context, actor Actor, planID primitive.ObjectID) ([]T, error)
	Add(ctx context.Context, actor Actor, planID primitive.ObjectID, doc *T) (*T, error)
	Update(ctx context.Context, actor Actor, planID, id primitive.ObjectID, patch Patch) (*T, error)
	Delete(ctx context.Context, actor Actor, planID, id primitive.ObjectID) error
}

type TrainingPlanService interface {
	// List returns the plans visible to the actor, optionally narrowed to one athlete.
	List(ctx context.Context, actor Actor, athleteID *primitive.ObjectID) ([]domain.TrainingPlan, error)
	Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetBundle(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.PlanBundle, error)
	Create(ctx context.Context, actor Actor, plan *domain.TrainingPlan) (*domain.TrainingPlan, error)
	// CreateBundle stores a plan with all its children. If any write fails the
	// plan and whatever was created for it are removed before returning.
	CreateBundle(ctx context.Context, actor Actor, bundle *domain.PlanBundle) (*domain.PlanBundle, error)
	Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch Patch) (*domain.TrainingPlan, error)
	Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error

	Workouts() PlanChildService[domain.PlannedWorkout]
	Goals() PlanChildService[domain.PlannedGoal]
	Nutrition() PlanChildService[domain.NutritionPlan]

	UploadDocument(ctx context.Context, actor Actor, planID primitive.ObjectID, up DocumentUpload) (*domain.TrainingDocument, error)
	ListDocuments(ctx context.Context, actor Actor, planID primitive.ObjectID) ([]domain.TrainingDocument, error)
	// OpenDocument streams a stored file. Callers must close the returned object's Body.
	OpenDocument(ctx context.Context, actor Actor, planID, docID primitive.ObjectID) (*domain.TrainingDocument, *storage.Object, error)
	DeleteDocument(ctx context.Context, actor Actor, planID, docID primitive.ObjectID) error
}

// planAccess resolves a plan and decides what the actor may do with it.
type planAccess struct {
	planRepo repository.TrainingPlanRepository
}

// readable: admins, the authoring trainer and the addressed athlete.
func (a planAccess) readable(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := a.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if actor.IsAdmin() || plan.TrainerID == actor.ID || plan.AthleteID == actor.ID {
		return plan, nil
	}
	return nil, ErrForbidden
}

// writable: admins and the authoring trainer.
func (a planAccess) writable(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := a.readable(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if !canWritePlan(actor, plan) {
		return nil, ErrForbidden
	}
	return plan, nil
}

func canWritePlan(actor Actor, plan *domain.TrainingPlan) bool {
	return actor.IsAdmin() || plan.TrainerID == actor.ID
}

type planItemPtr[T any] interface {
	*T
	domain.Record
}

// planChildren implements PlanChildService for one child collection.
type planChildren[T any, PT planItemPtr[T]] struct {
	access planAccess
	repo   repository.OwnedRepository[T]
	now    func() time.Time

	// athleteFields are the JSON fields the plan's athlete may change.
	athleteFields []string

	// reconcile runs after a patch, before validation.
	reconcile func(before, after *T, now time.Time)
}

func (c *planChildren[T, PT]) List(ctx context.Context, actor Actor, planID primitive.ObjectID) ([]T, error) {
	if _, err := c.access.readable(ctx, actor, planID); err != nil {
		return nil, err
	}
	return c.repo.ListByOwnerBetween(ctx, planID, time.Time{}, farFuture)
}

func (c *planChildren[T, PT]) Add(ctx context.Context, actor Actor, planID primitive.ObjectID, doc *T) (*T, error) {
	if _, err := c.access.writable(ctx, actor, planID); err != nil {
		return nil, err
	}
	PT(doc).SetOwner(planID)
	if err := PT(doc).Validate(); err != nil {
		return nil, InputError(err.Error())
	}
	if _, err := c.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *planChildren[T, PT]) Update(ctx context.Context, actor Actor, planID, id primitive.ObjectID, patch Patch) (*T, error) {
	plan, err := c.access.readable(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if !canWritePlan(actor, plan) && !patch.onlyTouches(c.athleteFields...) {
		return nil, ErrForbidden
	}
	item, err := c.get(ctx, planID, id)
	if err != nil {
		return nil, err
	}

	before := *item
	if err := applyPatch(item, patch); err != nil {
		return nil, err
	}
	PT(item).SetOwner(planID)
	if c.reconcile != nil {
		c.reconcile(&before, item, c.now().UTC())
	}
	if err := PT(item).Validate(); err != nil {
		return nil, InputError(err.Error())
	}
	if err := c.repo.Replace(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *planChildren[T, PT]) Delete(ctx context.Context, actor Actor, planID, id primitive.ObjectID) error {
	if _, err := c.access.writable(ctx, actor, planID); err != nil {
		return err
	}
	if _, err := c.get(ctx, planID, id); err != nil {
		return err
	}
	return c.repo.Delete(ctx, id)
}

func (c *planChildren[T, PT]) get(ctx context.Context, planID, id primitive.ObjectID) (*T, error) {
	item, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanItemNotFound
		}
		return nil, err
	}
	if PT(item).Owner() != planID {
		return nil, ErrPlanItemNotFound
	}
	return item, nil
}

var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

type trainingPlanService struct {
	access         planAccess
	planRepo       repository.TrainingPlanRepository
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	workoutRepo    repository.PlannedWorkoutRepository
	goalRepo       repository.PlannedGoalRepository
	nutritionRepo  repository.NutritionPlanRepository
	documentRepo   repository.DocumentRepository
	fileStorage    storage.FileStorage

	workouts  *planChildren[domain.PlannedWorkout, *domain.PlannedWorkout]
	goals     *planChildren[domain.PlannedGoal, *domain.PlannedGoal]
	nutrition *planChildren[domain.NutritionPlan, *domain.NutritionPlan]
}

func NewTrainingPlanService(
	planRepo repository.TrainingPlanRepository,
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	workoutRepo repository.PlannedWorkoutRepository,
	goalRepo repository.PlannedGoalRepository,
	nutritionRepo repository.NutritionPlanRepository,
	documentRepo repository.DocumentRepository,
	fileStorage storage.FileStorage,
) TrainingPlanService {
	access := planAccess{planRepo: planRepo}
	workouts := &planChildren[domain.PlannedWorkout, *domain.PlannedWorkout]{
		access:        access,
		repo:          workoutRepo,
		now:           time.Now,
		athleteFields: []string{"isCompleted"},
		reconcile:     reconcileCompletion,
	}
	goals := &planChildren[domain.PlannedGoal, *domain.PlannedGoal]{
		access:        access,
		repo:          goalRepo,
		now:           time.Now,
		athleteFields: []string{"currentValue", "isAchieved"},
	}
	nutrition := &planChildren[domain.NutritionPlan, *domain.NutritionPlan]{
		access: access,
		repo:   nutritionRepo,
		now:    time.Now,
	}
	return &trainingPlanService{
		access:         access,
		planRepo:       planRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		workoutRepo:    workoutRepo,
		goalRepo:       goalRepo,
		nutritionRepo:  nutritionRepo,
		documentRepo:   documentRepo,
		fileStorage:    fileStorage,
		workouts:       workouts,
		goals:          goals,
		nutrition:      nutrition,
	}
}

// reconcileCompletion keeps completedAt server-controlled.
func reconcileCompletion(before, after *domain.PlannedWorkout, now time.Time) {
	after.CompletedAt = before.CompletedAt
	if after.IsCompleted != before.IsCompleted {
		after.SetCompleted(after.IsCompleted, now)
	}
}

func (s *trainingPlanService) Workouts() PlanChildService[domain.PlannedWorkout] { return s.workouts }
func (s *trainingPlanService) Goals() PlanChildService[domain.PlannedGoal] { return s.goals }
func (s *trainingPlanService) Nutrition() PlanChildService[domain.NutritionPlan] { return s.nutrition }

func (s *trainingPlanService) List(ctx context.Context, actor Actor, athleteID *primitive.ObjectID) ([]domain.TrainingPlan, error) {
	filter := repository.PlanFilter{AthleteID: athleteID}
	switch {
	case actor.IsAdmin():
	case actor.Role == domain.RoleTrainer:
		filter.TrainerID = &actor.ID
	default:
		filter.AthleteID = &actor.ID
	}
	return s.planRepo.List(ctx, filter)
}

func (s *trainingPlanService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	return s.access.readable(ctx, actor, id)
}

func (s *trainingPlanService) GetBundle(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.PlanBundle, error) {
	plan, err := s.access.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	bundle := &domain.PlanBundle{Plan: *plan}
	if bundle.Workouts, err = s.workoutRepo.ListByOwnerBetween(ctx, id, time.Time{}, farFuture); err != nil {
		return nil, err
	}
	if bundle.Goals, err = s.goalRepo.ListByOwnerBetween(ctx, id, time.Time{}, farFuture); err != nil {
		return nil, err
	}
	if bundle.Nutrition, err = s.nutritionRepo.ListByOwnerBetween(ctx, id, time.Time{}, farFuture); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *trainingPlanService) Create(ctx context.Context, actor Actor, plan *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	if err := s.checkNewPlan(ctx, actor, plan); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// checkNewPlan validates a plan and binds it to the actor as its trainer.
func (s *trainingPlanService) checkNewPlan(ctx context.Context, actor Actor, plan *domain.TrainingPlan) error {
	if !actor.CanCoach() {
		return ErrForbidden
	}
	plan.Title = strings.TrimSpace(plan.Title)
	if err := validatePlan(plan); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, plan.AthleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !actor.IsAdmin() {
		ok, err := isAssigned(ctx, s.assignmentRepo, actor.ID, plan.AthleteID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAssigned
		}
	}
	plan.TrainerID = actor.ID
	plan.IsActive = true
	return nil
}

func validatePlan(plan *domain.TrainingPlan) error {
	if plan.Title == "" {
		return invalid("plan title is required")
	}
	if plan.AthleteID.IsZero() {
		return invalid("athleteId is required")
	}
	if plan.StartDate != nil && plan.EndDate != nil && plan.EndDate.Before(*plan.StartDate) {
		return invalid("end date must not be before start date")
	}
	return nil
}

func (s *trainingPlanService) CreateBundle(ctx context.Context, actor Actor, bundle *domain.PlanBundle) (*domain.PlanBundle, error) {
	plan := &bundle.Plan
	if err := s.checkNewPlan(ctx, actor, plan); err != nil {
		return nil, err
	}
	// Validate everything before the first write so bad input never needs compensation.
	for i := range bundle.Workouts {
		if err := bundle.Workouts[i].Validate(); err != nil {
			return nil, invalid("workout %d: %v", i+1, err)
		}
	}
	for i := range bundle.Goals {
		if err := bundle.Goals[i].Validate(); err != nil {
			return nil, invalid("goal %d: %v", i+1, err)
		}
	}
	for i := range bundle.Nutrition {
		if err := bundle.Nutrition[i].Validate(); err != nil {
			return nil, invalid("nutrition entry %d: %v", i+1, err)
		}
	}

	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.createChildren(ctx, bundle); err != nil {
		s.compensate(plan.ID)
		return nil, fmt.Errorf("creating plan %q: %w", plan.Title, err)
	}
	return bundle, nil
}

func (s *trainingPlanService) createChildren(ctx context.Context, bundle *domain.PlanBundle) error {
	planID := bundle.Plan.ID
	for i := range bundle.Workouts {
		bundle.Workouts[i].SetOwner(planID)
		if _, err := s.workoutRepo.Create(ctx, &bundle.Workouts[i]); err != nil {
			return err
		}
	}
	for i := range bundle.Goals {
		bundle.Goals[i].SetOwner(planID)
		if _, err := s.goalRepo.Create(ctx, &bundle.Goals[i]); err != nil {
			return err
		}
	}
	for i := range bundle.Nutrition {
		bundle.Nutrition[i].SetOwner(planID)
		if _, err := s.nutritionRepo.Create(ctx, &bundle.Nutrition[i]); err != nil {
			return err
		}
	}
	return nil
}

// compensate removes a partially created plan. It runs on a fresh context so a
// cancelled request still cleans up.
func (s *trainingPlanService) compensate(planID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.deleteChildren(ctx, planID); err != nil {
		log.Printf("ERROR: Compensating delete of plan %s children failed: %v", planID.Hex(), err)
	}
	if err := s.planRepo.Delete(ctx, planID); err != nil {
		log.Printf("ERROR: Compensating delete of plan %s failed: %v", planID.Hex(), err)
	}
}

func (s *trainingPlanService) deleteChildren(ctx context.Context, planID primitive.ObjectID) error {
	if _, err := s.workoutRepo.DeleteByOwner(ctx, planID); err != nil {
		return err
	}
	if _, err := s.goalRepo.DeleteByOwner(ctx, planID); err != nil {
		return err
	}
	_, err := s.nutritionRepo.DeleteByOwner(ctx, planID)
	return err
}

func (s *trainingPlanService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch Patch) (*domain.TrainingPlan, error) {
	plan, err := s.access.writable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	orig := *plan
	if err := applyPatch(plan, patch); err != nil {
		return nil, err
	}
	// ownership never changes through an update
	plan.ID, plan.TrainerID, plan.AthleteID, plan.CreatedAt = orig.ID, orig.TrainerID, orig.AthleteID, orig.CreatedAt
	plan.Title = strings.TrimSpace(plan.Title)
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes the plan with its children and stored documents.
func (s *trainingPlanService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.access.writable(ctx, actor, id); err != nil {
		return err
	}
	docs, err := s.documentRepo.ListByPlan(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.fileStorage.DeleteObject(ctx, d.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("WARN: Failed to delete object %s for plan %s: %v", d.ObjectKey, id.Hex(), err)
		}
		if err := s.documentRepo.Delete(ctx, d.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if err := s.deleteChildren(ctx, id); err != nil {
		return err
	}
	return s.planRepo.Delete(ctx, id)
}

func (s *trainingPlanService) UploadDocument(ctx context.Context, actor Actor, planID primitive.ObjectID, up DocumentUpload) (*domain.TrainingDocument, error) {
	if _, err := s.access.writable(ctx, actor, planID); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedDocumentTypes[ext] {
		return nil, ErrDocumentType
	}
	if up.Size > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("training-plans/%s/%s%s", planID.Hex(), uuid.NewString(), ext)
	if err := s.fileStorage.PutObject(ctx, key, contentType, up.Body, up.Size); err != nil {
		log.Printf("ERROR: Failed to store document for plan %s: %v", planID.Hex(), err)
		return nil, err
	}

	doc := &domain.TrainingDocument{
		PlanID:      planID,
		UploadedBy:  actor.ID,
		Filename:    filepath.Base(up.Filename),
		ObjectKey:   key,
		FileType:    strings.TrimPrefix(ext, "."),
		ContentType: contentType,
		Size:        up.Size,
		Description: strings.TrimSpace(up.Description),
		UploadedAt:  time.Now().UTC(),
	}
	if _, err := s.documentRepo.Create(ctx, doc); err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			log.Printf("WARN: Orphaned object %s: %v", key, delErr)
		}
		return nil, err
	}
	return doc, nil
}

func (s *trainingPlanService) ListDocuments(ctx context.Context, actor Actor, planID primitive.ObjectID) ([]domain.TrainingDocument, error) {
	if _, err := s.access.readable(ctx, actor, planID); err != nil {
		return nil, err
	}
	return s.documentRepo.ListByPlan(ctx, planID)
}

func (s *trainingPlanService) OpenDocument(ctx context.Context, actor Actor, planID, docID primitive.ObjectID) (*domain.TrainingDocument, *storage.Object, error) {
	if _, err := s.access.readable(ctx, actor, planID); err != nil {
		return nil, nil, err
	}
	doc, err := s.document(ctx, planID, docID)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.fileStorage.GetObject(ctx, doc.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return doc, obj, nil
}

func (s *trainingPlanService) DeleteDocument(ctx context.Context, actor Actor, planID, docID primitive.ObjectID) error {
	if _, err := s.access.writable(ctx, actor, planID); err != nil {
		return err
	}
	doc, err := s.document(ctx, planID, docID)
	if err != nil {
		return err
	}
	if err := s.fileStorage.DeleteObject(ctx, doc.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	return s.documentRepo.Delete(ctx, docID)
}

func (s *trainingPlanService) document(ctx context.Context, planID, docID primitive.ObjectID) (*domain.TrainingDocument, error) {
	doc, err := s.documentRepo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.PlanID != planID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}
