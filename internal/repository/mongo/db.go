package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	UsersCollection          = "users"
	RequestsCollection       = "trainer_requests"
	AssignmentsCollection    = "trainer_assignments"
	PlansCollection          = "training_plans"
	PlannedWorkoutCollection = "planned_workouts"
	PlannedGoalCollection    = "planned_goals"
	NutritionPlanCollection  = "nutrition_plans"
	DocumentsCollection      = "training_documents"
	InvitesCollection        = "invite_tokens"
	MessagesCollection       = "messages"
	RidesCollection          = "rides"
	WorkoutsCollection       = "workouts"
	GoalsCollection          = "goals"
	NutritionLogsCollection  = "nutrition_logs"
	IntegrationsCollection   = "integrations"
	ActivitiesCollection     = "activities"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connect can succeed against an unresponsive server, so ping separately.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(UsersCollection))
	EnsureRequestIndexes(ctx, db.Collection(RequestsCollection))
	EnsureAssignmentIndexes(ctx, db.Collection(AssignmentsCollection))
	EnsureTrainingPlanIndexes(ctx, db.Collection(PlansCollection))
	EnsureOwnedIndexes(ctx, db.Collection(PlannedWorkoutCollection), "planId", "scheduledDate")
	EnsureOwnedIndexes(ctx, db.Collection(PlannedGoalCollection), "planId", "createdAt")
	EnsureOwnedIndexes(ctx, db.Collection(NutritionPlanCollection), "planId", "createdAt")
	EnsureDocumentIndexes(ctx, db.Collection(DocumentsCollection))
	EnsureInviteIndexes(ctx, db.Collection(InvitesCollection))
	EnsureMessageIndexes(ctx, db.Collection(MessagesCollection))
	EnsureOwnedIndexes(ctx, db.Collection(RidesCollection), "userId", "rideDate")
	EnsureOwnedIndexes(ctx, db.Collection(WorkoutsCollection), "userId", "workoutDate")
	EnsureOwnedIndexes(ctx, db.Collection(GoalsCollection), "userId", "createdAt")
	EnsureOwnedIndexes(ctx, db.Collection(NutritionLogsCollection), "userId", "logDate")
	EnsureIntegrationIndexes(ctx, db.Collection(IntegrationsCollection))
	EnsureActivityIndexes(ctx, db.Collection(ActivitiesCollection))
	log.Println("Index creation process completed.")
}

func logIndexFailure(collection string, err error) {
	log.Printf("WARN: Failed to create indexes for collection %s: %v", collection, err)
}
