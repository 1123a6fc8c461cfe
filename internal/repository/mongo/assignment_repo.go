package mongo

import (
	"context"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoRequestRepository stores trainer requests in the trainer_requests collection.
func NewMongoRequestRepository(db *mongo.Database) repository.TrainerRequestRepository {
	return &mongoRequestRepository{collection: db.Collection(RequestsCollection)}
}

func (r *mongoRequestRepository) Create(ctx context.Context, req *domain.TrainerRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	return insertedID(r.collection.InsertOne(ctx, req))
}

func (r *mongoRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerRequest, error) {
	return findOne[domain.TrainerRequest](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoRequestRepository) FindPending(ctx context.Context, athleteID, trainerID primitive.ObjectID) (*domain.TrainerRequest, error) {
	filter := bson.M{"athleteId": athleteID, "trainerId": trainerID, "status": domain.RequestPending}
	return findOne[domain.TrainerRequest](ctx, r.collection, filter)
}

func (r *mongoRequestRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.TrainerRequest](ctx, r.collection, bson.M{"trainerId": trainerID}, opts)
}

func (r *mongoRequestRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.TrainerRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.TrainerRequest](ctx, r.collection, bson.M{"athleteId": athleteID}, opts)
}

// Resolve only matches a still-pending request, so two concurrent answers cannot both win.
func (r *mongoRequestRepository) Resolve(ctx context.Context, req *domain.TrainerRequest) error {
	filter := bson.M{"_id": req.ID, "status": domain.RequestPending}
	update := bson.M{"$set": bson.M{"status": req.Status, "respondedAt": req.RespondedAt}}
	return matched(r.collection.UpdateOne(ctx, filter, update))
}

// EnsureRequestIndexes creates indexes for the trainer_requests collection.
func EnsureRequestIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "athleteId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			// At most one pending request per pair.
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "trainerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"status": domain.RequestPending}),
		},
	})
}

type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository stores coaching relationships.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{collection: db.Collection(AssignmentsCollection)}
}

func (r *mongoAssignmentRepository) Create(ctx context.Context, a *domain.TrainerAssignment) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	return insertedID(r.collection.InsertOne(ctx, a))
}

func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerAssignment, error) {
	return findOne[domain.TrainerAssignment](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoAssignmentRepository) FindActive(ctx context.Context, trainerID, athleteID primitive.ObjectID) (*domain.TrainerAssignment, error) {
	filter := bson.M{"trainerId": trainerID, "athleteId": athleteID, "isActive": true}
	return findOne[domain.TrainerAssignment](ctx, r.collection, filter)
}

func (r *mongoAssignmentRepository) ListActiveByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerAssignment, error) {
	return r.list(ctx, bson.M{"trainerId": trainerID, "isActive": true})
}

func (r *mongoAssignmentRepository) ListActiveByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.TrainerAssignment, error) {
	return r.list(ctx, bson.M{"athleteId": athleteID, "isActive": true})
}

func (r *mongoAssignmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.TrainerAssignment, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	return r.list(ctx, filter)
}

func (r *mongoAssignmentRepository) list(ctx context.Context, filter bson.M) ([]domain.TrainerAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	return findAll[domain.TrainerAssignment](ctx, r.collection, filter, opts)
}

func (r *mongoAssignmentRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": false}}))
}

func (r *mongoAssignmentRepository) DeactivateForUser(ctx context.Context, userID primitive.ObjectID) error {
	filter := bson.M{
		"isActive": true,
		"$or":      bson.A{bson.M{"trainerId": userID}, bson.M{"athleteId": userID}},
	}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isActive": false}})
	return err
}

func (r *mongoAssignmentRepository) CountActive(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"isActive": true})
}

// EnsureAssignmentIndexes creates indexes for the trainer_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "athleteId", Value: 1}, {Key: "isActive", Value: 1}}},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "athleteId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"isActive": true}),
		},
	})
}
