package mongo

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTrainingPlanRepository implements repository.TrainingPlanRepository.
type mongoTrainingPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingPlanRepository creates a new instance.
func NewMongoTrainingPlanRepository(db *mongo.Database) repository.TrainingPlanRepository {
	return &mongoTrainingPlanRepository{
		collection: db.Collection(PlansCollection),
	}
}

// Create inserts a new training plan.
func (r *mongoTrainingPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.TrainerID.IsZero() || plan.AthleteID.IsZero() || plan.Title == "" {
		return primitive.NilObjectID, errors.New("trainer ID, athlete ID, and title are required for a training plan")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	return insertedID(r.collection.InsertOne(ctx, plan))
}

// GetByID retrieves a specific training plan by its ID.
func (r *mongoTrainingPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	return findOne[domain.TrainingPlan](ctx, r.collection, bson.M{"_id": id})
}

// List returns plans newest first, constrained by whichever filter fields are set.
func (r *mongoTrainingPlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error) {
	query := bson.M{}
	if filter.TrainerID != nil {
		query["trainerId"] = *filter.TrainerID
	}
	if filter.AthleteID != nil {
		query["athleteId"] = *filter.AthleteID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.TrainingPlan](ctx, r.collection, query, opts)
}

func (r *mongoTrainingPlanRepository) FindActiveForAthlete(ctx context.Context, athleteID primitive.ObjectID) (*domain.TrainingPlan, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "createdAt", Value: -1}})
	var plan domain.TrainingPlan
	err := r.collection.FindOne(ctx, bson.M{"athleteId": athleteID, "isActive": true}, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update sets the editable fields. Trainer, athlete and creation time never change.
func (r *mongoTrainingPlanRepository) Update(ctx context.Context, plan *domain.TrainingPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("training plan ID is required for update")
	}
	plan.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":       plan.Title,
			"description": plan.Description,
			"startDate":   plan.StartDate,
			"endDate":     plan.EndDate,
			"isActive":    plan.IsActive,
			"updatedAt":   plan.UpdatedAt,
		},
	}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update))
}

func (r *mongoTrainingPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.collection.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *mongoTrainingPlanRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureTrainingPlanIndexes creates necessary indexes. Call during startup.
func EnsureTrainingPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "athleteId", Value: 1}}},
		{Keys: bson.D{{Key: "athleteId", Value: 1}, {Key: "isActive", Value: 1}}},
	})
}
