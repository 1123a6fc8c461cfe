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

type ownedDoc[T any] interface {
	*T
	domain.Record
}

// mongoOwnedRepository stores one kind of owned document. ownerField is the
// BSON key of the owner reference and dateField orders listings.
type mongoOwnedRepository[T any, PT ownedDoc[T]] struct {
	collection *mongo.Collection
	ownerField string
	dateField  string
}

func newOwnedRepository[T any, PT ownedDoc[T]](db *mongo.Database, name, ownerField, dateField string) *mongoOwnedRepository[T, PT] {
	return &mongoOwnedRepository[T, PT]{
		collection: db.Collection(name),
		ownerField: ownerField,
		dateField:  dateField,
	}
}

func NewMongoRideRepository(db *mongo.Database) repository.RideRepository {
	return newOwnedRepository[domain.Ride](db, RidesCollection, "userId", "rideDate")
}

func NewMongoWorkoutLogRepository(db *mongo.Database) repository.WorkoutLogRepository {
	return newOwnedRepository[domain.Workout](db, WorkoutsCollection, "userId", "workoutDate")
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return newOwnedRepository[domain.Goal](db, GoalsCollection, "userId", "createdAt")
}

func NewMongoNutritionLogRepository(db *mongo.Database) repository.NutritionLogRepository {
	return newOwnedRepository[domain.NutritionLog](db, NutritionLogsCollection, "userId", "logDate")
}

func NewMongoPlannedWorkoutRepository(db *mongo.Database) repository.PlannedWorkoutRepository {
	return newOwnedRepository[domain.PlannedWorkout](db, PlannedWorkoutCollection, "planId", "scheduledDate")
}

func NewMongoPlannedGoalRepository(db *mongo.Database) repository.PlannedGoalRepository {
	return newOwnedRepository[domain.PlannedGoal](db, PlannedGoalCollection, "planId", "createdAt")
}

func NewMongoNutritionPlanRepository(db *mongo.Database) repository.NutritionPlanRepository {
	return newOwnedRepository[domain.NutritionPlan](db, NutritionPlanCollection, "planId", "createdAt")
}

func (r *mongoOwnedRepository[T, PT]) Create(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	PT(doc).Stamp(time.Now().UTC())
	return insertedID(r.collection.InsertOne(ctx, doc))
}

func (r *mongoOwnedRepository[T, PT]) GetByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return findOne[T](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoOwnedRepository[T, PT]) ListByOwners(ctx context.Context, owners []primitive.ObjectID, page repository.Page) ([]T, error) {
	filter := bson.M{}
	if owners != nil {
		filter[r.ownerField] = bson.M{"$in": owners}
	}
	opts := pageOptions(page).SetSort(bson.D{{Key: r.dateField, Value: -1}})
	return findAll[T](ctx, r.collection, filter, opts)
}

func (r *mongoOwnedRepository[T, PT]) ListByOwnerBetween(ctx context.Context, owner primitive.ObjectID, from, to time.Time) ([]T, error) {
	filter := bson.M{
		r.ownerField: owner,
		r.dateField:  bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: r.dateField, Value: 1}})
	return findAll[T](ctx, r.collection, filter, opts)
}

// Replace overwrites the stored document; the ID and creation time are kept.
func (r *mongoOwnedRepository[T, PT]) Replace(ctx context.Context, doc *T) error {
	rec := PT(doc)
	if rec.RecordID().IsZero() {
		return repository.ErrNotFound
	}
	rec.Stamp(time.Now().UTC())
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.RecordID()}, doc)
	return matched(result, err)
}

func (r *mongoOwnedRepository[T, PT]) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.collection.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *mongoOwnedRepository[T, PT]) DeleteByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{r.ownerField: owner})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoOwnedRepository[T, PT]) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureOwnedIndexes indexes an owned collection by owner and listing date.
func EnsureOwnedIndexes(ctx context.Context, collection *mongo.Collection, ownerField, dateField string) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: ownerField, Value: 1}, {Key: dateField, Value: -1}}},
	})
}
