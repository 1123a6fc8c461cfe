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

type mongoIntegrationRepository struct {
	collection *mongo.Collection
}

func NewMongoIntegrationRepository(db *mongo.Database) repository.IntegrationRepository {
	return &mongoIntegrationRepository{collection: db.Collection(IntegrationsCollection)}
}

func (r *mongoIntegrationRepository) Get(ctx context.Context, userID primitive.ObjectID, provider string) (*domain.Integration, error) {
	return findOne[domain.Integration](ctx, r.collection, bson.M{"userId": userID, "provider": provider})
}

func (r *mongoIntegrationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Integration, error) {
	return findAll[domain.Integration](ctx, r.collection, bson.M{"userId": userID})
}

// Upsert stores credentials keyed on (userId, provider). ConnectedAt survives token refreshes.
func (r *mongoIntegrationRepository) Upsert(ctx context.Context, in *domain.Integration) error {
	if in.ConnectedAt.IsZero() {
		in.ConnectedAt = time.Now().UTC()
	}
	filter := bson.M{"userId": in.UserID, "provider": in.Provider}
	update := bson.M{
		"$set": bson.M{
			"accessToken":    in.AccessToken,
			"refreshToken":   in.RefreshToken,
			"tokenExpiresAt": in.TokenExpiresAt,
			"externalId":     in.ExternalID,
		},
		"$setOnInsert": bson.M{"connectedAt": in.ConnectedAt},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		in.ID = id
	}
	return nil
}

func (r *mongoIntegrationRepository) SetLastSync(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastSync": at}}))
}

func (r *mongoIntegrationRepository) Delete(ctx context.Context, userID primitive.ObjectID, provider string) error {
	return deleted(r.collection.DeleteOne(ctx, bson.M{"userId": userID, "provider": provider}))
}

// EnsureIntegrationIndexes creates indexes for the integrations collection.
func EnsureIntegrationIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

type mongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{collection: db.Collection(ActivitiesCollection)}
}

func (r *mongoActivityRepository) Create(ctx context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	return insertedID(r.collection.InsertOne(ctx, a))
}

func (r *mongoActivityRepository) ExistsExternal(ctx context.Context, userID primitive.ObjectID, source, externalID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"userId": userID, "source": source, "externalId": externalID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoActivityRepository) List(ctx context.Context, userID primitive.ObjectID, f domain.ActivityFilter) ([]domain.Activity, error) {
	filter := bson.M{"userId": userID}
	if f.ActivityType != "" {
		filter["activityType"] = f.ActivityType
	}
	date := bson.M{}
	if f.Start != nil {
		date["$gte"] = *f.Start
	}
	if f.End != nil {
		date["$lte"] = *f.End
	}
	if len(date) > 0 {
		filter["activityDate"] = date
	}
	opts := pageOptions(repository.Page{Skip: f.Skip, Limit: f.Limit}).
		SetSort(bson.D{{Key: "activityDate", Value: -1}})
	return findAll[domain.Activity](ctx, r.collection, filter, opts)
}

// EnsureActivityIndexes creates indexes for the activities collection.
func EnsureActivityIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "activityDate", Value: -1}}},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "source", Value: 1}, {Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"externalId": bson.M{"$type": "string"}}),
		},
	})
}
