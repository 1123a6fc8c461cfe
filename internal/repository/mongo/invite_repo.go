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

type mongoInviteRepository struct {
	collection *mongo.Collection
}

func NewMongoInviteRepository(db *mongo.Database) repository.InviteRepository {
	return &mongoInviteRepository{collection: db.Collection(InvitesCollection)}
}

func (r *mongoInviteRepository) Create(ctx context.Context, invite *domain.InviteToken) (primitive.ObjectID, error) {
	invite.ID = primitive.NewObjectID()
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}
	return insertedID(r.collection.InsertOne(ctx, invite))
}

func (r *mongoInviteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.InviteToken, error) {
	return findOne[domain.InviteToken](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoInviteRepository) GetByToken(ctx context.Context, token string) (*domain.InviteToken, error) {
	return findOne[domain.InviteToken](ctx, r.collection, bson.M{"token": token})
}

func (r *mongoInviteRepository) List(ctx context.Context) ([]domain.InviteToken, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.InviteToken](ctx, r.collection, bson.M{}, opts)
}

func (r *mongoInviteRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": false}}))
}

// MarkUsed is conditional on usedAt being unset, so an invite is consumed at most once.
func (r *mongoInviteRepository) MarkUsed(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "usedAt": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"usedAt": at, "usedBy": userID}}
	return matched(r.collection.UpdateOne(ctx, filter, update))
}

// EnsureInviteIndexes creates indexes for the invite_tokens collection.
func EnsureInviteIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
