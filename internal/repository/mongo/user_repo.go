package mongo

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(UsersCollection),
	}
}

// Create inserts a new user. Emails are stored lower-cased.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return insertedID(r.collection.InsertOne(ctx, user))
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"email": strings.ToLower(email)})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	opts := pageOptions(filter.Page).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.User](ctx, r.collection, query, opts)
}

// SearchCoaches matches name or email case-insensitively; the query is treated literally.
func (r *mongoUserRepository) SearchCoaches(ctx context.Context, query string, page repository.Page) ([]domain.User, error) {
	filter := bson.M{
		"role":     bson.M{"$in": []domain.Role{domain.RoleTrainer, domain.RoleAdmin}},
		"isActive": true,
		"isLocked": bson.M{"$ne": true},
	}
	if q := strings.TrimSpace(query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"fullName": pattern},
			bson.M{"email": pattern},
		}
	}
	opts := pageOptions(page).SetSort(bson.D{{Key: "fullName", Value: 1}})
	return findAll[domain.User](ctx, r.collection, filter, opts)
}

func (r *mongoUserRepository) UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, update))
}

// SetLocked is idempotent: locking a locked user matches without modifying.
func (r *mongoUserRepository) SetLocked(ctx context.Context, id primitive.ObjectID, locked bool) error {
	update := bson.M{"$set": bson.M{"isLocked": locked, "updatedAt": time.Now().UTC()}}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, update))
}

func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.collection.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *mongoUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoUserRepository) CountSignInAdmins(ctx context.Context, exclude primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"role":     domain.RoleAdmin,
		"isActive": true,
		"isLocked": bson.M{"$ne": true},
		"_id":      bson.M{"$ne": exclude},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "isActive", Value: 1}},
		},
	})
}
