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

// mongoDocumentRepository implements repository.DocumentRepository.
type mongoDocumentRepository struct {
	collection *mongo.Collection
}

// NewMongoDocumentRepository creates a new document metadata repository.
func NewMongoDocumentRepository(db *mongo.Database) repository.DocumentRepository {
	return &mongoDocumentRepository{
		collection: db.Collection(DocumentsCollection),
	}
}

// Create inserts metadata for an object that has already been stored.
func (r *mongoDocumentRepository) Create(ctx context.Context, doc *domain.TrainingDocument) (primitive.ObjectID, error) {
	if doc.PlanID.IsZero() || doc.ObjectKey == "" || doc.Filename == "" {
		return primitive.NilObjectID, errors.New("plan ID, object key, and filename are required")
	}
	doc.ID = primitive.NewObjectID()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	return insertedID(r.collection.InsertOne(ctx, doc))
}

func (r *mongoDocumentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingDocument, error) {
	return findOne[domain.TrainingDocument](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoDocumentRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	return findAll[domain.TrainingDocument](ctx, r.collection, bson.M{"planId": planID}, opts)
}

func (r *mongoDocumentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.collection.DeleteOne(ctx, bson.M{"_id": id}))
}

// EnsureDocumentIndexes creates indexes for the training_documents collection.
func EnsureDocumentIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "planId", Value: 1}}},
		{
			Keys:    bson.D{{Key: "objectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
