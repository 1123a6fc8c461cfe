package mongo

import (
	"context"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{collection: db.Collection(MessagesCollection)}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return insertedID(r.collection.InsertOne(ctx, msg))
}

func (r *mongoMessageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	return findOne[domain.Message](ctx, r.collection, bson.M{"_id": id})
}

// Conversations groups the user's messages by counterparty inside Mongo,
// keeping the newest message and counting the unread ones received.
func (r *mongoMessageRepository) Conversations(ctx context.Context, userID primitive.ObjectID) ([]repository.ConversationSummary, error) {
	unread := bson.M{"$cond": bson.A{
		bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$recipientId", userID}},
			bson.M{"$eq": bson.A{"$isRead", false}},
		}},
		1, 0,
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{bson.M{"senderId": userID}, bson.M{"recipientId": userID}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$senderId", userID}}, "$recipientId", "$senderId"}}},
			{Key: "last", Value: bson.M{"$first": "$$ROOT"}},
			{Key: "unread", Value: bson.M{"$sum": unread}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last.createdAt", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []repository.ConversationSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoMessageRepository) ListBetween(ctx context.Context, a, b primitive.ObjectID, page repository.Page) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": a, "recipientId": b},
		bson.M{"senderId": b, "recipientId": a},
	}}
	opts := pageOptions(page).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.Message](ctx, r.collection, filter, opts)
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": at}}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": id}, update))
}

func (r *mongoMessageRepository) MarkReadFrom(ctx context.Context, recipientID, senderID primitive.ObjectID, at time.Time) (int64, error) {
	filter := bson.M{"recipientId": recipientID, "senderId": senderID, "isRead": false}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isRead": true, "readAt": at}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipientId": recipientID, "isRead": false})
}

// EnsureMessageIndexes creates indexes for the messages collection.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "isRead", Value: 1}}},
	})
}
