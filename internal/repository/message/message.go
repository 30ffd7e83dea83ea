package message

import (
	"context"
	"time"

	"e2e_relay/internal/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	MessageRepo struct {
		collection *mongo.Collection
	}
)

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{
		collection: db.Collection("messages"),
	}
}

// Insert writes one message record and returns it with id and timestamp
// filled in. A nil error means the record is durable; callers gate delivery
// acknowledgment on it.
func (r *MessageRepo) Insert(ctx context.Context, senderID, receiverID, content string) (*model.Message, error) {
	m := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	res, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	m.ID = res.InsertedID.(primitive.ObjectID)
	return m, nil
}

// ListBetween returns the messages exchanged between two users, oldest first.
// limit <= 0 means no limit.
func (r *MessageRepo) ListBetween(ctx context.Context, a, b string, limit int64) ([]*model.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"senderId": a, "receiverId": b},
			{"senderId": b, "receiverId": a},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}

	var msgs []*model.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}

	return msgs, nil
}
