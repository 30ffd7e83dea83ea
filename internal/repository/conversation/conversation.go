package conversation

import (
	"context"
	"time"

	"e2e_relay/internal/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	ConversationRepo struct {
		collection *mongo.Collection
	}
)

func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection("conversations"),
	}
}

// Upsert refreshes the summary for the unordered pair (a, b).
func (r *ConversationRepo) Upsert(ctx context.Context, a, b, lastMessage, lastSenderID string) error {
	pairKey := model.PairKey(a, b)

	filter := bson.M{
		"pairKey": pairKey,
	}
	update := bson.M{
		"$set": bson.M{
			"lastMessage":  lastMessage,
			"lastSenderId": lastSenderID,
			"updatedAt":    time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"pairKey":      pairKey,
			"participants": []string{a, b},
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return errors.Wrap(err, "upsert conversation")
}

// ListForUser returns the user's conversation summaries, most recent first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]*model.Conversation, error) {
	filter := bson.M{
		"participants": userID,
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find conversations")
	}

	var convos []*model.Conversation
	if err := cur.All(ctx, &convos); err != nil {
		return nil, errors.Wrap(err, "decode conversations")
	}

	return convos, nil
}
