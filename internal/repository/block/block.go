package block

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	BlockRepo struct {
		collection *mongo.Collection
	}
)

func NewBlockRepo(db *mongo.Database) *BlockRepo {
	return &BlockRepo{
		collection: db.Collection("blocks"),
	}
}

// Block records a directed edge. Repeating an existing block is a no-op.
func (r *BlockRepo) Block(ctx context.Context, blockerID, blockedID string) error {
	filter := bson.M{
		"blockerId": blockerID,
		"blockedId": blockedID,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"blockerId": blockerID,
			"blockedId": blockedID,
			"createdAt": time.Now().UTC(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return errors.Wrap(err, "upsert block")
}

// Unblock removes the directed edge if present.
func (r *BlockRepo) Unblock(ctx context.Context, blockerID, blockedID string) error {
	filter := bson.M{
		"blockerId": blockerID,
		"blockedId": blockedID,
	}

	_, err := r.collection.DeleteOne(ctx, filter)
	return errors.Wrap(err, "delete block")
}

// IsBlocked reports whether a block edge exists in either direction between a
// and b. The symmetry requirement lives here so callers check once.
func (r *BlockRepo) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"blockerId": a, "blockedId": b},
			{"blockerId": b, "blockedId": a},
		},
	}

	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "count blocks")
	}
	return n > 0, nil
}
