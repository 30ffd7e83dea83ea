package model

import "time"

type (
	// Block is a directed edge: BlockerID no longer accepts messages from (or
	// may send to) BlockedID. Delivery is refused if an edge exists in either
	// direction between two users.
	Block struct {
		BlockerID string    `bson:"blockerId" json:"blockerId"`
		BlockedID string    `bson:"blockedId" json:"blockedId"`
		CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	}
)
