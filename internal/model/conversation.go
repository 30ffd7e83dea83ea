package model

import "time"

type (
	// Conversation is a denormalized summary of the latest traffic between two
	// users, updated best-effort on every successful send. It backs listing
	// only; the relay path never reads it.
	Conversation struct {
		PairKey      string    `bson:"pairKey" json:"pairKey"`
		Participants []string  `bson:"participants" json:"participants"`
		LastMessage  string    `bson:"lastMessage" json:"lastMessage"`
		LastSenderID string    `bson:"lastSenderId" json:"lastSenderId"`
		UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
	}
)

// PairKey returns the canonical key for an unordered user pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
