package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// Message is one relayed ciphertext. Content is opaque to the server: it is
	// stored and forwarded verbatim, never inspected or transformed. Records
	// are immutable once written.
	Message struct {
		ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
		SenderID   string             `bson:"senderId" json:"senderId"`
		ReceiverID string             `bson:"receiverId" json:"receiverId"`
		Content    string             `bson:"content" json:"content"`
		CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	}
)
