package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// User is an account record. PublicKey is the key material the client
	// published at signup; the server stores and serves it verbatim and never
	// holds private key material of any kind.
	User struct {
		ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
		Name      string             `bson:"name" json:"name"`
		PublicKey []byte             `bson:"publicKey" json:"publicKey"`
		CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	}
)
