// internal/domain/models/vote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote is one member's ballot within a session. Exactly one document per
// (session_id, user_id); a second cast by the same user replaces the
// first via upsert, never appends.
type Vote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	IdeaID    primitive.ObjectID `bson:"idea_id" json:"idea_id"`
	CastAt    time.Time          `bson:"cast_at" json:"cast_at"`
}
