// internal/domain/models/pushsubscription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription is one browser push delivery endpoint for a user.
// A user may hold several (one per device/browser).
//
// Lifecycle: created when a client registers for notifications; deleted
// by the fan-out dispatcher when the endpoint reports permanently gone
// (HTTP 404/410).
type PushSubscription struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Endpoint string             `bson:"endpoint" json:"endpoint"`
	P256dh   string             `bson:"p256dh" json:"p256dh"`
	Auth     string             `bson:"auth" json:"auth"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
