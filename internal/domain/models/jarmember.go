// internal/domain/models/jarmember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles and statuses.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	MemberStatusPending    = "pending"
	MemberStatusWaitlisted = "waitlisted"
	MemberStatusActive     = "active"
)

// JarMember is the authoritative join between users and jars.
// Exactly one document per (jar_id, user_id); role is a scalar.
//
// Only active members vote or count toward quorum; only admins may
// force-resolve, pick directly, or start sessions.
type JarMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JarID     primitive.ObjectID `bson:"jar_id" json:"jar_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
