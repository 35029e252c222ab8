// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a person who belongs to one or more jars.
//
// NOTE:
//   - Jar membership is not embedded here; use the jar_members collection.
//   - Streak fields feed the reminder scheduler; the notification
//     preference flags are checked by the dispatcher before delivery.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`
	Email      string             `bson:"email" json:"email"`

	StreakCount    int        `bson:"streak_count" json:"streak_count"`
	LastActivityAt *time.Time `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`

	StreakRemindersEnabled bool `bson:"streak_reminders_enabled" json:"streak_reminders_enabled"`
	WinnerAlertsEnabled    bool `bson:"winner_alerts_enabled" json:"winner_alerts_enabled"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
