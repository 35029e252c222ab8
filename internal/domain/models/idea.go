// internal/domain/models/idea.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Idea statuses.
const (
	IdeaStatusPending  = "pending"
	IdeaStatusApproved = "approved"
	IdeaStatusRejected = "rejected"
)

// Cost tiers, ordered cheapest first. Comparison is by rank, not string.
const (
	CostLow    = "$"
	CostMedium = "$$"
	CostHigh   = "$$$"
)

// Activity levels, ordered least strenuous first.
const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"
)

// Time-of-day and weather affinities. "any" matches every filter value.
const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeAny       = "any"

	WeatherSunny = "sunny"
	WeatherRainy = "rainy"
	WeatherAny   = "any"
)

// CostRank returns the ordinal rank of a cost tier, or -1 for unknown values.
func CostRank(tier string) int {
	switch tier {
	case CostLow:
		return 0
	case CostMedium:
		return 1
	case CostHigh:
		return 2
	default:
		return -1
	}
}

// ActivityRank returns the ordinal rank of an activity level, or -1 for
// unknown values.
func ActivityRank(level string) int {
	switch level {
	case ActivityLow:
		return 0
	case ActivityModerate:
		return 1
	case ActivityHigh:
		return 2
	default:
		return -1
	}
}

// Idea is one candidate item inside a jar.
//
// NOTE:
//   - SelectedAt is the consumption marker. Once set, the idea is no longer
//     a candidate for any selection round until an admin resets it.
//   - The transition nil → non-nil happens through a single conditional
//     update in the ideas store; it is never written anywhere else.
type Idea struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JarID       primitive.ObjectID `bson:"jar_id" json:"jar_id"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`

	DurationMinutes int    `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	CostTier        string `bson:"cost_tier,omitempty" json:"cost_tier,omitempty"`
	ActivityLevel   string `bson:"activity_level,omitempty" json:"activity_level,omitempty"`
	TimeOfDay       string `bson:"time_of_day,omitempty" json:"time_of_day,omitempty"`
	Weather         string `bson:"weather,omitempty" json:"weather,omitempty"`
	Indoor          bool   `bson:"indoor" json:"indoor"`
	RequiresTravel  bool   `bson:"requires_travel" json:"requires_travel"`
	Private         bool   `bson:"private" json:"private"`

	Status     string     `bson:"status" json:"status"`
	SelectedAt *time.Time `bson:"selected_at,omitempty" json:"selected_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
