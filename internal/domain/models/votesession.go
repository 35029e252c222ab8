// internal/domain/models/votesession.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote session statuses.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// VoteSession is one bounded round of group voting over a frozen
// candidate set.
//
// Invariants:
//   - A jar has at most one active session at a time (partial unique index
//     on jar_id where status == "active").
//   - CandidateIDs is frozen at start; its order is the tie-break order.
//   - The active → completed transition is a single conditional update, so
//     exactly one resolver wins a resolution race.
type VoteSession struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	JarID        primitive.ObjectID   `bson:"jar_id" json:"jar_id"`
	Status       string               `bson:"status" json:"status"`
	CandidateIDs []primitive.ObjectID `bson:"candidate_ids" json:"candidate_ids"`
	WinnerID     *primitive.ObjectID  `bson:"winner_id,omitempty" json:"winner_id,omitempty"`
	StartedBy    primitive.ObjectID   `bson:"started_by" json:"started_by"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// HasCandidate reports whether ideaID is in the frozen candidate set.
func (s VoteSession) HasCandidate(ideaID primitive.ObjectID) bool {
	for _, id := range s.CandidateIDs {
		if id == ideaID {
			return true
		}
	}
	return false
}
