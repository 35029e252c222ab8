// internal/domain/models/jar.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection modes a jar can be configured with.
const (
	ModeRandom     = "random"
	ModeAdminPick  = "admin_pick"
	ModeVote       = "vote"
	ModeAllocation = "allocation"
)

// Jar is a decision-making group's shared pool of ideas plus its
// selection configuration.
//
// SelectionMode determines which strategy resolves a round. It may change
// between rounds but never mid-round: the spin and vote-session paths read
// it once at the start of the operation.
type Jar struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	SelectionMode string `bson:"selection_mode" json:"selection_mode"`

	// VoteCandidatesCount controls how a vote session freezes its
	// candidate set: 0 means all eligible ideas, N>0 means N finalists
	// drawn uniformly at random without replacement.
	VoteCandidatesCount int `bson:"vote_candidates_count" json:"vote_candidates_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
