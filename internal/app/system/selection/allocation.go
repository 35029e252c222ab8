// internal/app/system/selection/allocation.go
package selection

import (
	"context"
	"math/rand/v2"
	"time"

	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Assignment pairs one member with the idea allocated to them.
type Assignment struct {
	UserID primitive.ObjectID `json:"user_id"`
	Idea   models.Idea        `json:"idea"`
}

// Allocate runs one task-distribution round: an injective mapping from
// active members to eligible ideas. No idea is assigned twice and no
// member receives more than one idea; when the pool and the membership
// differ in size, the shorter side bounds the number of assignments.
//
// Each pair is committed independently through the winner-commit
// protocol. A pair whose idea was consumed concurrently is dropped from
// the result; the rest of the round proceeds.
func (r *Resolver) Allocate(ctx context.Context, jarID, actorID primitive.ObjectID) ([]Assignment, error) {
	isAdmin, err := r.members.IsActiveAdmin(ctx, jarID, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	jar, err := r.jars.GetByID(ctx, jarID)
	if err != nil {
		return nil, err
	}
	if jar.SelectionMode != models.ModeAllocation {
		return nil, ErrInvalidMode
	}

	members, err := r.members.ListActive(ctx, jarID)
	if err != nil {
		return nil, err
	}
	pool, err := r.ideas.Eligible(ctx, jarID, ideastore.Filter{})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoEligibleCandidates
	}

	// Shuffle both sides so the pairing is uniform across rounds.
	shuffledMembers := make([]models.JarMember, len(members))
	copy(shuffledMembers, members)
	rand.Shuffle(len(shuffledMembers), func(i, j int) {
		shuffledMembers[i], shuffledMembers[j] = shuffledMembers[j], shuffledMembers[i]
	})
	shuffledPool := make([]models.Idea, len(pool))
	copy(shuffledPool, pool)
	rand.Shuffle(len(shuffledPool), func(i, j int) {
		shuffledPool[i], shuffledPool[j] = shuffledPool[j], shuffledPool[i]
	})

	n := len(shuffledMembers)
	if len(shuffledPool) < n {
		n = len(shuffledPool)
	}

	assignments := make([]Assignment, 0, n)
	for i := 0; i < n; i++ {
		idea, err := r.ideas.CommitWinner(ctx, jarID, shuffledPool[i].ID, time.Now())
		if err != nil {
			// A concurrent round consumed this idea; the pair is dropped,
			// the remaining pairs still commit.
			r.log.Warn("allocation pair skipped",
				zap.String("jar_id", jarID.Hex()),
				zap.String("idea_id", shuffledPool[i].ID.Hex()),
				zap.Error(err))
			continue
		}
		assignments = append(assignments, Assignment{
			UserID: shuffledMembers[i].UserID,
			Idea:   idea,
		})
	}

	r.log.Info("allocation round finished",
		zap.String("jar_id", jarID.Hex()),
		zap.Int("members", len(members)),
		zap.Int("pool_size", len(pool)),
		zap.Int("assigned", len(assignments)))
	return assignments, nil
}
