// internal/app/system/selection/resolver.go

// Package selection dispatches a decision round to the strategy the
// jar is configured with and funnels every strategy through the same
// winner-commit choke point in the ideas store.
package selection

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrNoEligibleCandidates means the filtered pool is empty. Filter
	// relaxation is the caller's retry decision, never done here.
	ErrNoEligibleCandidates = errors.New("no eligible candidates in the jar")

	// ErrInvalidMode means the jar's selection_mode is unrecognized: a
	// fatal configuration error, not user-recoverable.
	ErrInvalidMode = errors.New("jar has an unrecognized selection mode")

	// ErrNotAuthorized means the acting user lacks the required role for
	// the operation. Surfaced verbatim, never retried.
	ErrNotAuthorized = errors.New("acting user is not authorized for this operation")

	// ErrUseVoteSession means the jar resolves by group vote; the caller
	// must go through the vote-session flow instead of a direct spin.
	ErrUseVoteSession = errors.New("jar resolves by vote; start a vote session")

	// ErrUseAdminPick means the jar resolves by an admin's explicit
	// choice; a bare spin cannot supply the idea id.
	ErrUseAdminPick = errors.New("jar resolves by admin pick; use the pick endpoint")

	// ErrUseAllocation means the jar distributes tasks; callers use Allocate.
	ErrUseAllocation = errors.New("jar resolves by allocation; use the allocation round")
)

// WinnerAnnouncer receives committed winners for asynchronous fan-out.
type WinnerAnnouncer interface {
	WinnerSelected(jarID primitive.ObjectID, idea models.Idea)
}

// Resolver picks winners according to jar configuration.
type Resolver struct {
	jars      *jarstore.Store
	ideas     *ideastore.Store
	members   *memberstore.Store
	announcer WinnerAnnouncer
	log       *zap.Logger

	// randInt is swapped out by tests for deterministic draws.
	randInt func(n int) int
}

func NewResolver(jars *jarstore.Store, ideas *ideastore.Store, members *memberstore.Store, announcer WinnerAnnouncer, logger *zap.Logger) *Resolver {
	return &Resolver{
		jars:      jars,
		ideas:     ideas,
		members:   members,
		announcer: announcer,
		log:       logger,
		randInt:   rand.IntN,
	}
}

// Resolve runs one decision round ("spin") for the jar. The mode is read
// once at the start; changing it mid-round does not affect a spin that
// is already in flight.
//
// Random mode draws one idea uniformly from the eligible pool and
// commits it. A lost commit race surfaces as ideastore.ErrAlreadyCommitted:
// the caller re-fetches current state rather than retrying the same write.
func (r *Resolver) Resolve(ctx context.Context, jarID primitive.ObjectID, actorID primitive.ObjectID, f ideastore.Filter) (models.Idea, error) {
	jar, err := r.jars.GetByID(ctx, jarID)
	if err != nil {
		return models.Idea{}, err
	}

	active, err := r.members.IsActiveMember(ctx, jarID, actorID)
	if err != nil {
		return models.Idea{}, err
	}
	if !active {
		return models.Idea{}, ErrNotAuthorized
	}

	switch jar.SelectionMode {
	case models.ModeRandom:
		return r.randomDraw(ctx, jarID, f)
	case models.ModeVote:
		return models.Idea{}, ErrUseVoteSession
	case models.ModeAdminPick:
		return models.Idea{}, ErrUseAdminPick
	case models.ModeAllocation:
		return models.Idea{}, ErrUseAllocation
	default:
		return models.Idea{}, ErrInvalidMode
	}
}

func (r *Resolver) randomDraw(ctx context.Context, jarID primitive.ObjectID, f ideastore.Filter) (models.Idea, error) {
	pool, err := r.ideas.Eligible(ctx, jarID, f)
	if err != nil {
		return models.Idea{}, err
	}
	if len(pool) == 0 {
		return models.Idea{}, ErrNoEligibleCandidates
	}

	pick := pool[r.randInt(len(pool))]
	winner, err := r.ideas.CommitWinner(ctx, jarID, pick.ID, time.Now())
	if err != nil {
		return models.Idea{}, err
	}

	r.log.Info("random draw committed",
		zap.String("jar_id", jarID.Hex()),
		zap.String("idea_id", winner.ID.Hex()),
		zap.Int("pool_size", len(pool)))
	r.announcer.WinnerSelected(jarID, winner)
	return winner, nil
}

// AdminPick commits a specific idea chosen by an admin. The commit's
// conditional write is what enforces eligibility: a non-candidate idea
// fails with ideastore.ErrNotEligible, a consumed one with
// ideastore.ErrAlreadyCommitted.
func (r *Resolver) AdminPick(ctx context.Context, jarID, ideaID, actorID primitive.ObjectID) (models.Idea, error) {
	isAdmin, err := r.members.IsActiveAdmin(ctx, jarID, actorID)
	if err != nil {
		return models.Idea{}, err
	}
	if !isAdmin {
		return models.Idea{}, ErrNotAuthorized
	}

	winner, err := r.ideas.CommitWinner(ctx, jarID, ideaID, time.Now())
	if err != nil {
		return models.Idea{}, err
	}

	r.log.Info("admin pick committed",
		zap.String("jar_id", jarID.Hex()),
		zap.String("idea_id", winner.ID.Hex()),
		zap.String("actor_id", actorID.Hex()))
	r.announcer.WinnerSelected(jarID, winner)
	return winner, nil
}
