// internal/app/system/voteflow/voteflow.go

// Package voteflow runs the vote-session state machine: freeze a
// candidate set, collect one ballot per active member, and resolve the
// session through the shared winner-commit protocol.
package voteflow

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	sessionstore "github.com/decisionjar/decisionjar/internal/app/store/votesessions"
	votestore "github.com/decisionjar/decisionjar/internal/app/store/votes"
	"github.com/decisionjar/decisionjar/internal/app/system/selection"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotActive means the session is already completed. The
	// caller reads the completed session for the committed winner.
	ErrSessionNotActive = errors.New("vote session is not active")

	// ErrInvalidCandidate means the ballot names an idea outside the
	// session's frozen candidate set.
	ErrInvalidCandidate = errors.New("idea is not a candidate in this session")

	// ErrNoVotesCast means a forced resolution found an empty ballot box.
	ErrNoVotesCast = errors.New("no votes have been cast in this session")
)

// Flow wires the stores a vote session touches.
type Flow struct {
	jars      *jarstore.Store
	ideas     *ideastore.Store
	members   *memberstore.Store
	sessions  *sessionstore.Store
	votes     *votestore.Store
	announcer selection.WinnerAnnouncer
	log       *zap.Logger
}

func New(jars *jarstore.Store, ideas *ideastore.Store, members *memberstore.Store, sessions *sessionstore.Store, votes *votestore.Store, announcer selection.WinnerAnnouncer, logger *zap.Logger) *Flow {
	return &Flow{
		jars:      jars,
		ideas:     ideas,
		members:   members,
		sessions:  sessions,
		votes:     votes,
		announcer: announcer,
		log:       logger,
	}
}

// Start opens a vote session for the jar. Admin only. The candidate set
// is frozen here: the full eligible pool when the jar's
// vote_candidates_count is zero, otherwise that many ideas drawn
// uniformly without replacement (everything when the pool is smaller).
// The frozen order doubles as the tie-break order at resolution.
//
// The partial unique index on (jar_id, status=active) arbitrates
// concurrent starts; the loser gets sessionstore.ErrSessionAlreadyActive.
func (fl *Flow) Start(ctx context.Context, jarID, actorID primitive.ObjectID) (models.VoteSession, error) {
	isAdmin, err := fl.members.IsActiveAdmin(ctx, jarID, actorID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if !isAdmin {
		return models.VoteSession{}, selection.ErrNotAuthorized
	}

	jar, err := fl.jars.GetByID(ctx, jarID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if jar.SelectionMode != models.ModeVote {
		return models.VoteSession{}, selection.ErrInvalidMode
	}

	pool, err := fl.ideas.Eligible(ctx, jarID, ideastore.Filter{})
	if err != nil {
		return models.VoteSession{}, err
	}
	if len(pool) == 0 {
		return models.VoteSession{}, selection.ErrNoEligibleCandidates
	}

	candidateIDs := make([]primitive.ObjectID, len(pool))
	for i, idea := range pool {
		candidateIDs[i] = idea.ID
	}
	if n := jar.VoteCandidatesCount; n > 0 && n < len(candidateIDs) {
		rand.Shuffle(len(candidateIDs), func(i, j int) {
			candidateIDs[i], candidateIDs[j] = candidateIDs[j], candidateIDs[i]
		})
		candidateIDs = candidateIDs[:n]
	}

	sess, err := fl.sessions.Create(ctx, jarID, actorID, candidateIDs)
	if err != nil {
		return models.VoteSession{}, err
	}

	fl.log.Info("vote session started",
		zap.String("jar_id", jarID.Hex()),
		zap.String("session_id", sess.ID.Hex()),
		zap.Int("candidates", len(candidateIDs)))
	return sess, nil
}

// CastVote records one member's ballot. A member voting again replaces
// their earlier ballot. After recording, the flow opportunistically
// resolves the session when every active member has voted; a resolution
// race lost here is absorbed by re-reading the completed session.
func (fl *Flow) CastVote(ctx context.Context, sessionID, userID, ideaID primitive.ObjectID) (models.VoteSession, error) {
	sess, err := fl.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if sess.Status != models.SessionStatusActive {
		return models.VoteSession{}, ErrSessionNotActive
	}

	active, err := fl.members.IsActiveMember(ctx, sess.JarID, userID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if !active {
		return models.VoteSession{}, selection.ErrNotAuthorized
	}
	if !sess.HasCandidate(ideaID) {
		return models.VoteSession{}, ErrInvalidCandidate
	}

	if err := fl.votes.Cast(ctx, sessionID, userID, ideaID); err != nil {
		return models.VoteSession{}, err
	}

	memberIDs, err := fl.members.ActiveUserIDs(ctx, sess.JarID)
	if err != nil {
		// The ballot is recorded; quorum detection failing only delays
		// auto-resolution until the next cast or a forced resolve.
		fl.log.Warn("quorum check failed after cast",
			zap.String("session_id", sessionID.Hex()), zap.Error(err))
		return sess, nil
	}
	ballots, err := fl.votes.ListBySession(ctx, sessionID)
	if err != nil {
		fl.log.Warn("quorum check failed after cast",
			zap.String("session_id", sessionID.Hex()), zap.Error(err))
		return sess, nil
	}

	// Quorum means every currently active member has a ballot. Ballots
	// left behind by members who dropped off the roster mid-session do
	// not stand in for missing active votes.
	voted := make(map[primitive.ObjectID]struct{}, len(ballots))
	for _, b := range ballots {
		voted[b.UserID] = struct{}{}
	}
	for _, id := range memberIDs {
		if _, ok := voted[id]; !ok {
			return sess, nil
		}
	}
	return fl.resolve(ctx, sess)
}

// ForceResolve ends an active session early on an admin's call, counting
// whatever ballots exist. An empty ballot box is refused.
func (fl *Flow) ForceResolve(ctx context.Context, sessionID, actorID primitive.ObjectID) (models.VoteSession, error) {
	sess, err := fl.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if sess.Status != models.SessionStatusActive {
		return models.VoteSession{}, ErrSessionNotActive
	}

	isAdmin, err := fl.members.IsActiveAdmin(ctx, sess.JarID, actorID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if !isAdmin {
		return models.VoteSession{}, selection.ErrNotAuthorized
	}

	count, err := fl.votes.CountBySession(ctx, sessionID)
	if err != nil {
		return models.VoteSession{}, err
	}
	if count == 0 {
		return models.VoteSession{}, ErrNoVotesCast
	}
	return fl.resolve(ctx, sess)
}

// resolve tallies, picks the winner, and drives active -> completed.
// Ties break to the earliest position in the frozen candidate order, so
// two resolvers tallying the same ballots pick the same winner. The
// conditional Complete update makes exactly one of them transition the
// session; the loser re-reads and returns the completed session.
func (fl *Flow) resolve(ctx context.Context, sess models.VoteSession) (models.VoteSession, error) {
	tally, err := fl.votes.Tally(ctx, sess.ID)
	if err != nil {
		return models.VoteSession{}, err
	}

	winnerID := primitive.NilObjectID
	best := 0
	for _, candidateID := range sess.CandidateIDs {
		if n := tally[candidateID]; n > best {
			best = n
			winnerID = candidateID
		}
	}
	if winnerID.IsZero() {
		return models.VoteSession{}, ErrNoVotesCast
	}

	now := time.Now()
	if err := fl.sessions.Complete(ctx, sess.ID, winnerID, now); err != nil {
		if errors.Is(err, sessionstore.ErrAlreadyCompleted) {
			return fl.sessions.GetByID(ctx, sess.ID)
		}
		return models.VoteSession{}, err
	}

	winner, err := fl.ideas.CommitWinner(ctx, sess.JarID, winnerID, now)
	if err != nil {
		// The session transition already happened; a consumed idea leaves
		// the session completed with its recorded winner.
		fl.log.Warn("winner commit failed after session completion",
			zap.String("session_id", sess.ID.Hex()),
			zap.String("idea_id", winnerID.Hex()),
			zap.Error(err))
	} else {
		fl.announcer.WinnerSelected(sess.JarID, winner)
	}

	fl.log.Info("vote session resolved",
		zap.String("jar_id", sess.JarID.Hex()),
		zap.String("session_id", sess.ID.Hex()),
		zap.String("winner_id", winnerID.Hex()),
		zap.Int("votes", best))
	return fl.sessions.GetByID(ctx, sess.ID)
}

// Get returns a session by id.
func (fl *Flow) Get(ctx context.Context, sessionID primitive.ObjectID) (models.VoteSession, error) {
	return fl.sessions.GetByID(ctx, sessionID)
}
