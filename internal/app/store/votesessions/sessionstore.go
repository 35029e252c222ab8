// internal/app/store/votesessions/sessionstore.go
package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrSessionAlreadyActive means the jar already has an active session.
	// Enforced by the partial unique index on (jar_id, status=active), so
	// two concurrent starts cannot both succeed.
	ErrSessionAlreadyActive = errors.New("jar already has an active vote session")

	// ErrAlreadyCompleted means a completion raced and lost. The caller
	// re-reads the session for the winner the other resolver committed.
	ErrAlreadyCompleted = errors.New("vote session is already completed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("vote_sessions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VoteSession, error) {
	var sess models.VoteSession
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return models.VoteSession{}, err
	}
	return sess, nil
}

// Create inserts a new active session with the frozen candidate set.
// The candidate order is preserved as given; it doubles as the
// deterministic tie-break order at resolution.
func (s *Store) Create(ctx context.Context, jarID, startedBy primitive.ObjectID, candidateIDs []primitive.ObjectID) (models.VoteSession, error) {
	sess := models.VoteSession{
		ID:           primitive.NewObjectID(),
		JarID:        jarID,
		Status:       models.SessionStatusActive,
		CandidateIDs: candidateIDs,
		StartedBy:    startedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		if wafflemongo.IsDup(err) {
			return models.VoteSession{}, ErrSessionAlreadyActive
		}
		return models.VoteSession{}, err
	}
	return sess, nil
}

// GetActiveByJar returns the jar's active session, or mongo.ErrNoDocuments.
func (s *Store) GetActiveByJar(ctx context.Context, jarID primitive.ObjectID) (models.VoteSession, error) {
	var sess models.VoteSession
	err := s.c.FindOne(ctx, bson.M{
		"jar_id": jarID,
		"status": models.SessionStatusActive,
	}).Decode(&sess)
	if err != nil {
		return models.VoteSession{}, err
	}
	return sess, nil
}

// Complete transitions active → completed and records the winner, as a
// single conditional update guarded on status. When an auto-resolve and
// an admin force-close race, exactly one caller's write matches; the
// other gets ErrAlreadyCompleted and reads back the decided session.
func (s *Store) Complete(ctx context.Context, id, winnerID primitive.ObjectID, at time.Time) error {
	at = at.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": models.SessionStatusActive,
		},
		bson.M{"$set": bson.M{
			"status":       models.SessionStatusCompleted,
			"winner_id":    winnerID,
			"completed_at": at,
		}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}

// ListByJar returns a jar's sessions, newest first.
func (s *Store) ListByJar(ctx context.Context, jarID primitive.ObjectID) ([]models.VoteSession, error) {
	cursor, err := s.c.Find(ctx, bson.M{"jar_id": jarID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []models.VoteSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
