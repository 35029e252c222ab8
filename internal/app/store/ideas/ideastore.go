// internal/app/store/ideas/ideastore.go
package ideastore

import (
	"context"
	"errors"
	"time"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyCommitted means the idea already has selected_at set.
	// Expected under concurrency; callers re-fetch state instead of
	// retrying the same write.
	ErrAlreadyCommitted = errors.New("idea has already been selected")

	// ErrNotEligible means the idea does not exist in the jar, is not
	// approved, or was deleted out from under the caller.
	ErrNotEligible = errors.New("idea is not an eligible candidate")

	// ErrNotSelected means a reset targeted an idea that is not currently
	// consumed.
	ErrNotSelected = errors.New("idea is not currently selected")
)

// Filter narrows the eligible pool. Zero-valued fields impose no
// constraint. Cost and activity level are ordinal: Max* excludes anything
// ranked above the given tier.
type Filter struct {
	MaxDurationMinutes int
	MaxCost            string
	MaxActivityLevel   string
	TimeOfDay          string
	Category           string
	Weather            string
	LocalOnly          bool
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ideas")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Idea, error) {
	var idea models.Idea
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&idea); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

func (s *Store) Create(ctx context.Context, idea models.Idea) (models.Idea, error) {
	now := time.Now().UTC()
	idea.ID = primitive.NewObjectID()
	if idea.Status == "" {
		idea.Status = models.IdeaStatusPending
	}
	idea.SelectedAt = nil
	idea.CreatedAt = now
	idea.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, idea); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

// SetStatus moves an idea through the pending/approved/rejected review
// flow. It never touches selected_at.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Eligible returns the jar's candidate pool: approved, unselected, and
// matching every supplied filter. Results are ordered by creation time so
// downstream draws and freezes are reproducible against a fixed pool.
//
// An empty result is returned as an empty slice; surfacing that as a
// no-candidates condition is the caller's job. Filter relaxation is a
// UI-level retry decision, never done here.
func (s *Store) Eligible(ctx context.Context, jarID primitive.ObjectID, f Filter) ([]models.Idea, error) {
	q := bson.M{
		"jar_id":      jarID,
		"status":      models.IdeaStatusApproved,
		"selected_at": nil,
	}
	if f.MaxDurationMinutes > 0 {
		q["duration_minutes"] = bson.M{"$lte": f.MaxDurationMinutes}
	}
	if f.MaxCost != "" {
		q["cost_tier"] = bson.M{"$in": costTiersUpTo(f.MaxCost)}
	}
	if f.MaxActivityLevel != "" {
		q["activity_level"] = bson.M{"$in": activityLevelsUpTo(f.MaxActivityLevel)}
	}
	if f.TimeOfDay != "" && f.TimeOfDay != models.TimeAny {
		q["time_of_day"] = bson.M{"$in": bson.A{f.TimeOfDay, models.TimeAny, ""}}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Weather != "" && f.Weather != models.WeatherAny {
		q["weather"] = bson.M{"$in": bson.A{f.Weather, models.WeatherAny, ""}}
	}
	if f.LocalOnly {
		q["requires_travel"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ideas := []models.Idea{}
	if err := cursor.All(ctx, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

// CommitWinner marks one idea as the round's winner. This is the single
// choke point every selection strategy funnels through.
//
// The write is a compare-and-swap on the null-ness of selected_at: it
// matches only while the idea is still approved, unconsumed, and in the
// given jar. Two concurrent callers targeting the same idea cannot both
// succeed; the loser gets ErrAlreadyCommitted.
func (s *Store) CommitWinner(ctx context.Context, jarID, ideaID primitive.ObjectID, at time.Time) (models.Idea, error) {
	at = at.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":         ideaID,
			"jar_id":      jarID,
			"status":      models.IdeaStatusApproved,
			"selected_at": nil,
		},
		bson.M{"$set": bson.M{
			"selected_at": at,
			"updated_at":  at,
		}},
	)
	if err != nil {
		return models.Idea{}, err
	}
	if res.ModifiedCount == 0 {
		// Distinguish "someone beat us to it" from "never a candidate".
		var cur models.Idea
		err := s.c.FindOne(ctx, bson.M{"_id": ideaID, "jar_id": jarID}).Decode(&cur)
		switch {
		case err == mongo.ErrNoDocuments:
			return models.Idea{}, ErrNotEligible
		case err != nil:
			return models.Idea{}, err
		case cur.SelectedAt != nil:
			return models.Idea{}, ErrAlreadyCommitted
		default:
			return models.Idea{}, ErrNotEligible
		}
	}

	idea, err := s.GetByID(ctx, ideaID)
	if err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

// Reset clears selected_at so the idea re-enters the candidate pool.
// The inverse conditional of CommitWinner: it only matches a consumed idea.
func (s *Store) Reset(ctx context.Context, jarID, ideaID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":         ideaID,
			"jar_id":      jarID,
			"selected_at": bson.M{"$ne": nil},
		},
		bson.M{
			"$set":   bson.M{"updated_at": time.Now().UTC()},
			"$unset": bson.M{"selected_at": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotSelected
	}
	return nil
}

// Delete removes an idea by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByJar returns the number of ideas in a jar, in any status.
func (s *Store) CountByJar(ctx context.Context, jarID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"jar_id": jarID})
}

func costTiersUpTo(max string) bson.A {
	rank := models.CostRank(max)
	tiers := bson.A{""}
	for _, t := range []string{models.CostLow, models.CostMedium, models.CostHigh} {
		if models.CostRank(t) <= rank {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

func activityLevelsUpTo(max string) bson.A {
	rank := models.ActivityRank(max)
	levels := bson.A{""}
	for _, l := range []string{models.ActivityLow, models.ActivityModerate, models.ActivityHigh} {
		if models.ActivityRank(l) <= rank {
			levels = append(levels, l)
		}
	}
	return levels
}
