// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible in one pass; any
problem fails startup, since the engine's concurrency guarantees lean
on the unique indexes being present.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureJars(ctx, db); err != nil {
		problems = append(problems, "jars: "+err.Error())
	}
	if err := ensureJarMembers(ctx, db); err != nil {
		problems = append(problems, "jar_members: "+err.Error())
	}
	if err := ensureIdeas(ctx, db); err != nil {
		problems = append(problems, "ideas: "+err.Error())
	}
	if err := ensureVoteSessions(ctx, db); err != nil {
		problems = append(problems, "vote_sessions: "+err.Error())
	}
	if err := ensureVotes(ctx, db); err != nil {
		problems = append(problems, "votes: "+err.Error())
	}
	if err := ensurePushSubscriptions(ctx, db); err != nil {
		problems = append(problems, "push_subscriptions: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOpt(p *bool) bool {
	return p != nil && *p
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	var errs []string
	for _, m := range desired {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if boolOpt(ex.Unique) == boolOpt(desiredUnique) && ex.Name == desiredName {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Options or name drifted. Drop and recreate under the desired
			// definition; partial filters cannot be patched in place either.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", sig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", boolOpt(desiredUnique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Streak-reminder scan: enabled flag first, then activity age.
		{
			Keys: bson.D{
				{Key: "streak_reminders_enabled", Value: 1},
				{Key: "last_activity_at", Value: 1},
			},
			Options: options.Index().SetName("idx_users_streak_lastactivity"),
		},
	})
}

func ensureJars(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("jars")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Jar names are unique with case/diacritics folded.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_jars_nameci"),
		},
	})
}

func ensureJarMembers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("jar_members")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One membership row per (jar, user).
		{
			Keys: bson.D{
				{Key: "jar_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_members_jar_user"),
		},
		// Roster listings filter by jar and status.
		{
			Keys: bson.D{
				{Key: "jar_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_members_jar_status"),
		},
	})
}

func ensureIdeas(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("ideas")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// The eligibility query's anchor: jar, approval status, unconsumed.
		{
			Keys: bson.D{
				{Key: "jar_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "selected_at", Value: 1},
			},
			Options: options.Index().SetName("idx_ideas_jar_status_selected"),
		},
		{
			Keys: bson.D{
				{Key: "jar_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_ideas_jar_created_id"),
		},
	})
}

func ensureVoteSessions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("vote_sessions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one active session per jar. The partial filter keeps
		// completed sessions out of the uniqueness scope, so history
		// accumulates freely.
		{
			Keys: bson.D{{Key: "jar_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_sessions_jar_active").
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		{
			Keys: bson.D{
				{Key: "jar_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_sessions_jar_created"),
		},
	})
}

func ensureVotes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("votes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One ballot per (session, user); the cast upsert rides on this.
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_votes_session_user"),
		},
	})
}

func ensurePushSubscriptions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("push_subscriptions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Registering the same endpoint twice refreshes keys instead of
		// duplicating the row.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "endpoint", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_subs_user_endpoint"),
		},
		// Dispatcher prune path deletes by endpoint alone.
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetName("idx_subs_endpoint"),
		},
	})
}
