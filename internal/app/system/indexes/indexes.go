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
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureInstitutions(ctx, db); err != nil {
		problems = append(problems, "institutions: "+err.Error())
	}
	if err := ensureCohorts(ctx, db); err != nil {
		problems = append(problems, "cohorts: "+err.Error())
	}
	if err := ensureApplications(ctx, db); err != nil {
		problems = append(problems, "applications: "+err.Error())
	}
	if err := ensureSessions(ctx, db); err != nil {
		problems = append(problems, "sessions: "+err.Error())
	}
	if err := ensureContents(ctx, db); err != nil {
		problems = append(problems, "contents: "+err.Error())
	}
	if err := ensureConversations(ctx, db); err != nil {
		problems = append(problems, "conversations: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
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

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	// Load existing indexes once per collection.
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
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
	}

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
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
		// Email must be unique across all users (global, cross-institution)
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Admin lookups per institution
		{
			Keys:    bson.D{{Key: "institution_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_inst_role"),
		},
	})
}

func ensureInstitutions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("institutions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce global uniqueness of institution names (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_insts_nameci"),
		},
		// Pending-review queue, oldest first
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_insts_status_created"),
		},
		// Owner lookup on sign-in
		{
			Keys:    bson.D{{Key: "admin_email", Value: 1}},
			Options: options.Index().SetName("idx_insts_adminemail"),
		},
	})
}

func ensureCohorts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("cohorts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate cohort names inside the same institution (folded via name_ci)
		{
			Keys:    bson.D{{Key: "institution_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_cohorts_inst_nameci"),
		},
		// Per-institution listings and the active/upcoming status scans
		{
			Keys:    bson.D{{Key: "institution_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_cohorts_inst_status_start"),
		},
		// Reconciliation scans across all institutions
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("idx_cohorts_status_end"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_cohorts_status_start"),
		},
	})
}

func ensureApplications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("applications")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One application per (fellow, institution), ever
		{
			Keys:    bson.D{{Key: "fellow_id", Value: 1}, {Key: "institution_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_apps_fellow_inst"),
		},
		// Review queue listings, newest first
		{
			Keys:    bson.D{{Key: "institution_id", Value: 1}, {Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_apps_inst_status_submitted"),
		},
		// A fellow's own applications
		{
			Keys:    bson.D{{Key: "fellow_id", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_apps_fellow_submitted"),
		},
	})
}

func ensureSessions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("sessions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Cohort schedule listings in chronological order
		{
			Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("idx_sessions_cohort_start"),
		},
		{
			Keys:    bson.D{{Key: "institution_id", Value: 1}},
			Options: options.Index().SetName("idx_sessions_inst"),
		},
	})
}

func ensureContents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contents")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "uploaded_at", Value: -1}},
			Options: options.Index().SetName("idx_contents_cohort_uploaded"),
		},
	})
}

func ensureConversations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("conversations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Idempotent thread creation: one document per canonical key
		{
			Keys:    bson.D{{Key: "participants_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_convs_key"),
		},
		// A user's conversation list, most recently active first
		{
			Keys:    bson.D{{Key: "participant_ids", Value: 1}, {Key: "last_message_at", Value: -1}},
			Options: options.Index().SetName("idx_convs_participant_lastmsg"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("messages")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Polling cursor: messages in a thread after a point in time
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_msgs_conv_created"),
		},
	})
}
