package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"unrelated error", errors.New("connection reset by peer"), false},
		{"command error code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"command error code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"command error code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other command error code", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"transaction on non replica set", errors.New("transaction failed because this is not a replica set member"), true},
		{"sessions unsupported", errors.New("session operations are not supported on this server"), true},
		{"single keyword is not enough", errors.New("transaction failed"), false},
		{"transaction in session state", errors.New("cannot start transaction in current session state"), true},
		{"illegal operation during transaction", errors.New("illegal operation during transaction"), true},
		{"case insensitive", errors.New("TRANSACTION FAILED on REPLICA SET"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// The enrollment workflow writes both sides of the fellow/cohort membership
// edge through WithTransaction. On a standalone test server the fallback
// path must still run the function and surface its result.
func TestWithTransaction_RunsFnOnAnyDeployment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	log := zap.NewNop()

	err := WithTransaction(ctx, db.Client(), log, func(ctx context.Context) error {
		if _, err := db.Collection("cohorts").InsertOne(ctx, bson.M{"name": "spring"}); err != nil {
			return err
		}
		_, err := db.Collection("users").InsertOne(ctx, bson.M{"full_name": "Fran Fellow"})
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	for _, coll := range []string{"cohorts", "users"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 1 {
			t.Errorf("%s: got %d documents, want 1", coll, n)
		}
	}
}

func TestWithTransaction_PropagatesFnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sentinel := errors.New("review already applied")
	err := WithTransaction(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want the callback's error", err)
	}
}
