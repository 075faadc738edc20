// Package txn wraps Mongo multi-document transactions with a fallback for
// deployments that do not support them (standalone servers without a
// replica set). The fellow/cohort membership edge is written through
// WithTransaction so its two sides can never be committed independently
// when the server supports sessions; on standalone servers the writes run
// sequentially, matching the source system's behavior.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone server, no replica set).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	if cmdErr, ok := err.(mongo.CommandError); ok {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
		return containsTxnKeywords(cmdErr.Message)
	}

	return containsTxnKeywords(err.Error())
}

// containsTxnKeywords matches the error-message pairs Mongo emits when
// sessions/transactions are unavailable.
func containsTxnKeywords(msg string) bool {
	m := strings.ToLower(msg)
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"transaction", "session"},
		{"session", "not supported"},
		{"illegal operation", "transaction"},
	}
	for _, p := range pairs {
		if strings.Contains(m, p[0]) && strings.Contains(m, p[1]) {
			return true
		}
	}
	return false
}

// WithTransaction runs fn inside a Mongo transaction when the server
// supports it. If starting or committing fails because transactions are
// unsupported, fn is re-run outside a session (sequential writes) and a
// warning is logged.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable; running writes sequentially", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable; running writes sequentially", zap.Error(err))
		return fn(ctx)
	}
	return err
}
