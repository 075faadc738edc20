// internal/app/features/messages/handler.go
package messages

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	cohortstore "github.com/dalemusser/fellowhub/internal/app/store/cohorts"
	conversationstore "github.com/dalemusser/fellowhub/internal/app/store/conversations"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for messaging: cohort-wide group
// threads and direct threads between two members of the same institution.
// Delivery is polling-based; clients pass a `since` cursor.
type Handler struct {
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Conversations *conversationstore.Store
	Cohorts       *cohortstore.Store
	Users         *userstore.Store
}

// NewHandler constructs a messages handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		ErrLog:        errLog,
		Conversations: conversationstore.New(db),
		Cohorts:       cohortstore.New(db),
		Users:         userstore.New(db),
	}
}
