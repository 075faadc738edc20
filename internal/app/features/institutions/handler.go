// internal/app/features/institutions/handler.go
package institutions

import (
	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for institution onboarding:
// self-service signup, root-admin review, and direct creation.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	Institutions *institutionstore.Store
	Users        *userstore.Store
	Mail         mailer.Sender

	SiteName        string
	BaseURL         string
	RootAdminEmails []string // notified when a signup arrives
}

// NewHandler constructs an institutions handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, mail mailer.Sender,
	siteName, baseURL string, rootAdminEmails []string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:             logger,
		ErrLog:          errLog,
		Institutions:    institutionstore.New(db),
		Users:           userstore.New(db),
		Mail:            mail,
		SiteName:        siteName,
		BaseURL:         baseURL,
		RootAdminEmails: rootAdminEmails,
	}
}
