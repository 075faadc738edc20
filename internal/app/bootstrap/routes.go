// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	applicationsfeature "github.com/dalemusser/fellowhub/internal/app/features/applications"
	authgooglefeature "github.com/dalemusser/fellowhub/internal/app/features/authgoogle"
	cohortsfeature "github.com/dalemusser/fellowhub/internal/app/features/cohorts"
	contentfeature "github.com/dalemusser/fellowhub/internal/app/features/content"
	errorsfeature "github.com/dalemusser/fellowhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/fellowhub/internal/app/features/health"
	institutionsfeature "github.com/dalemusser/fellowhub/internal/app/features/institutions"
	logoutfeature "github.com/dalemusser/fellowhub/internal/app/features/logout"
	messagesfeature "github.com/dalemusser/fellowhub/internal/app/features/messages"
	sessionsfeature "github.com/dalemusser/fellowhub/internal/app/features/sessions"
	userinfofeature "github.com/dalemusser/fellowhub/internal/app/features/userinfo"
	oauthstatestore "github.com/dalemusser/fellowhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/gcal"
	"github.com/dalemusser/fellowhub/internal/app/system/gdrive"
	"github.com/dalemusser/fellowhub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// FellowHub builds the session manager, the Google Calendar/Drive client
// factories, and the SMTP mailer, then mounts feature routers for every
// application area: Google sign-in, institutions, cohorts, applications,
// sessions, content, and messaging.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.FellowHubMongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role and institution changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Outbound email. All notices go through this sender; callers treat
	// delivery as best-effort.
	mail := mailer.NewSMTPSender(
		appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		appCfg.MailFrom, appCfg.MailFromName,
		logger,
	)

	// Google Workspace client factories. Each institution connects its own
	// Google account; the factories mint per-account services from stored
	// refresh tokens.
	calFactory := &gcal.Factory{ClientID: appCfg.GoogleClientID, ClientSecret: appCfg.GoogleClientSecret}
	driveFactory := &gdrive.Factory{ClientID: appCfg.GoogleClientID, ClientSecret: appCfg.GoogleClientSecret}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.FellowHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Google OAuth sign-in (and the workspace-connect variant admins use to
	// grant Calendar/Drive access).
	authHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog,
		oauthstatestore.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		appCfg.RootAdminEmails, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(authHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Current user.
	meHandler := userinfofeature.NewHandler(logger)
	r.Mount("/me", userinfofeature.Routes(meHandler, sessionMgr))

	// Institution onboarding and root-admin review.
	instHandler := institutionsfeature.NewHandler(db, errLog, mail,
		appCfg.SiteName, appCfg.BaseURL, appCfg.RootAdminEmails, logger)
	r.Mount("/institutions", institutionsfeature.Routes(instHandler, sessionMgr))

	// Cohort management and lifecycle reconciliation.
	cohortsHandler := cohortsfeature.NewHandler(db, errLog, driveFactory,
		cohortReconciler, appCfg.CronSecret, logger)
	r.Mount("/cohorts", cohortsfeature.Routes(cohortsHandler, sessionMgr))

	// Fellowship applications.
	appsHandler := applicationsfeature.NewHandler(deps.FellowHubMongoClient, db, errLog,
		mail, appCfg.SiteName, appCfg.BaseURL, logger)
	r.Mount("/applications", applicationsfeature.Routes(appsHandler, sessionMgr))

	// Session scheduling via Google Calendar.
	sessionsHandler := sessionsfeature.NewHandler(db, errLog, calFactory,
		mail, appCfg.SiteName, appCfg.BaseURL, logger)
	r.Mount("/sessions", sessionsfeature.Routes(sessionsHandler, sessionMgr))

	// Content distribution via Google Drive.
	contentHandler := contentfeature.NewHandler(db, errLog, driveFactory, logger)
	r.Mount("/contents", contentfeature.Routes(contentHandler, sessionMgr))

	// Messaging (polling-based).
	messagesHandler := messagesfeature.NewHandler(db, errLog, logger)
	r.Mount("/conversations", messagesfeature.Routes(messagesHandler, sessionMgr))

	return r, nil
}
