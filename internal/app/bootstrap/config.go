// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for FellowHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FELLOWHUB_MONGO_URI, FELLOWHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fellowhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "fellowhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Site identity
	{Name: "site_name", Default: "FellowHub", Desc: "Site display name used in emails"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks and email links"},

	// Root administration
	{Name: "root_admin_emails", Default: "", Desc: "Comma-separated Google emails promoted to rootadmin on sign-in"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@fellowhub.org", Desc: "From email address"},
	{Name: "mail_from_name", Default: "FellowHub", Desc: "From display name"},

	// Cohort lifecycle reconciliation
	{Name: "reconcile_interval", Default: "1h", Desc: "Cohort lifecycle sweep interval (e.g., 30m, 1h)"},
	{Name: "cron_secret", Default: "", Desc: "Shared secret for POST /cohorts/reconcile (X-Cron-Secret header)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FELLOWHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		SiteName: appValues.String("site_name"),
		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),

		RootAdminEmails: splitEmails(appValues.String("root_admin_emails")),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		ReconcileInterval: appValues.Duration("reconcile_interval", time.Hour),
		CronSecret:        appValues.String("cron_secret"),
	}

	return coreCfg, appCfg, nil
}

// splitEmails parses a comma-separated address list, trimming whitespace
// and lowercasing so later comparisons are exact.
func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if e := strings.ToLower(strings.TrimSpace(part)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// FellowHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and requires the Google
// OAuth client since every sign-in goes through Google.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
			return fmt.Errorf("google_client_id and google_client_secret are required in production")
		}
		if appCfg.CronSecret == "" {
			logger.Warn("cron_secret is empty; the reconcile endpoint accepts admin sessions only")
		}
	}

	if appCfg.ReconcileInterval < time.Minute {
		return fmt.Errorf("reconcile_interval must be at least 1m, got %s", appCfg.ReconcileInterval)
	}

	return nil
}
