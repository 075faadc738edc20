// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, CORS, and request body limits. AppConfig is
// where everything specific to FellowHub lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: fellowhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Site identity, used in emails and responses
	SiteName string // Display name (e.g., FellowHub)
	BaseURL  string // e.g., "https://fellowhub.org" or "http://localhost:3000"

	// Root administration
	RootAdminEmails []string // Google accounts promoted to rootadmin on sign-in

	// Google OAuth / Workspace configuration
	GoogleClientID     string // OAuth2 client ID
	GoogleClientSecret string // OAuth2 client secret

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@fellowhub.org)
	MailFromName string // From display name (e.g., FellowHub)

	// Cohort lifecycle reconciliation
	ReconcileInterval time.Duration // Background sweep interval for date-driven transitions
	CronSecret        string        // Shared secret for the manual reconcile endpoint
}
