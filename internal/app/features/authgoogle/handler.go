// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	institutionstore "github.com/dalemusser/fellowhub/internal/app/store/institutions"
	"github.com/dalemusser/fellowhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fellowhub/internal/app/store/users"
	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"github.com/dalemusser/fellowhub/internal/app/system/normalize"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	drive "google.golang.org/api/drive/v3"
)

// Handler handles Google OAuth authentication. Every account signs in
// through Google; there are no passwords. An admin can additionally run the
// flow with scope=workspace to grant calendar and storage access, which is
// stored as the institution's credential.
type Handler struct {
	Log          *zap.Logger
	SessionMgr   *auth.SessionManager
	ErrLog       *uierrors.ErrorLogger
	Users        *userstore.Store
	Institutions *institutionstore.Store
	StateStore   *oauthstate.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://fellowhub.example.com/auth/google/callback"

	// RootAdminEmails are promoted to the rootadmin role on sign-in.
	RootAdminEmails []string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	rootAdminEmails []string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:             logger,
		SessionMgr:      sessionMgr,
		ErrLog:          errLog,
		Users:           userstore.New(db),
		Institutions:    institutionstore.New(db),
		StateStore:      stateStore,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     baseURL + "/auth/google/callback",
		RootAdminEmails: rootAdminEmails,
	}
}

const workspaceScopePrefix = "ws:" // marks a workspace-connect state

// oauth2Config returns the Google OAuth2 configuration. With workspace=true
// the consent screen also asks for calendar and file scopes.
func (h *Handler) oauth2Config(workspace bool) *oauth2.Config {
	scopes := []string{
		"openid",
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
	if workspace {
		scopes = append(scopes, calendar.CalendarEventsScope, drive.DriveFileScope)
	}
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
| ?scope=workspace additionally requests calendar and storage access for      |
| connecting the institution's Google account.                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	workspace := r.URL.Query().Get("scope") == "workspace"
	if workspace {
		state = workspaceScopePrefix + state
	}
	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	// AccessTypeOffline + consent prompt so Google returns a refresh token,
	// which the calendar and storage integrations depend on.
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if workspace {
		opts = append(opts, oauth2.ApprovalForce)
	}
	url := h.oauth2Config(workspace).AuthCodeURL(state, opts...)

	h.Log.Debug("initiating Google OAuth flow",
		zap.Bool("workspace", workspace),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, upserts the user, applies   |
| root-admin promotion and workspace credential storage, creates the session. |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	workspace := strings.HasPrefix(state, workspaceScopePrefix)

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config(workspace).Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	user, err := h.Users.UpsertFromGoogle(ctx,
		googleUser.Email, googleUser.Name, googleUser.Picture, token.RefreshToken)
	if err != nil {
		h.Log.Error("failed to upsert user from Google profile", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if user, err = h.applyPromotions(ctx, user); err != nil {
		h.Log.Error("failed to apply role promotion", zap.Error(err),
			zap.String("user_id", user.ID.Hex()))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if workspace {
		h.storeWorkspaceCredential(ctx, user, token.RefreshToken)
	}

	h.createSessionAndRedirect(w, r, user, returnURL)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Promotion on sign-in                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// applyPromotions handles role changes keyed on the signed-in email:
// configured root admins get the rootadmin role, and the admin email of an
// approved institution gets the admin role attached to it. New users with
// neither stay in the transient empty role until they apply somewhere.
func (h *Handler) applyPromotions(ctx context.Context, u *models.User) (*models.User, error) {
	if u.Role == models.RoleRootAdmin {
		return u, nil
	}
	for _, email := range h.RootAdminEmails {
		if normalize.Email(email) == u.Email {
			if err := h.Users.SetRole(ctx, u.ID, models.RoleRootAdmin); err != nil {
				return u, err
			}
			u.Role = models.RoleRootAdmin
			h.Log.Info("root admin signed in", zap.String("user_id", u.ID.Hex()))
			return u, nil
		}
	}

	if u.Role == models.RoleAdmin && u.InstitutionID != nil {
		return u, nil
	}
	inst, err := h.Institutions.GetByAdminEmail(ctx, u.Email)
	if err == mongo.ErrNoDocuments {
		return u, nil
	}
	if err != nil {
		return u, err
	}
	if inst.Status != models.InstitutionApproved {
		return u, nil
	}
	if err := h.Users.SetInstitution(ctx, u.ID, inst.ID, models.RoleAdmin); err != nil {
		return u, err
	}
	u.Role = models.RoleAdmin
	u.InstitutionID = &inst.ID
	h.Log.Info("institution admin attached on sign-in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("institution_id", inst.ID.Hex()))
	return u, nil
}

// storeWorkspaceCredential records the refresh token as the institution's
// Google credential when an institution admin ran the workspace flow.
func (h *Handler) storeWorkspaceCredential(ctx context.Context, u *models.User, refreshToken string) {
	if u.Role != models.RoleAdmin || u.InstitutionID == nil {
		h.Log.Warn("workspace scope granted by a non-admin; credential not stored",
			zap.String("user_id", u.ID.Hex()))
		return
	}
	if err := h.Institutions.SetGoogleCredential(ctx, *u.InstitutionID, u.Email, refreshToken); err != nil {
		h.Log.Error("failed to store institution Google credential",
			zap.Error(err),
			zap.String("institution_id", u.InstitutionID.Hex()))
		return
	}
	h.Log.Info("institution Google credential stored",
		zap.String("institution_id", u.InstitutionID.Hex()),
		zap.Bool("refresh_token_present", refreshToken != ""))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Google profile fetch                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.InstitutionID != nil {
		su.InstitutionID = u.InstitutionID.Hex()
	}

	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.Log.Info("user signed in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
