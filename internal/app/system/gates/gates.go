// Package gates provides authorization gate functions for HTTP handlers.
//
// Route groups apply coarse checks via auth.RequireSignedIn / RequireRole;
// gates cover handlers that need a different check than their route group,
// and return the caller's identity so handlers don't re-derive it. Checks
// that depend on a specific entity (does this cohort belong to the caller's
// institution?) stay in the handlers, expressed as institution-scoped store
// lookups.
package gates

import (
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the outcome of a gate check.
type Result struct {
	Role          string
	Name          string
	UserID        primitive.ObjectID
	InstitutionID primitive.ObjectID
	OK            bool
}

// RequireAuth ensures a user is authenticated.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	instID, _ := authz.InstitutionID(r)
	return Result{Role: role, Name: name, UserID: uid, InstitutionID: instID, OK: true}
}

// RequireAdmin ensures the caller is an institution admin with an approved
// institution attached. Every admin operation re-verifies both role and
// institution ownership here rather than trusting anything client-supplied.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if role != "admin" && role != "rootadmin" {
		uierrors.RenderForbidden(w, r, "Admin access required.")
		return Result{OK: false}
	}
	instID, has := authz.InstitutionID(r)
	if !has {
		uierrors.RenderForbidden(w, r, "Your account is not linked to an approved institution.")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, InstitutionID: instID, OK: true}
}

// RequireRootAdmin ensures the caller is the platform root admin.
func RequireRootAdmin(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if role != "rootadmin" {
		uierrors.RenderForbidden(w, r, "Root admin access required.")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}
