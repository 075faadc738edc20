// Package authz provides request-scoped role and tenancy helpers on top of
// the auth session context.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fellowhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. ok=true guarantees a valid, authenticated user with a valid
// ObjectID; malformed session IDs fail closed.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// InstitutionID returns the caller's institution ObjectID, if any.
// Operations scoped to an institution must use this, never a
// client-supplied institution id.
func InstitutionID(r *http.Request) (primitive.ObjectID, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.InstitutionID == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(user.InstitutionID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// IsRootAdmin reports whether the current user is the platform root admin.
func IsRootAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "rootadmin"
}

// IsAdmin reports whether the current user is an institution admin.
// The root admin is also considered an admin for permission purposes.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "admin" || role == "rootadmin")
}

// IsFellow reports whether the current user is a fellow.
func IsFellow(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "fellow"
}
