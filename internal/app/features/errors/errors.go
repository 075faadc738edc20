// internal/app/features/errors/errors.go
//
// JSON error responses for all feature handlers, plus the ErrorLogger that
// keeps full server-side detail out of user-visible bodies.
package errors

import (
	"net/http"

	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Render writes err as a JSON error response using its kind's status code.
// Unclassified errors are treated as internal.
func Render(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	webjson.Write(w, ae.HTTPStatus(), errorBody{Error: ae.UserMessage(), Kind: string(ae.Kind)})
}

// RenderUnauthorized writes a 401.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	Render(w, r, apperr.Unauthorized())
}

// RenderForbidden writes a 403 with the given message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	Render(w, r, apperr.Forbidden(msg))
}

// RenderValidation writes a 400 with the given message.
func RenderValidation(w http.ResponseWriter, r *http.Request, msg string) {
	Render(w, r, apperr.Validation("%s", msg))
}

// ErrorLogger logs internal errors with full detail while responding
// generically. Handlers use it for unexpected database and system failures.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs the underlying error and renders a generic 500.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, what string, err error) {
	el.log.Error(what,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Render(w, r, apperr.Internal(err))
}
