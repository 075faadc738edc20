// Package webjson provides the JSON request/response helpers shared by all
// feature handlers. Request bodies are decoded strictly: unknown or
// malformed fields are rejected before they reach workflow logic.
package webjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies; nothing in the API needs more.
const maxBodyBytes = 1 << 20

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode strictly parses the request body into dst. It returns a
// user-presentable error for malformed input.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var unmarshalErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &unmarshalErr):
			return fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("malformed request body: %v", err)
		}
	}
	// A second document in the body is malformed input, not extra data to ignore.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
