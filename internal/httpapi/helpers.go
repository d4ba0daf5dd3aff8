package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"lingoboard.org/internal/audit"
	"lingoboard.org/internal/auth"
	"lingoboard.org/internal/feedback"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// handleServiceError maps the feedback error taxonomy onto HTTP statuses.
// Unauthenticated and denied stay distinct, and denials are never downgraded
// to 404.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feedback.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, feedback.ErrPermissionDenied):
		_ = audit.LogEvent(r.Context(), "permission.denied", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, feedback.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, feedback.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, feedback.ErrSlugTaken),
		errors.Is(err, feedback.ErrAlreadyMember),
		errors.Is(err, feedback.ErrInviteUsed):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, feedback.ErrInviteExpired):
		writeError(w, r, http.StatusGone, err.Error())
	case errors.Is(err, feedback.ErrInviteEmailMismatch):
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "operation failed")
	}
}

// actorID is the authenticated user's id, or "" for anonymous requests. The
// service layer decides whether anonymous access is allowed per operation.
func actorID(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return p.UserID
	}
	return ""
}

func principalFrom(r *http.Request) (auth.Principal, bool) {
	return auth.PrincipalFromContext(r.Context())
}

// preferredLanguage is the authenticated user's locale; "en" for anonymous
// callers.
func preferredLanguage(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.PreferredLanguage != "" {
		return p.PreferredLanguage
	}
	return "en"
}

// pathParts splits the request path after the given prefix into its segments.
func pathParts(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
