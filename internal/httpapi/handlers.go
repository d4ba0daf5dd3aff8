package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"lingoboard.org/internal/auth"
	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/obs"
	"lingoboard.org/internal/translate"
)

// ReadyProbe reports whether downstream dependencies answer (DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth, feedback and translation services.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	svc        *feedback.Service
	sessions   *translate.Registry
	stream     *notify.Stream
	readyProbe ReadyProbe
	version    string
}

// Config wires the API's collaborators. Sessions and Stream may be nil, in
// which case the translation and events endpoints answer 503.
type Config struct {
	Auth       *auth.Service
	Feedback   *feedback.Service
	Sessions   *translate.Registry
	Stream     *notify.Stream
	ReadyProbe ReadyProbe
	Version    string
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       cfg.Auth,
		svc:        cfg.Feedback,
		sessions:   cfg.Sessions,
		stream:     cfg.Stream,
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// accounts and sessions
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)

	// organizations and everything scoped under one
	a.mux.HandleFunc("/v1/organizations", a.handleOrganizations)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationScoped)

	// projects
	a.mux.HandleFunc("/v1/projects/", a.handleProjectScoped)

	// threads and comments
	a.mux.HandleFunc("/v1/threads/translate-batch", a.handleBatchTranslate)
	a.mux.HandleFunc("/v1/threads/", a.handleThreadScoped)
	a.mux.HandleFunc("/v1/comments/", a.handleCommentScoped)

	// invitations
	a.mux.HandleFunc("/v1/invitations/accept", a.handleAcceptInvitation)

	// free-text translation
	a.mux.HandleFunc("/v1/translate/text", a.handleTranslateText)

	// live events
	a.mux.HandleFunc("/v1/events", a.Stream)

	// public, unauthenticated surface
	a.mux.HandleFunc("/v1/public/projects", a.handlePublicProjects)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the complete handler chain: metrics instrumentation around
// bearer authentication around the mux.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "lingoboard-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "lingoboard-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
