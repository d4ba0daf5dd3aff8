package httpapi

import (
	"net/http"
	"strings"

	"lingoboard.org/internal/auth"
	"lingoboard.org/internal/translate"
)

type translateThreadRequest struct {
	TargetLanguage string `json:"target_language"`
}

type batchTranslateRequest struct {
	ThreadIDs      []string `json:"thread_ids"`
	TargetLanguage string   `json:"target_language"`
}

type translateTextRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// session returns the caller's translation session, or nil with a 401/503
// already written. One session per authenticated user: its caches live until
// logout.
func (a *API) session(w http.ResponseWriter, r *http.Request) *translate.Session {
	if a.sessions == nil {
		writeError(w, r, http.StatusServiceUnavailable, "translation disabled")
		return nil
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return a.sessions.Session(principal.UserID)
}

// handleThreadTranslate renders one thread in the caller's target language.
// The session absorbs provider failures, so the response always carries
// renderable text plus a translated flag.
func (a *API) handleThreadTranslate(w http.ResponseWriter, r *http.Request, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req translateThreadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" {
		target = preferredLanguage(r)
	}

	sess := a.session(w, r)
	if sess == nil {
		return
	}
	thread, err := a.svc.GetThread(r.Context(), actorID(r), threadID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	fields := map[string]string{
		"title":   thread.Title,
		"content": thread.Content,
	}
	rendered := sess.Translate(r.Context(), fields, thread.OriginalLanguage, target)
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id":         thread.ID,
		"title":             rendered["title"],
		"content":           rendered["content"],
		"original_language": thread.OriginalLanguage,
		"target_language":   target,
		"pending":           sess.Translating(fields, thread.OriginalLanguage, target),
	})
}

// handleThreadToggleOriginal flips the show-original preference for one
// thread in the caller's session and reports the new state.
func (a *API) handleThreadToggleOriginal(w http.ResponseWriter, r *http.Request, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req translateThreadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" {
		target = preferredLanguage(r)
	}

	sess := a.session(w, r)
	if sess == nil {
		return
	}
	thread, err := a.svc.GetThread(r.Context(), actorID(r), threadID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	fields := map[string]string{
		"title":   thread.Title,
		"content": thread.Content,
	}
	showOriginal := sess.ToggleOriginal(fields, thread.OriginalLanguage, target)
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id":     thread.ID,
		"show_original": showOriginal,
	})
}

// handleBatchTranslate renders a set of threads in one target language with
// at most one provider call per distinct source language.
func (a *API) handleBatchTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req batchTranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.ThreadIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "thread_ids are required")
		return
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" {
		target = preferredLanguage(r)
	}

	sess := a.session(w, r)
	if sess == nil {
		return
	}

	inputs := make([]translate.Thread, 0, len(req.ThreadIDs))
	for _, id := range req.ThreadIDs {
		thread, err := a.svc.GetThread(r.Context(), actorID(r), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		inputs = append(inputs, translate.Thread{
			ID:               thread.ID,
			Title:            thread.Title,
			Content:          thread.Content,
			OriginalLanguage: thread.OriginalLanguage,
		})
	}

	results := sess.BatchTranslate(r.Context(), inputs, target)
	out := make([]map[string]any, 0, len(results))
	for _, t := range results {
		out = append(out, map[string]any{
			"thread_id": t.ID,
			"title":     t.Title,
			"content":   t.Content,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"target_language": target,
		"threads":         out,
	})
}

// handleTranslateText translates a free-text snippet (comment drafts, UI
// strings) through the session's text memo.
func (a *API) handleTranslateText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req translateTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, http.StatusBadRequest, "text is required")
		return
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" {
		target = preferredLanguage(r)
	}
	source := strings.TrimSpace(req.SourceLanguage)
	if source == "" {
		source = "en"
	}

	sess := a.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":            sess.TranslateText(r.Context(), req.Text, source, target),
		"source_language": source,
		"target_language": target,
	})
}
