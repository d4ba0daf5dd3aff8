package httpapi

import (
	"fmt"
	"net/http"

	"lingoboard.org/internal/feedback"
)

type updateThreadRequest struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	Status         *string `json:"status"`
	PriorityWeight *int    `json:"priority_weight"`
	AssignedTo     *string `json:"assigned_to"`
}

type createCommentRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (a *API) handleThreadScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/v1/threads/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	threadID := parts[0]

	if len(parts) == 1 {
		a.handleThread(w, r, threadID)
		return
	}
	if len(parts) != 2 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch parts[1] {
	case "comments":
		a.handleThreadComments(w, r, threadID)
	case "translate":
		a.handleThreadTranslate(w, r, threadID)
	case "original":
		a.handleThreadToggleOriginal(w, r, threadID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleThread(w http.ResponseWriter, r *http.Request, threadID string) {
	switch r.Method {
	case http.MethodGet:
		thread, err := a.svc.GetThread(r.Context(), actorID(r), threadID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, thread)
	case http.MethodPatch:
		var req updateThreadRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		patch := feedback.ThreadPatch{
			Title:          req.Title,
			Content:        req.Content,
			PriorityWeight: req.PriorityWeight,
			AssignedTo:     req.AssignedTo,
		}
		if req.Status != nil {
			status := feedback.ThreadStatus(*req.Status)
			patch.Status = &status
		}
		thread, err := a.svc.UpdateThread(r.Context(), actorID(r), threadID, patch)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, thread)
	case http.MethodDelete:
		if err := a.svc.DeleteThread(r.Context(), actorID(r), threadID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleThreadComments(w http.ResponseWriter, r *http.Request, threadID string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := a.svc.ListComments(r.Context(), actorID(r), threadID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
	case http.MethodPost:
		var req createCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		lang := req.Language
		if lang == "" {
			lang = preferredLanguage(r)
		}
		comment, err := a.svc.CreateComment(r.Context(), actorID(r), threadID, req.Content, lang)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/comments/%s", comment.ID))
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCommentScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/v1/comments/")
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	commentID := parts[0]

	switch r.Method {
	case http.MethodPatch:
		var req updateCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := a.svc.UpdateComment(r.Context(), actorID(r), commentID, req.Content)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	case http.MethodDelete:
		if err := a.svc.DeleteComment(r.Context(), actorID(r), commentID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, email := actorID(r), ""
	if p, ok := principalFrom(r); ok {
		email = p.Email
	}
	org, err := a.svc.AcceptInvitation(r.Context(), principal, email, req.Code)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}
