package httpapi

import (
	"fmt"
	"net/http"

	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/perm"
)

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
}

type createThreadRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

type addProjectMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (a *API) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/v1/projects/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	projectID := parts[0]

	if len(parts) == 1 {
		a.handleProject(w, r, projectID)
		return
	}

	switch parts[1] {
	case "threads":
		if len(parts) != 2 {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.handleProjectThreads(w, r, projectID)
	case "members":
		switch len(parts) {
		case 2:
			a.handleProjectMembers(w, r, projectID)
		case 3:
			a.handleProjectMember(w, r, projectID, parts[2])
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleProject(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		project, err := a.svc.GetProject(r.Context(), actorID(r), projectID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodPatch:
		var req updateProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.UpdateProject(r.Context(), actorID(r), projectID, feedback.ProjectPatch{
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := a.svc.DeleteProject(r.Context(), actorID(r), projectID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleProjectThreads(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		filters := feedback.ThreadFilters{
			Status: feedback.ThreadStatus(r.URL.Query().Get("status")),
			SortBy: r.URL.Query().Get("sort"),
		}
		threads, err := a.svc.ListThreads(r.Context(), actorID(r), projectID, filters)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
	case http.MethodPost:
		var req createThreadRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		lang := req.Language
		if lang == "" {
			lang = preferredLanguage(r)
		}
		thread, err := a.svc.CreateThread(r.Context(), actorID(r), projectID, req.Title, req.Content, lang)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/threads/%s", thread.ID))
		writeJSON(w, http.StatusCreated, thread)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectMembers(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		members, err := a.svc.ListProjectMembers(r.Context(), actorID(r), projectID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	case http.MethodPost:
		var req addProjectMemberRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.svc.AddProjectMember(r.Context(), actorID(r), projectID, req.UserID, perm.ProjectRole(req.Role)); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"status": "added"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectMember(w http.ResponseWriter, r *http.Request, projectID, userID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.svc.RemoveProjectMember(r.Context(), actorID(r), projectID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePublicProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	projects, err := a.svc.ListPublicProjects(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}
