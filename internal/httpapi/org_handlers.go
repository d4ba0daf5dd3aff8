package httpapi

import (
	"fmt"
	"net/http"

	"lingoboard.org/internal/audit"
	"lingoboard.org/internal/perm"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type updateOrganizationRequest struct {
	Name string `json:"name"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createOrganizationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.svc.CreateOrganization(r.Context(), actorID(r), req.Name)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.created", map[string]any{"organization_id": org.ID})
		w.Header().Set("Location", fmt.Sprintf("/v1/organizations/%s", org.ID))
		writeJSON(w, http.StatusCreated, org)
	case http.MethodGet:
		orgs, err := a.svc.ListOrganizations(r.Context(), actorID(r))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganizationScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/v1/organizations/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	orgID := parts[0]

	if len(parts) == 1 {
		a.handleOrganization(w, r, orgID)
		return
	}

	switch parts[1] {
	case "members":
		switch len(parts) {
		case 2:
			a.handleOrgMembers(w, r, orgID)
		case 3:
			a.handleOrgMember(w, r, orgID, parts[2])
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
	case "projects":
		if len(parts) != 2 {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.handleOrgProjects(w, r, orgID)
	case "invitations":
		if len(parts) != 2 {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.handleOrgInvitations(w, r, orgID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleOrganization(w http.ResponseWriter, r *http.Request, orgID string) {
	switch r.Method {
	case http.MethodGet:
		org, err := a.svc.GetOrganization(r.Context(), actorID(r), orgID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPatch:
		var req updateOrganizationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.svc.UpdateOrganization(r.Context(), actorID(r), orgID, req.Name)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if err := a.svc.DeleteOrganization(r.Context(), actorID(r), orgID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.deleted", map[string]any{"organization_id": orgID})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleOrgMembers(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	members, err := a.svc.ListOrgMembers(r.Context(), actorID(r), orgID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (a *API) handleOrgMember(w http.ResponseWriter, r *http.Request, orgID, userID string) {
	switch r.Method {
	case http.MethodPatch:
		var req updateMemberRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.svc.UpdateOrgMemberRole(r.Context(), actorID(r), orgID, userID, perm.OrgRole(req.Role)); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.member.role_updated", map[string]any{
			"organization_id": orgID,
			"member_id":       userID,
			"role":            req.Role,
		})
		writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
	case http.MethodDelete:
		if err := a.svc.RemoveOrgMember(r.Context(), actorID(r), orgID, userID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.member.removed", map[string]any{
			"organization_id": orgID,
			"member_id":       userID,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleOrgProjects(w http.ResponseWriter, r *http.Request, orgID string) {
	switch r.Method {
	case http.MethodGet:
		projects, err := a.svc.ListProjects(r.Context(), actorID(r), orgID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	case http.MethodPost:
		var req createProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.CreateProject(r.Context(), actorID(r), orgID, req.Name, req.Description, req.Public)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/v1/projects/%s", project.ID))
		writeJSON(w, http.StatusCreated, project)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrgInvitations(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req createInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	inv, err := a.svc.CreateInvitation(r.Context(), actorID(r), orgID, req.Email, perm.OrgRole(req.Role))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.invitation.created", map[string]any{
		"organization_id": orgID,
		"invitation_id":   inv.ID,
		"role":            string(inv.Role),
	})
	writeJSON(w, http.StatusCreated, inv)
}
