package feedback

import (
	"context"
	"fmt"
	"strings"

	"lingoboard.org/internal/ids"
	"lingoboard.org/internal/perm"
)

// CreateProject adds a project to an organization.
func (s *Service) CreateProject(ctx context.Context, actorID, organizationID, name, description string, public bool) (*Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, org.ID, "")
	if !set.Has(perm.ProjectCreate) {
		return nil, ErrPermissionDenied
	}

	slug := Slugify(name)
	if existing, err := s.projects.FindBySlug(ctx, slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrSlugTaken
	}

	now := s.now().UTC()
	p := &Project{
		ID:             ids.New(),
		OrganizationID: org.ID,
		Name:           name,
		Slug:           slug,
		Description:    strings.TrimSpace(description),
		Public:         public,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject loads a project; public projects are visible to anyone.
func (s *Service) GetProject(ctx context.Context, actorID, projectID string) (*Project, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Public {
		return p, nil
	}
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)
	if !set.Has(perm.ProjectViewAll) && !set.Has(perm.ProjectViewAssigned) {
		return nil, ErrPermissionDenied
	}
	return p, nil
}

// ListProjects lists an organization's projects. Holders of project:view:all
// see everything; holders of only project:view:assigned see the projects they
// have a membership row in.
func (s *Service) ListProjects(ctx context.Context, actorID, organizationID string) ([]*Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, org.ID, "")
	all, err := s.projects.ListByOrg(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if set.Has(perm.ProjectViewAll) {
		return all, nil
	}

	// Fall back to per-project membership for assigned-only viewers.
	visible := make([]*Project, 0, len(all))
	for _, p := range all {
		if p.Public {
			visible = append(visible, p)
			continue
		}
		m, err := s.members.ProjectMembership(ctx, actorID, p.ID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 && !set.Has(perm.ProjectViewAssigned) {
		return nil, ErrPermissionDenied
	}
	return visible, nil
}

// ListPublicProjects returns every public project, no authentication needed.
func (s *Service) ListPublicProjects(ctx context.Context) ([]*Project, error) {
	return s.projects.ListPublic(ctx)
}

// UpdateProject applies a partial update. Name and description need
// project:update; flipping Public needs project:visibility:update. All
// present groups must be allowed before the single store write.
func (s *Service) UpdateProject(ctx context.Context, actorID, projectID string, patch ProjectPatch) (*Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)

	if patch.Name != nil || patch.Description != nil {
		if !set.Has(perm.ProjectUpdate) {
			return nil, ErrPermissionDenied
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", ErrInvalidInput)
		}
	}
	if patch.Public != nil {
		if !set.Has(perm.ProjectVisibilityUpdate) {
			return nil, ErrPermissionDenied
		}
	}
	return s.projects.Update(ctx, projectID, patch)
}

// DeleteProject removes a project and, via the store, its threads.
func (s *Service) DeleteProject(ctx context.Context, actorID, projectID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)
	if !set.Has(perm.ProjectDelete) {
		return ErrPermissionDenied
	}
	return s.projects.Delete(ctx, projectID)
}

// AddProjectMember grants a user a role inside a project.
func (s *Service) AddProjectMember(ctx context.Context, actorID, projectID, userID string, role perm.ProjectRole) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	switch role {
	case perm.ProjectRoleMaintainer, perm.ProjectRoleContributor:
	default:
		return fmt.Errorf("%w: unknown project role %q", ErrInvalidInput, role)
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)
	if !set.Has(perm.ProjectMemberAdd) {
		return ErrPermissionDenied
	}
	existing, err := s.members.ProjectMembership(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyMember
	}
	return s.members.AddProjectMember(ctx, projectID, userID, role)
}

// RemoveProjectMember revokes a user's project membership.
func (s *Service) RemoveProjectMember(ctx context.Context, actorID, projectID, userID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)
	if !set.Has(perm.ProjectMemberRemove) {
		return ErrPermissionDenied
	}
	existing, err := s.members.ProjectMembership(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return s.members.RemoveProjectMember(ctx, projectID, userID)
}

// ListProjectMembers returns a project's membership rows.
func (s *Service) ListProjectMembers(ctx context.Context, actorID, projectID string) ([]*perm.ProjectMembership, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, p.OrganizationID, p.ID)
	if !set.Has(perm.OrgMemberView) {
		return nil, ErrPermissionDenied
	}
	return s.members.ListProjectMembers(ctx, projectID)
}

// Slugify lowercases a name and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
