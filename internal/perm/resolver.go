package perm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OrgMembership is a user's role row within an organization.
type OrgMembership struct {
	UserID         string
	OrganizationID string
	Role           OrgRole
}

// ProjectMembership is a user's role row within a project.
type ProjectMembership struct {
	UserID    string
	ProjectID string
	Role      ProjectRole
}

// RoleStore reads membership rows. A nil row with a nil error means the user
// has no membership in that scope, which is ordinary business logic and
// grants nothing; an error means the lookup itself failed.
type RoleStore interface {
	OrgMembership(ctx context.Context, userID, organizationID string) (*OrgMembership, error)
	ProjectMembership(ctx context.Context, userID, projectID string) (*ProjectMembership, error)
}

// Resolver computes the permission set for a user in an evaluation context.
type Resolver struct {
	store RoleStore
}

// NewResolver constructs a Resolver over the given role store.
func NewResolver(store RoleStore) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("perm: role store is required")
	}
	return &Resolver{store: store}, nil
}

// UserPermissions resolves the de-duplicated union of organization-level and
// project-level permissions for the (user, organization, project?) context.
// projectID may be empty, in which case only organization permissions apply.
//
// Missing memberships yield an empty contribution, not an error. A failing
// lookup returns an empty set together with the error so callers deny by
// default while surfacing the infrastructure failure separately.
func (r *Resolver) UserPermissions(ctx context.Context, userID, organizationID, projectID string) (Set, error) {
	userID = strings.TrimSpace(userID)
	organizationID = strings.TrimSpace(organizationID)
	if userID == "" || organizationID == "" {
		return Set{}, errors.New("perm: user_id and organization_id are required")
	}

	set := Set{}

	orgRow, err := r.store.OrgMembership(ctx, userID, organizationID)
	if err != nil {
		return Set{}, fmt.Errorf("perm: org membership lookup: %w", err)
	}
	if orgRow != nil {
		set = set.Union(OrgPermissions(orgRow.Role))
	}

	projectID = strings.TrimSpace(projectID)
	if projectID != "" {
		projRow, err := r.store.ProjectMembership(ctx, userID, projectID)
		if err != nil {
			return Set{}, fmt.Errorf("perm: project membership lookup: %w", err)
		}
		if projRow != nil {
			set = set.Union(ProjectPermissions(projRow.Role))
		}
	}

	return set, nil
}
