package feedback

import (
	"context"
	"fmt"
	"strings"

	"lingoboard.org/internal/ids"
	"lingoboard.org/internal/perm"
)

// CreateOrganization registers a new organization with the creator as its
// owner.
func (s *Service) CreateOrganization(ctx context.Context, actorID, name string) (*Organization, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	slug := Slugify(name)
	if existing, err := s.orgs.FindBySlug(ctx, slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrSlugTaken
	}

	now := s.now().UTC()
	org := &Organization{
		ID:        ids.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	if err := s.members.AddOrgMember(ctx, org.ID, actorID, perm.OrgRoleOwner); err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization loads an organization for a member.
func (s *Service) GetOrganization(ctx context.Context, actorID, organizationID string) (*Organization, error) {
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
	if !set.Has(perm.OrgView) {
		return nil, ErrPermissionDenied
	}
	return org, nil
}

// UpdateOrganization renames an organization. The slug is regenerated from
// the new name.
func (s *Service) UpdateOrganization(ctx context.Context, actorID, organizationID, name string) (*Organization, error) {
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
	if !set.Has(perm.OrgUpdate) {
		return nil, ErrPermissionDenied
	}

	slug := Slugify(name)
	if slug != org.Slug {
		if existing, err := s.orgs.FindBySlug(ctx, slug); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, ErrSlugTaken
		}
	}
	org.Name = name
	org.Slug = slug
	org.UpdatedAt = s.now().UTC()
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes an organization; owner only.
func (s *Service) DeleteOrganization(ctx context.Context, actorID, organizationID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, org.ID, "")
	if !set.Has(perm.OrgDelete) {
		return ErrPermissionDenied
	}
	return s.orgs.Delete(ctx, organizationID)
}

// ListOrgMembers returns the organization's membership rows.
func (s *Service) ListOrgMembers(ctx context.Context, actorID, organizationID string) ([]*perm.OrgMembership, error) {
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
	if !set.Has(perm.OrgMemberView) {
		return nil, ErrPermissionDenied
	}
	return s.members.ListOrgMembers(ctx, organizationID)
}

// UpdateOrgMemberRole changes a member's organization role. Promoting to
// owner is ownership transfer: it demotes the current owner to admin and
// requires the owner-only transfer token rather than the ordinary role
// update token.
func (s *Service) UpdateOrgMemberRole(ctx context.Context, actorID, organizationID, userID string, role perm.OrgRole) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	switch role {
	case perm.OrgRoleOwner, perm.OrgRoleAdmin, perm.OrgRoleMember:
	default:
		return fmt.Errorf("%w: unknown organization role %q", ErrInvalidInput, role)
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}
	target, err := s.members.OrgMembership(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, org.ID, "")

	if role == perm.OrgRoleOwner {
		if !set.Has(perm.OrgOwnershipTransfer) {
			return ErrPermissionDenied
		}
		if err := s.members.UpdateOrgMemberRole(ctx, organizationID, userID, perm.OrgRoleOwner); err != nil {
			return err
		}
		if userID != actorID {
			return s.members.UpdateOrgMemberRole(ctx, organizationID, actorID, perm.OrgRoleAdmin)
		}
		return nil
	}

	if !set.Has(perm.OrgMemberRoleUpdate) {
		return ErrPermissionDenied
	}
	if target.Role == perm.OrgRoleOwner {
		// Demoting the owner happens only through ownership transfer.
		return ErrPermissionDenied
	}
	return s.members.UpdateOrgMemberRole(ctx, organizationID, userID, role)
}

// RemoveOrgMember removes a member. The owner cannot be removed; members may
// remove themselves (leave) without the member-remove token.
func (s *Service) RemoveOrgMember(ctx context.Context, actorID, organizationID, userID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}
	target, err := s.members.OrgMembership(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	if target.Role == perm.OrgRoleOwner {
		return ErrPermissionDenied
	}
	if userID != actorID {
		set := s.permissionsFor(ctx, actorID, org.ID, "")
		if !set.Has(perm.OrgMemberRemove) {
			return ErrPermissionDenied
		}
	}
	return s.members.RemoveOrgMember(ctx, organizationID, userID)
}

// ListOrganizations returns every organization the actor belongs to.
func (s *Service) ListOrganizations(ctx context.Context, actorID string) ([]*Organization, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	all, err := s.orgs.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]*Organization, 0, len(all))
	for _, org := range all {
		m, err := s.members.OrgMembership(ctx, actorID, org.ID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			mine = append(mine, org)
		}
	}
	return mine, nil
}
