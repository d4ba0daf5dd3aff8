package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lingoboard.org/internal/ids"
	"lingoboard.org/internal/perm"
)

// inviteTTL is how long an invitation code stays redeemable.
const inviteTTL = 7 * 24 * time.Hour

// CreateInvitation issues a single-use, email-bound code for joining an
// organization with the given role. Inviting an owner is not possible;
// ownership moves only through transfer.
func (s *Service) CreateInvitation(ctx context.Context, actorID, organizationID, email string, role perm.OrgRole) (*Invitation, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	switch role {
	case perm.OrgRoleAdmin, perm.OrgRoleMember:
	default:
		return nil, fmt.Errorf("%w: cannot invite as role %q", ErrInvalidInput, role)
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, org.ID, "")
	if !set.Has(perm.OrgInviteGenerate) {
		return nil, ErrPermissionDenied
	}

	now := s.now().UTC()
	inv := &Invitation{
		ID:             ids.New(),
		OrganizationID: org.ID,
		Email:          email,
		Code:           uuid.NewString(),
		Role:           role,
		ExpiresAt:      now.Add(inviteTTL),
		CreatedAt:      now,
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// AcceptInvitation redeems a code on behalf of the acting user. The code must
// be unused, unexpired, and issued to the actor's email; on success the actor
// joins the organization with the invited role and the code is burned.
func (s *Service) AcceptInvitation(ctx context.Context, actorID, actorEmail, code string) (*Organization, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	inv, err := s.invites.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.UsedAt != nil {
		return nil, ErrInviteUsed
	}
	now := s.now().UTC()
	if now.After(inv.ExpiresAt) {
		return nil, ErrInviteExpired
	}
	if !strings.EqualFold(strings.TrimSpace(actorEmail), inv.Email) {
		return nil, ErrInviteEmailMismatch
	}
	existing, err := s.members.OrgMembership(ctx, actorID, inv.OrganizationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}
	org, err := s.orgs.FindByID(ctx, inv.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}

	if err := s.members.AddOrgMember(ctx, inv.OrganizationID, actorID, inv.Role); err != nil {
		return nil, err
	}
	if err := s.invites.MarkUsed(ctx, inv.ID, now); err != nil {
		return nil, err
	}
	return org, nil
}
