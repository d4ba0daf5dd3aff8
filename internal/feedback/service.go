package feedback

import (
	"context"
	"errors"
	"strings"
	"time"

	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/obs"
	"lingoboard.org/internal/perm"
)

// PermissionSource resolves the permission set for an evaluation context.
// Implemented by perm.Resolver; stubbed in tests.
type PermissionSource interface {
	UserPermissions(ctx context.Context, userID, organizationID, projectID string) (perm.Set, error)
}

// Config wires the service's collaborators. Events may be nil.
type Config struct {
	Organizations OrganizationStore
	Projects      ProjectStore
	Threads       ThreadStore
	Comments      CommentStore
	Invitations   InvitationStore
	Memberships   MembershipStore
	Permissions   PermissionSource
	Events        *notify.Stream
}

// Service implements the feedback domain operations. Every mutating
// operation runs the same gate: authenticated actor, resource exists,
// permission set resolved in the resource's context, required token(s)
// present — in that order, with no store write before the last step passes.
type Service struct {
	orgs     OrganizationStore
	projects ProjectStore
	threads  ThreadStore
	comments CommentStore
	invites  InvitationStore
	members  MembershipStore
	perms    PermissionSource
	events   *notify.Stream
	now      func() time.Time
}

// NewService constructs the feedback service.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Organizations == nil:
		return nil, errors.New("feedback: organization store is required")
	case cfg.Projects == nil:
		return nil, errors.New("feedback: project store is required")
	case cfg.Threads == nil:
		return nil, errors.New("feedback: thread store is required")
	case cfg.Comments == nil:
		return nil, errors.New("feedback: comment store is required")
	case cfg.Invitations == nil:
		return nil, errors.New("feedback: invitation store is required")
	case cfg.Memberships == nil:
		return nil, errors.New("feedback: membership store is required")
	case cfg.Permissions == nil:
		return nil, errors.New("feedback: permission source is required")
	}
	return &Service{
		orgs:     cfg.Organizations,
		projects: cfg.Projects,
		threads:  cfg.Threads,
		comments: cfg.Comments,
		invites:  cfg.Invitations,
		members:  cfg.Memberships,
		perms:    cfg.Permissions,
		events:   cfg.Events,
		now:      time.Now,
	}, nil
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// permissionsFor resolves the actor's set for the context. A failing lookup
// is an infrastructure error: it is logged and resolves to an empty set, so
// the caller's token check denies by default.
func (s *Service) permissionsFor(ctx context.Context, actorID, organizationID, projectID string) perm.Set {
	set, err := s.perms.UserPermissions(ctx, actorID, organizationID, projectID)
	if err != nil {
		obs.LogEvent(map[string]any{
			"level":           "error",
			"msg":             "permission lookup failed, denying",
			"user_id":         actorID,
			"organization_id": organizationID,
			"project_id":      projectID,
			"error":           err.Error(),
		})
		return perm.Set{}
	}
	return set
}

// ownershipToken picks the own- or any-qualified token based on whether the
// actor authored the resource. The gate itself never inspects the resource
// beyond this comparison; holding :own is only meaningful because the call
// site established authorship first.
func ownershipToken(actorID, authorID, ownToken, anyToken string) string {
	if actorID == authorID {
		return ownToken
	}
	return anyToken
}

func (s *Service) publish(evt notify.Event) {
	if s.events != nil {
		s.events.Publish(evt)
	}
}
