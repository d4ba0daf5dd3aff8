package perm

import (
	"context"
	"errors"
	"testing"
)

type stubRoleStore struct {
	orgFn     func(ctx context.Context, userID, organizationID string) (*OrgMembership, error)
	projectFn func(ctx context.Context, userID, projectID string) (*ProjectMembership, error)
}

func (s *stubRoleStore) OrgMembership(ctx context.Context, userID, organizationID string) (*OrgMembership, error) {
	if s.orgFn != nil {
		return s.orgFn(ctx, userID, organizationID)
	}
	return nil, nil
}

func (s *stubRoleStore) ProjectMembership(ctx context.Context, userID, projectID string) (*ProjectMembership, error) {
	if s.projectFn != nil {
		return s.projectFn(ctx, userID, projectID)
	}
	return nil, nil
}

func TestNoMembershipYieldsEmptySet(t *testing.T) {
	r, err := NewResolver(&stubRoleStore{})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	set, err := r.UserPermissions(context.Background(), "u1", "org1", "")
	if err != nil {
		t.Fatalf("expected no error for missing membership, got %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set.Tokens())
	}
}

func TestOrgAndProjectUnion(t *testing.T) {
	store := &stubRoleStore{
		orgFn: func(_ context.Context, userID, orgID string) (*OrgMembership, error) {
			return &OrgMembership{UserID: userID, OrganizationID: orgID, Role: OrgRoleMember}, nil
		},
		projectFn: func(_ context.Context, userID, projectID string) (*ProjectMembership, error) {
			if projectID != "p1" {
				return nil, nil
			}
			return &ProjectMembership{UserID: userID, ProjectID: projectID, Role: ProjectRoleMaintainer}, nil
		},
	}
	r, _ := NewResolver(store)

	set, err := r.UserPermissions(context.Background(), "u1", "org1", "p1")
	if err != nil {
		t.Fatalf("UserPermissions: %v", err)
	}
	if !set.Has(OrgView) {
		t.Fatalf("missing org-level token")
	}
	if !set.Has(ThreadStatusUpdate) {
		t.Fatalf("missing project-level maintainer token")
	}
}

func TestProjectContextIsolation(t *testing.T) {
	// Maintainer on p1 must not leak grants when evaluated against p2.
	store := &stubRoleStore{
		orgFn: func(_ context.Context, userID, orgID string) (*OrgMembership, error) {
			return &OrgMembership{UserID: userID, OrganizationID: orgID, Role: OrgRoleMember}, nil
		},
		projectFn: func(_ context.Context, userID, projectID string) (*ProjectMembership, error) {
			if projectID == "p1" {
				return &ProjectMembership{UserID: userID, ProjectID: projectID, Role: ProjectRoleMaintainer}, nil
			}
			return nil, nil
		},
	}
	r, _ := NewResolver(store)

	set, err := r.UserPermissions(context.Background(), "u1", "org1", "p2")
	if err != nil {
		t.Fatalf("UserPermissions: %v", err)
	}
	if set.Has(ThreadStatusUpdate) || set.Has(ThreadUpdateAny) {
		t.Fatalf("p1 maintainer grants leaked into p2 context: %v", set.Tokens())
	}
	if !set.Has(ThreadUpdateOwn) {
		t.Fatalf("org member tokens should still apply")
	}
}

func TestLookupFailureDeniesWithError(t *testing.T) {
	infra := errors.New("connection refused")
	store := &stubRoleStore{
		orgFn: func(_ context.Context, _, _ string) (*OrgMembership, error) {
			return nil, infra
		},
	}
	r, _ := NewResolver(store)

	set, err := r.UserPermissions(context.Background(), "u1", "org1", "")
	if !errors.Is(err, infra) {
		t.Fatalf("expected wrapped infrastructure error, got %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("failed lookup must grant zero permissions, got %v", set.Tokens())
	}
}

func TestBlankContextRejected(t *testing.T) {
	r, _ := NewResolver(&stubRoleStore{})
	if _, err := r.UserPermissions(context.Background(), " ", "org1", ""); err == nil {
		t.Fatalf("expected error for blank user id")
	}
	if _, err := r.UserPermissions(context.Background(), "u1", "", ""); err == nil {
		t.Fatalf("expected error for blank organization id")
	}
}
