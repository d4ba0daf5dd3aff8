package feedback

import (
	"context"
	"time"

	"lingoboard.org/internal/perm"
)

// OrganizationStore persists organizations.
type OrganizationStore interface {
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id string) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Organization, error)
}

// ProjectStore persists projects.
type ProjectStore interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindBySlug(ctx context.Context, slug string) (*Project, error)
	ListByOrg(ctx context.Context, organizationID string) ([]*Project, error)
	ListPublic(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*Project, error)
	Delete(ctx context.Context, id string) error
}

// ThreadStore persists threads. Update applies the whole patch atomically.
type ThreadStore interface {
	Create(ctx context.Context, t *Thread) error
	FindByID(ctx context.Context, id string) (*Thread, error)
	ListByProject(ctx context.Context, projectID string, f ThreadFilters) ([]*Thread, error)
	Update(ctx context.Context, id string, patch ThreadPatch) (*Thread, error)
	Delete(ctx context.Context, id string) error
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, c *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	ListByThread(ctx context.Context, threadID string) ([]*Comment, error)
	UpdateContent(ctx context.Context, id, content string) (*Comment, error)
	Delete(ctx context.Context, id string) error
}

// InvitationStore persists invite codes.
type InvitationStore interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByCode(ctx context.Context, code string) (*Invitation, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

// MembershipStore writes membership rows; the embedded perm.RoleStore is the
// read side the permission resolver queries.
type MembershipStore interface {
	perm.RoleStore

	AddOrgMember(ctx context.Context, organizationID, userID string, role perm.OrgRole) error
	UpdateOrgMemberRole(ctx context.Context, organizationID, userID string, role perm.OrgRole) error
	RemoveOrgMember(ctx context.Context, organizationID, userID string) error
	ListOrgMembers(ctx context.Context, organizationID string) ([]*perm.OrgMembership, error)

	AddProjectMember(ctx context.Context, projectID, userID string, role perm.ProjectRole) error
	RemoveProjectMember(ctx context.Context, projectID, userID string) error
	ListProjectMembers(ctx context.Context, projectID string) ([]*perm.ProjectMembership, error)
}
