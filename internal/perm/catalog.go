package perm

// OrgRole is an organization-scoped role assigned by the membership store.
type OrgRole string

// ProjectRole is a project-scoped role assigned by the membership store.
type ProjectRole string

const (
	OrgRoleOwner  OrgRole = "owner"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleMember OrgRole = "member"

	ProjectRoleMaintainer  ProjectRole = "maintainer"
	ProjectRoleContributor ProjectRole = "contributor"
)

// The catalog encodes the privilege nesting directly: each higher role is the
// lower role's tokens plus its extras. member and contributor never hold
// :any-qualified tokens. Billing mutation and ownership transfer stay
// owner-exclusive even though admins hold billing:view.
var (
	memberTokens = []string{
		OrgView,
		OrgMemberView,
		ProjectViewAssigned,
		ThreadView,
		ThreadCreate,
		ThreadUpdateOwn,
		ThreadDeleteOwn,
		CommentCreate,
		CommentUpdateOwn,
		CommentDeleteOwn,
	}

	adminTokens = append([]string{
		OrgUpdate,
		OrgInviteGenerate,
		OrgMemberAdd,
		OrgMemberRemove,
		OrgMemberRoleUpdate,
		ProjectViewAll,
		ProjectCreate,
		ProjectUpdate,
		ProjectDelete,
		ProjectVisibilityUpdate,
		ProjectMemberAdd,
		ProjectMemberRemove,
		ThreadUpdateAny,
		ThreadStatusUpdate,
		ThreadAssign,
		ThreadPriorityUpdate,
		ThreadDeleteAny,
		LabelCreate,
		LabelUpdate,
		LabelDelete,
		CommentUpdateAny,
		CommentDeleteAny,
		BillingView,
	}, memberTokens...)

	ownerTokens = append([]string{
		OrgDelete,
		OrgOwnershipTransfer,
		BillingUpdate,
		BillingCancel,
	}, adminTokens...)

	contributorTokens = []string{
		ThreadView,
		ThreadCreate,
		ThreadUpdateOwn,
		ThreadDeleteOwn,
		CommentCreate,
		CommentUpdateOwn,
		CommentDeleteOwn,
	}

	maintainerTokens = append([]string{
		ProjectUpdate,
		ProjectMemberAdd,
		ProjectMemberRemove,
		ThreadUpdateAny,
		ThreadStatusUpdate,
		ThreadAssign,
		ThreadPriorityUpdate,
		ThreadDeleteAny,
		LabelCreate,
		LabelUpdate,
		LabelDelete,
		CommentUpdateAny,
		CommentDeleteAny,
	}, contributorTokens...)
)

// OrgPermissions returns the permission set granted by an organization role.
// The returned set is a fresh copy on every call; callers merge into it
// freely without affecting the catalog. An unknown role grants nothing.
func OrgPermissions(role OrgRole) Set {
	switch role {
	case OrgRoleOwner:
		return NewSet(ownerTokens...)
	case OrgRoleAdmin:
		return NewSet(adminTokens...)
	case OrgRoleMember:
		return NewSet(memberTokens...)
	default:
		return Set{}
	}
}

// ProjectPermissions returns the permission set granted by a project role.
func ProjectPermissions(role ProjectRole) Set {
	switch role {
	case ProjectRoleMaintainer:
		return NewSet(maintainerTokens...)
	case ProjectRoleContributor:
		return NewSet(contributorTokens...)
	default:
		return Set{}
	}
}
