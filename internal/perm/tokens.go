package perm

// Permission tokens follow the resource:action[:qualifier] taxonomy. The
// qualifier distinguishes acting on resources the user authored (own) from
// arbitrary resources (any); the two are never conflated. Spellings are part
// of the external contract (audit log consumers match on them verbatim).
const (
	OrgView             = "org:view"
	OrgUpdate           = "org:update"
	OrgDelete           = "org:delete"
	OrgInviteGenerate   = "org:invite:generate"
	OrgMemberView       = "org:member:view"
	OrgMemberAdd        = "org:member:add"
	OrgMemberRemove     = "org:member:remove"
	OrgMemberRoleUpdate = "org:member:role:update"
	OrgOwnershipTransfer = "org:ownership:transfer"

	ProjectViewAll          = "project:view:all"
	ProjectViewAssigned     = "project:view:assigned"
	ProjectCreate           = "project:create"
	ProjectUpdate           = "project:update"
	ProjectDelete           = "project:delete"
	ProjectVisibilityUpdate = "project:visibility:update"
	ProjectMemberAdd        = "project:member:add"
	ProjectMemberRemove     = "project:member:remove"

	ThreadView           = "thread:view"
	ThreadCreate         = "thread:create"
	ThreadUpdateOwn      = "thread:update:own"
	ThreadUpdateAny      = "thread:update:any"
	ThreadStatusUpdate   = "thread:status:update"
	ThreadAssign         = "thread:assign"
	ThreadPriorityUpdate = "thread:priority:update"
	ThreadDeleteOwn      = "thread:delete:own"
	ThreadDeleteAny      = "thread:delete:any"

	LabelCreate = "label:create"
	LabelUpdate = "label:update"
	LabelDelete = "label:delete"

	CommentCreate    = "comment:create"
	CommentUpdateOwn = "comment:update:own"
	CommentUpdateAny = "comment:update:any"
	CommentDeleteOwn = "comment:delete:own"
	CommentDeleteAny = "comment:delete:any"

	BillingView   = "billing:view"
	BillingUpdate = "billing:update"
	BillingCancel = "billing:cancel"
)
