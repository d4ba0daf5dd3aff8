package feedback

import "errors"

var (
	// ErrUnauthenticated means no valid acting user; distinct from
	// ErrPermissionDenied so the HTTP layer can answer 401 vs 403.
	ErrUnauthenticated = errors.New("feedback: unauthenticated")

	// ErrNotFound means the referenced resource does not exist. Permission
	// failures are never downgraded to ErrNotFound.
	ErrNotFound = errors.New("feedback: not found")

	// ErrPermissionDenied means the actor is authenticated and the resource
	// exists, but the required permission token is absent.
	ErrPermissionDenied = errors.New("feedback: insufficient permissions")

	ErrInvalidInput = errors.New("feedback: invalid input")
	ErrSlugTaken    = errors.New("feedback: slug already taken")

	ErrInviteUsed          = errors.New("feedback: invitation already used")
	ErrInviteExpired       = errors.New("feedback: invitation expired")
	ErrInviteEmailMismatch = errors.New("feedback: invitation issued to a different email")
	ErrAlreadyMember       = errors.New("feedback: already a member")
)
