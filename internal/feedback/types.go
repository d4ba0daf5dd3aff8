package feedback

import (
	"time"

	"lingoboard.org/internal/perm"
)

// ThreadStatus is the lifecycle state of a feedback thread.
type ThreadStatus string

const (
	StatusNew         ThreadStatus = "new"
	StatusUnderReview ThreadStatus = "under_review"
	StatusPlanned     ThreadStatus = "planned"
	StatusCompleted   ThreadStatus = "completed"
	StatusWontFix     ThreadStatus = "wont_fix"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ThreadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusPlanned, StatusCompleted, StatusWontFix:
		return true
	}
	return false
}

// Organization is the top-level tenant grouping projects and members.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project collects feedback threads inside an organization. Public projects
// are listed without authentication.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description,omitempty"`
	Public         bool      `json:"public"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Thread is a single feedback item. OriginalLanguage is the locale the
// author wrote it in; readers in other locales see it through the
// translation session. AssignedTo is empty when unassigned.
type Thread struct {
	ID               string       `json:"id"`
	ProjectID        string       `json:"project_id"`
	AuthorID         string       `json:"author_id"`
	Title            string       `json:"title"`
	Content          string       `json:"content"`
	Status           ThreadStatus `json:"status"`
	PriorityWeight   int          `json:"priority_weight"`
	AssignedTo       string       `json:"assigned_to,omitempty"`
	OriginalLanguage string       `json:"original_language"`
	CommentCount     int          `json:"comment_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Comment is a reply attached to a thread.
type Comment struct {
	ID               string    `json:"id"`
	ThreadID         string    `json:"thread_id"`
	AuthorID         string    `json:"author_id"`
	Content          string    `json:"content"`
	OriginalLanguage string    `json:"original_language"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Invitation is a single-use, email-bound code for joining an organization.
type Invitation struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Email          string       `json:"email"`
	Code           string       `json:"code"`
	Role           perm.OrgRole `json:"role"`
	ExpiresAt      time.Time    `json:"expires_at"`
	UsedAt         *time.Time   `json:"used_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ThreadPatch is a partial thread update. Each non-nil field group carries
// its own required permission token; the whole patch is authorized before
// any store write.
type ThreadPatch struct {
	Title          *string
	Content        *string
	Status         *ThreadStatus
	PriorityWeight *int
	// AssignedTo set to the empty string clears the assignment.
	AssignedTo *string
}

func (p ThreadPatch) empty() bool {
	return p.Title == nil && p.Content == nil && p.Status == nil &&
		p.PriorityWeight == nil && p.AssignedTo == nil
}

// ProjectPatch is a partial project update; Public has its own token.
type ProjectPatch struct {
	Name        *string
	Description *string
	Public      *bool
}

func (p ProjectPatch) empty() bool {
	return p.Name == nil && p.Description == nil && p.Public == nil
}

// ThreadFilters narrows and orders project thread listings.
type ThreadFilters struct {
	Status ThreadStatus
	// SortBy is one of "recent", "priority", "discussed".
	SortBy string
}
