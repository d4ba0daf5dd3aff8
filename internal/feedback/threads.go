package feedback

import (
	"context"
	"fmt"
	"strings"

	"lingoboard.org/internal/ids"
	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/perm"
)

// CreateThread opens a new feedback thread in a project. The author's
// preferred language is recorded as the thread's original language so later
// readers know which direction to translate.
func (s *Service) CreateThread(ctx context.Context, actorID, projectID, title, content, language string) (*Thread, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	if !set.Has(perm.ThreadCreate) {
		return nil, ErrPermissionDenied
	}

	now := s.now().UTC()
	t := &Thread{
		ID:               ids.New(),
		ProjectID:        project.ID,
		AuthorID:         actorID,
		Title:            title,
		Content:          content,
		Status:           StatusNew,
		OriginalLanguage: normalizeLanguage(language),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, err
	}
	s.publish(notify.Event{
		Type:           notify.EventThreadCreated,
		OrganizationID: project.OrganizationID,
		ProjectID:      project.ID,
		ThreadID:       t.ID,
		ActorID:        actorID,
	})
	return t, nil
}

// GetThread loads a thread. Threads in public projects are readable by
// anyone; otherwise the actor needs thread:view in the project context.
func (s *Service) GetThread(ctx context.Context, actorID, threadID string) (*Thread, error) {
	t, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	project, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if project.Public {
		return t, nil
	}
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	if !set.Has(perm.ThreadView) {
		return nil, ErrPermissionDenied
	}
	return t, nil
}

// ListThreads lists a project's threads with optional status filter and sort
// order. Visibility follows the same rule as GetThread.
func (s *Service) ListThreads(ctx context.Context, actorID, projectID string, f ThreadFilters) ([]*Thread, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if !project.Public {
		if err := requireActor(actorID); err != nil {
			return nil, err
		}
		set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
		if !set.Has(perm.ThreadView) {
			return nil, ErrPermissionDenied
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	switch f.SortBy {
	case "", "recent", "priority", "discussed":
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, f.SortBy)
	}
	return s.threads.ListByProject(ctx, projectID, f)
}

// UpdateThread applies a partial update. Each present field group carries its
// own required token; all groups must pass before the single store write, so
// a patch the actor is only partially allowed to make changes nothing.
func (s *Service) UpdateThread(ctx context.Context, actorID, threadID string, patch ThreadPatch) (*Thread, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	t, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	project, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)

	if patch.Title != nil || patch.Content != nil {
		tok := ownershipToken(actorID, t.AuthorID, perm.ThreadUpdateOwn, perm.ThreadUpdateAny)
		if !set.Has(tok) {
			return nil, ErrPermissionDenied
		}
		if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be blank", ErrInvalidInput)
		}
		if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
			return nil, fmt.Errorf("%w: content cannot be blank", ErrInvalidInput)
		}
	}
	if patch.Status != nil {
		if !set.Has(perm.ThreadStatusUpdate) {
			return nil, ErrPermissionDenied
		}
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
		}
	}
	if patch.PriorityWeight != nil {
		if !set.Has(perm.ThreadPriorityUpdate) {
			return nil, ErrPermissionDenied
		}
		if *patch.PriorityWeight < 0 {
			return nil, fmt.Errorf("%w: priority weight cannot be negative", ErrInvalidInput)
		}
	}
	if patch.AssignedTo != nil {
		if !set.Has(perm.ThreadAssign) {
			return nil, ErrPermissionDenied
		}
	}

	updated, err := s.threads.Update(ctx, threadID, patch)
	if err != nil {
		return nil, err
	}
	evt := notify.EventThreadUpdated
	if patch.AssignedTo != nil {
		evt = notify.EventThreadAssigned
	}
	s.publish(notify.Event{
		Type:           evt,
		OrganizationID: project.OrganizationID,
		ProjectID:      project.ID,
		ThreadID:       threadID,
		ActorID:        actorID,
	})
	return updated, nil
}

// DeleteThread removes a thread; authors need thread:delete:own, anyone else
// thread:delete:any.
func (s *Service) DeleteThread(ctx context.Context, actorID, threadID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	t, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	project, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrNotFound
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	tok := ownershipToken(actorID, t.AuthorID, perm.ThreadDeleteOwn, perm.ThreadDeleteAny)
	if !set.Has(tok) {
		return ErrPermissionDenied
	}
	return s.threads.Delete(ctx, threadID)
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "en"
	}
	return lang
}
