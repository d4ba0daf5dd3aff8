package feedback

import (
	"context"
	"fmt"
	"strings"

	"lingoboard.org/internal/ids"
	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/perm"
)

// CreateComment replies to a thread.
func (s *Service) CreateComment(ctx context.Context, actorID, threadID, content, language string) (*Comment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	t, project, err := s.threadContext(ctx, threadID)
	if err != nil {
		return nil, err
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	if !set.Has(perm.CommentCreate) {
		return nil, ErrPermissionDenied
	}

	now := s.now().UTC()
	c := &Comment{
		ID:               ids.New(),
		ThreadID:         t.ID,
		AuthorID:         actorID,
		Content:          content,
		OriginalLanguage: normalizeLanguage(language),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(notify.Event{
		Type:           notify.EventCommentCreated,
		OrganizationID: project.OrganizationID,
		ProjectID:      project.ID,
		ThreadID:       t.ID,
		ActorID:        actorID,
	})
	return c, nil
}

// ListComments returns a thread's comments; visibility follows the thread.
func (s *Service) ListComments(ctx context.Context, actorID, threadID string) ([]*Comment, error) {
	t, project, err := s.threadContext(ctx, threadID)
	if err != nil {
		return nil, err
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
	return s.comments.ListByThread(ctx, t.ID)
}

// UpdateComment rewrites a comment's body; authors need comment:update:own,
// anyone else comment:update:any.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID, content string) (*Comment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	_, project, err := s.threadContext(ctx, c.ThreadID)
	if err != nil {
		return nil, err
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	tok := ownershipToken(actorID, c.AuthorID, perm.CommentUpdateOwn, perm.CommentUpdateAny)
	if !set.Has(tok) {
		return nil, ErrPermissionDenied
	}
	return s.comments.UpdateContent(ctx, commentID, content)
}

// DeleteComment removes a comment with the own/any rule.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	_, project, err := s.threadContext(ctx, c.ThreadID)
	if err != nil {
		return err
	}
	set := s.permissionsFor(ctx, actorID, project.OrganizationID, project.ID)
	tok := ownershipToken(actorID, c.AuthorID, perm.CommentDeleteOwn, perm.CommentDeleteAny)
	if !set.Has(tok) {
		return ErrPermissionDenied
	}
	return s.comments.Delete(ctx, commentID)
}

// threadContext loads a thread and its enclosing project, the pair every
// comment gate evaluates in.
func (s *Service) threadContext(ctx context.Context, threadID string) (*Thread, *Project, error) {
	t, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, ErrNotFound
	}
	project, err := s.projects.FindByID(ctx, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, ErrNotFound
	}
	return t, project, nil
}
