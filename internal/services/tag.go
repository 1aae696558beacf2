package services

import (
	"context"

	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	GetOwned(ctx context.Context, id, userID int) (types.Tag, error)
	Create(ctx context.Context, tag types.Tag) (types.Tag, error)
	UpdateOwned(ctx context.Context, tag types.Tag) (types.Tag, error)
	DeleteOwned(ctx context.Context, id, userID int) error
	List(ctx context.Context, filter store.TagFilter) ([]types.Tag, error)
	CountOwned(ctx context.Context, ids []int, userID int) (int, error)
	CountByUser(ctx context.Context, userID int) (int, error)
}

// TagService encapsulates tag use-cases. Every operation is scoped to
// the owning user; a tag belonging to someone else behaves as missing.
type TagService struct {
	repo  TagRepository
	notes NoteRepository
}

func NewTagService(repo TagRepository, notes NoteRepository) *TagService {
	return &TagService{repo: repo, notes: notes}
}

func (s *TagService) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	if tag.Color == "" {
		tag.Color = types.DefaultTagColor
	}
	return s.repo.Create(ctx, tag)
}

func (s *TagService) Get(ctx context.Context, id, userID int) (types.Tag, error) {
	return s.repo.GetOwned(ctx, id, userID)
}

// TagUpdate carries the optional fields of a partial tag update. A nil
// field is left unchanged.
type TagUpdate struct {
	Name  *string
	Color *string
}

func (s *TagService) Update(ctx context.Context, id, userID int, update TagUpdate) (types.Tag, error) {
	tag, err := s.repo.GetOwned(ctx, id, userID)
	if err != nil {
		return types.Tag{}, err
	}

	if update.Name != nil && *update.Name != "" {
		tag.Name = *update.Name
	}
	if update.Color != nil && *update.Color != "" {
		tag.Color = *update.Color
	}

	return s.repo.UpdateOwned(ctx, tag)
}

// Delete removes the tag. Notes referencing it keep the dangling tag
// id; there is deliberately no cleanup pass.
func (s *TagService) Delete(ctx context.Context, id, userID int) error {
	return s.repo.DeleteOwned(ctx, id, userID)
}

// List returns the user's tags, optionally narrowed by a keyword,
// sorted by name.
func (s *TagService) List(ctx context.Context, filter store.TagFilter) ([]types.Tag, error) {
	return s.repo.List(ctx, filter)
}

// NotesByTag returns the user's non-trashed notes carrying the tag.
// The tag itself must exist and belong to the user.
func (s *TagService) NotesByTag(ctx context.Context, tagID, userID int) ([]types.Note, error) {
	if _, err := s.repo.GetOwned(ctx, tagID, userID); err != nil {
		return nil, err
	}
	return s.notes.List(ctx, store.NoteFilter{
		UserID: userID,
		TagID:  &tagID,
	})
}

// Count reports how many tags the user has.
func (s *TagService) Count(ctx context.Context, userID int) (int, error) {
	return s.repo.CountByUser(ctx, userID)
}
