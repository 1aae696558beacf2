package services

import (
	"context"

	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	Get(ctx context.Context, id int) (types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Update(ctx context.Context, note types.Note) (types.Note, error)
	Delete(ctx context.Context, id int) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context, filter store.NoteFilter) ([]types.Note, error)
	ListActive(ctx context.Context) ([]types.Note, error)
	CountByUser(ctx context.Context, userID int) (total, trashed int, err error)
}

// NoteService encapsulates note use-cases.
type NoteService struct {
	repo NoteRepository
	tags TagRepository
}

func NewNoteService(repo NoteRepository, tags TagRepository) *NoteService {
	return &NoteService{repo: repo, tags: tags}
}

// Create stores a new note after checking that every referenced tag
// belongs to the note's owner.
func (s *NoteService) Create(ctx context.Context, note types.Note) (types.Note, error) {
	if err := s.checkTagOwnership(ctx, note.Tags, note.UserID); err != nil {
		return types.Note{}, err
	}
	return s.repo.Create(ctx, note)
}

func (s *NoteService) Get(ctx context.Context, id int) (types.Note, error) {
	return s.repo.Get(ctx, id)
}

// NoteUpdate carries the optional fields of a partial note update. A
// nil field is left unchanged. The owner is never touched.
type NoteUpdate struct {
	Title   *string
	Content *string
	Tags    []int
	Done    *bool
}

// Update applies a partial update. When tags are supplied they are
// re-validated against the note's owner.
func (s *NoteService) Update(ctx context.Context, id int, update NoteUpdate) (types.Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}

	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Done != nil {
		note.Done = *update.Done
	}
	if update.Tags != nil {
		if err := s.checkTagOwnership(ctx, update.Tags, note.UserID); err != nil {
			return types.Note{}, err
		}
		note.Tags = update.Tags
	}

	return s.repo.Update(ctx, note)
}

// MoveToTrash soft-deletes the note. Trashing an already-trashed note
// is a no-op on the flag.
func (s *NoteService) MoveToTrash(ctx context.Context, id int) (types.Note, error) {
	return s.setTrashed(ctx, id, true)
}

// RestoreFromTrash brings a trashed note back.
func (s *NoteService) RestoreFromTrash(ctx context.Context, id int) (types.Note, error) {
	return s.setTrashed(ctx, id, false)
}

func (s *NoteService) setTrashed(ctx context.Context, id int, trashed bool) (types.Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	note.Trashed = trashed
	return s.repo.Update(ctx, note)
}

// ToggleDone flips the done flag, or sets it when an explicit value is
// supplied.
func (s *NoteService) ToggleDone(ctx context.Context, id int, explicit *bool) (types.Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}

	if explicit != nil {
		note.Done = *explicit
	} else {
		note.Done = !note.Done
	}
	return s.repo.Update(ctx, note)
}

func (s *NoteService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// DeleteAll removes every note for every user.
func (s *NoteService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

// List returns the owner-scoped notes matching the filter.
func (s *NoteService) List(ctx context.Context, filter store.NoteFilter) ([]types.Note, error) {
	return s.repo.List(ctx, filter)
}

// ListAllActive returns every non-trashed note regardless of owner.
func (s *NoteService) ListAllActive(ctx context.Context) ([]types.Note, error) {
	return s.repo.ListActive(ctx)
}

// Counts reports total and trashed note counts for a user.
func (s *NoteService) Counts(ctx context.Context, userID int) (total, trashed int, err error) {
	return s.repo.CountByUser(ctx, userID)
}

func (s *NoteService) checkTagOwnership(ctx context.Context, tagIDs []int, userID int) error {
	if len(tagIDs) == 0 {
		return nil
	}
	count, err := s.tags.CountOwned(ctx, tagIDs, userID)
	if err != nil {
		return err
	}
	if count != len(tagIDs) {
		return ErrInvalidTagReference
	}
	return nil
}
