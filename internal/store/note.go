package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/notable-app/apiserver/types"
)

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `id, user_id, title, content, tags, done, trashed, created_at, updated_at`

func (r *NoteRepository) Get(ctx context.Context, id int) (types.Note, error) {
	const query = `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1`
	return scanNote(r.db.QueryRowContext(ctx, query, id))
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []int{}
	}

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return types.Note{}, err
	}

	const query = `
		INSERT INTO notes (user_id, title, content, tags, done, trashed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.UserID,
		note.Title,
		note.Content,
		tagsJSON,
		note.Done,
		note.Trashed,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// Update rewrites every mutable field of the note. The owning user_id
// is deliberately not part of the SET list.
func (r *NoteRepository) Update(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now()
	if note.Tags == nil {
		note.Tags = []int{}
	}

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return types.Note{}, err
	}

	const query = `
		UPDATE notes
		SET title = $1,
			content = $2,
			tags = $3,
			done = $4,
			trashed = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		note.Title,
		note.Content,
		tagsJSON,
		note.Done,
		note.Trashed,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return types.Note{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Note{}, err
	}
	if affected == 0 {
		return types.Note{}, ErrNotFound
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM notes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every note regardless of owner.
func (r *NoteRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes`)
	return err
}

// List returns the notes matching the filter, most recently updated
// first.
func (r *NoteRepository) List(ctx context.Context, filter NoteFilter) ([]types.Note, error) {
	where, args := filter.Where()
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE ` + where + `
		ORDER BY updated_at DESC`
	return r.queryMany(ctx, query, args...)
}

// ListActive returns every non-trashed note across all users, most
// recently updated first.
func (r *NoteRepository) ListActive(ctx context.Context) ([]types.Note, error) {
	const query = `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE trashed = false
		ORDER BY updated_at DESC`
	return r.queryMany(ctx, query)
}

// CountByUser reports total and trashed note counts for a user.
func (r *NoteRepository) CountByUser(ctx context.Context, userID int) (total, trashed int, err error) {
	const query = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE trashed)
		FROM notes
		WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total, &trashed); err != nil {
		return 0, 0, err
	}
	return total, trashed, nil
}

func (r *NoteRepository) queryMany(ctx context.Context, query string, args ...any) ([]types.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func scanNote(row rowScanner) (types.Note, error) {
	var note types.Note
	var tagsJSON []byte
	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&tagsJSON,
		&note.Done,
		&note.Trashed,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}

	note.Tags = []int{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &note.Tags); err != nil {
			return types.Note{}, err
		}
	}
	return note, nil
}
