package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/notable-app/apiserver/types"
)

// TagRepository handles persistence for tags. Reads and writes are
// owner-scoped: a tag belonging to another user behaves as missing.
type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

const tagColumns = `id, user_id, name, color, created_at, updated_at`

func (r *TagRepository) GetOwned(ctx context.Context, id, userID int) (types.Tag, error) {
	const query = `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE id = $1 AND user_id = $2`
	return scanTag(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *TagRepository) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	const query = `
		INSERT INTO tags (user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tag.UserID,
		tag.Name,
		tag.Color,
		tag.CreatedAt,
		tag.UpdatedAt,
	).Scan(&tag.ID); err != nil {
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) UpdateOwned(ctx context.Context, tag types.Tag) (types.Tag, error) {
	tag.UpdatedAt = time.Now()

	const query = `
		UPDATE tags
		SET name = $1,
			color = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		tag.Name,
		tag.Color,
		tag.UpdatedAt,
		tag.ID,
		tag.UserID,
	)
	if err != nil {
		return types.Tag{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Tag{}, err
	}
	if affected == 0 {
		return types.Tag{}, ErrNotFound
	}
	return tag, nil
}

// DeleteOwned removes the tag. Notes referencing it keep the dangling
// id; there is no cascade.
func (r *TagRepository) DeleteOwned(ctx context.Context, id, userID int) error {
	const query = `DELETE FROM tags WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
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

// List returns the tags matching the filter, sorted by name.
func (r *TagRepository) List(ctx context.Context, filter TagFilter) ([]types.Tag, error) {
	where, args := filter.Where()
	query := `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE ` + where + `
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]types.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// CountOwned reports how many of the given tag ids exist and belong to
// the user. Callers compare the result against the length of the id
// list to validate tag references on note writes.
func (r *TagRepository) CountOwned(ctx context.Context, ids []int, userID int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const query = `
		SELECT COUNT(*)
		FROM tags
		WHERE id = ANY($1) AND user_id = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, pq.Array(ids), userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TagRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(*) FROM tags WHERE user_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTag(row rowScanner) (types.Tag, error) {
	var tag types.Tag
	err := row.Scan(
		&tag.ID,
		&tag.UserID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tag{}, ErrNotFound
		}
		return types.Tag{}, err
	}
	return tag, nil
}
