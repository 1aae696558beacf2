package store

import (
	"fmt"
	"strings"
)

// NoteFilter describes an ownership-scoped note query. UserID and the
// exact Trashed state are always applied; the remaining facets are
// optional. Results are always ordered by updated_at descending.
type NoteFilter struct {
	UserID  int
	Trashed bool
	TagID   *int
	Done    *bool
	Keyword string
}

// Where renders the filter as a SQL predicate with positional
// placeholders starting at $1.
func (f NoteFilter) Where() (string, []any) {
	clauses := []string{"user_id = $1", "trashed = $2"}
	args := []any{f.UserID, f.Trashed}

	if f.TagID != nil {
		args = append(args, fmt.Sprintf("[%d]", *f.TagID))
		clauses = append(clauses, fmt.Sprintf("tags @> $%d::jsonb", len(args)))
	}
	if f.Done != nil {
		args = append(args, *f.Done)
		clauses = append(clauses, fmt.Sprintf("done = $%d", len(args)))
	}
	if f.Keyword != "" {
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", n, n))
	}

	return strings.Join(clauses, " AND "), args
}

// TagFilter describes an ownership-scoped tag query. Results are
// always ordered by name ascending.
type TagFilter struct {
	UserID  int
	Keyword string
}

// Where renders the filter as a SQL predicate with positional
// placeholders starting at $1.
func (f TagFilter) Where() (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{f.UserID}

	if f.Keyword != "" {
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so a keyword matches
// literally instead of acting as a pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
