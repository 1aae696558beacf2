package types

import "time"

// MaxNoteTitleLength is the longest title a note may have.
const MaxNoteTitleLength = 150

// Note is a piece of user content, optionally labelled with tags.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id" db:"id"`

	// UserID is the owning user. It is set at creation and never
	// altered by updates.
	UserID int `json:"user_id" db:"user_id"`

	// Title is the note title, 1 to 150 characters.
	Title string `json:"title" db:"title"`

	// Content is the note body.
	Content string `json:"content" db:"content"`

	// Tags holds the ids of tags attached to this note. Every
	// referenced tag must belong to the same user as the note.
	// Deleting a tag does not remove it from here.
	Tags []int `json:"tags" db:"tags"`

	// Done marks the note as completed.
	Done bool `json:"done" db:"done"`

	// Trashed soft-deletes the note: trashed notes are hidden from
	// normal listings but remain restorable.
	Trashed bool `json:"trashed" db:"trashed"`

	// CreatedAt is the timestamp when the note was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the note.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
