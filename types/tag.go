package types

import "time"

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3498db"

// Tag is a user-scoped label for notes. Tag names are not unique per
// user; duplicates are allowed.
type Tag struct {
	// ID is the unique identifier of the tag.
	ID int `json:"id" db:"id"`

	// UserID is the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// Name is the tag label.
	Name string `json:"name" db:"name"`

	// Color is the display color, a hex string.
	Color string `json:"color" db:"color"`

	// CreatedAt is the timestamp when the tag was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the tag.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
