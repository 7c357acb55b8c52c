// Package entity defines the entities and errors used in the application.
// It includes the Bookmark struct, which represents a saved link, the draft and
// patch payloads used to create and modify it, and the relevant error definitions.
package entity

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrBookmarkNotFound is returned when no bookmark matches the requested id.
	ErrBookmarkNotFound = errors.New("bookmark not found")
	// ErrEmptyPatch is returned when an update carries no fields to change.
	ErrEmptyPatch = errors.New("empty bookmark patch")
	// ErrConstraintViolation is returned when the datastore rejects a write because of a table constraint.
	ErrConstraintViolation = errors.New("constraint violation")
)

// Bookmark represents a saved link.
type Bookmark struct {
	ID     uuid.UUID // ID is assigned by the datastore on creation and never changes.
	Title  string    // Title is the human readable name of the link.
	URL    string    // URL is the absolute web address the bookmark points to.
	Desc   string    // Desc is a free text description.
	Rating int       // Rating is an integer between 0 and 5.
}

// BookmarkDraft is a bookmark that has not been persisted yet.
type BookmarkDraft struct {
	Title  string
	URL    string
	Desc   string
	Rating int
}

// BookmarkPatch holds the fields of a partial update. Nil fields are left untouched.
type BookmarkPatch struct {
	Title  *string
	URL    *string
	Desc   *string
	Rating *int
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p.Title == nil && p.URL == nil && p.Desc == nil && p.Rating == nil
}
