package bookmarks

import (
	"context"

	"github.com/google/uuid"
)

// Store is the authoritative bookmark datastore. Every operation is scoped
// to an owner; a caller can never read or mutate another user's rows.
type Store interface {
	// ListByOwner returns all bookmarks owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Bookmark, error)

	// Insert stores a new bookmark for ownerID and returns the created
	// record with its server-assigned ID and timestamp.
	Insert(ctx context.Context, ownerID, title, url string) (Bookmark, error)

	// Delete removes the bookmark with the given id if ownerID owns it.
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}
