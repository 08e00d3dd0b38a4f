package bookmarks

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a saved link owned by a single user. Bookmarks are created and
// deleted, never updated in place. ID and CreatedAt are assigned by the
// store on insert.
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}
