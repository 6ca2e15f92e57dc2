package types

import (
	"time"

	"github.com/google/uuid"
)

// Video is a published video reference. The backend stores metadata
// only; binaries live in object storage under ThumbnailURL-style
// hosted URLs.
type Video struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OwnerID      uuid.UUID `json:"ownerId" db:"owner_id"`
	Title        string    `json:"title" db:"title"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`

	// Duration is the video length in seconds.
	Duration int64 `json:"durationSeconds" db:"duration_seconds"`

	// Views is the total recorded watch count.
	Views int64 `json:"views" db:"views"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// WatchEntry is one row of a user's watch history, joined with the
// watched video and its owner's public identity.
type WatchEntry struct {
	Video Video `json:"video"`

	// OwnerUserName and OwnerAvatarURL identify the channel the
	// video belongs to.
	OwnerUserName  string `json:"ownerUserName"`
	OwnerAvatarURL string `json:"ownerAvatarUrl"`

	WatchedAt time.Time `json:"watchedAt"`
}
