package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
// It contains identity, credentials, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned at creation.
	ID uuid.UUID `json:"id" db:"id"`

	// UserName is the unique handle chosen by the user. Stored
	// lowercased and trimmed; uniqueness is case-insensitive.
	UserName string `json:"userName" db:"user_name"`

	// Email is the user's email address. Stored lowercased and
	// trimmed; uniqueness is case-insensitive.
	Email string `json:"email" db:"email"`

	// FullName is the user's display name.
	FullName string `json:"fullName" db:"full_name"`

	// AvatarURL points to the externally hosted avatar image.
	AvatarURL string `json:"avatarUrl" db:"avatar_url"`

	// CoverImageURL points to the externally hosted cover image.
	// Empty when the user has no cover image.
	CoverImageURL string `json:"coverImageUrl,omitempty" db:"cover_image_url"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// RefreshToken is the single currently valid refresh token for
	// this user. Empty means no active session. Never exposed in
	// API responses.
	RefreshToken string `json:"-" db:"refresh_token"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Sanitized returns a copy of the user with credential material
// stripped, safe to embed in API responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// ChannelProfile is the public view of a user's channel, including
// subscription counts computed from the subscriptions relation.
type ChannelProfile struct {
	ID            uuid.UUID `json:"id"`
	UserName      string    `json:"userName"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`

	// SubscriberCount is the number of users subscribed to this channel.
	SubscriberCount int `json:"subscriberCount"`

	// SubscribedToCount is the number of channels this user subscribes to.
	SubscribedToCount int `json:"subscribedToCount"`

	// Subscribed reports whether the viewing user subscribes to this channel.
	Subscribed bool `json:"isSubscribed"`
}
