package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

const userColumns = `id, user_name, email, full_name, avatar_url, cover_image_url,
		       password_hash, refresh_token, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByIdentifier looks a user up by user name or email,
// case-insensitively.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(user_name) = lower($1) OR lower(email) = lower($1)`
	return r.scanUser(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(user_name) = lower($1)`
	return r.scanUser(r.db.QueryRowContext(ctx, query, userName))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	const query = `
		INSERT INTO users (id, user_name, email, full_name, avatar_url,
		                   cover_image_url, password_hash, refresh_token,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.UserName,
		user.Email,
		user.FullName,
		user.AvatarURL,
		user.CoverImageURL,
		user.PasswordHash,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateRefreshToken overwrites the user's persisted refresh token.
// An empty token clears the active session.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	const query = `
		UPDATE users
		SET refresh_token = $1,
		    updated_at = $2
		WHERE id = $3`
	return r.execExpectingRow(ctx, query, token, time.Now(), id)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const query = `
		UPDATE users
		SET password_hash = $1,
		    updated_at = $2
		WHERE id = $3`
	return r.execExpectingRow(ctx, query, hash, time.Now(), id)
}

// UpdateProfile sets the mutable identity fields and returns the
// refreshed record.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, userName, email, fullName string) (types.User, error) {
	const query = `
		UPDATE users
		SET user_name = $1,
		    email = $2,
		    full_name = $3,
		    updated_at = $4
		WHERE id = $5`
	if err := r.execExpectingRow(ctx, query, userName, email, fullName, time.Now(), id); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (types.User, error) {
	const query = `
		UPDATE users
		SET avatar_url = $1,
		    updated_at = $2
		WHERE id = $3`
	if err := r.execExpectingRow(ctx, query, avatarURL, time.Now(), id); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (types.User, error) {
	const query = `
		UPDATE users
		SET cover_image_url = $1,
		    updated_at = $2
		WHERE id = $3`
	if err := r.execExpectingRow(ctx, query, coverImageURL, time.Now(), id); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
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

func (r *UserRepository) scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
