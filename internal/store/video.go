package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// VideoRepository handles persistence for video metadata.
type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (types.Video, error) {
	const query = `
		SELECT id, owner_id, title, thumbnail_url, duration_seconds, views, created_at
		FROM videos
		WHERE id = $1`
	var video types.Video
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.ThumbnailURL,
		&video.Duration,
		&video.Views,
		&video.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Video{}, ErrNotFound
		}
		return types.Video{}, err
	}
	return video, nil
}

func (r *VideoRepository) Create(ctx context.Context, video types.Video) (types.Video, error) {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	video.CreatedAt = time.Now()

	const query = `
		INSERT INTO videos (id, owner_id, title, thumbnail_url, duration_seconds, views, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.ThumbnailURL,
		video.Duration,
		video.Views,
		video.CreatedAt,
	)
	if err != nil {
		return types.Video{}, err
	}
	return video, nil
}

// IncrementViews bumps the watch counter for a video.
func (r *VideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE videos SET views = views + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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
