package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// WatchHistoryRepository handles the append-only watch log.
type WatchHistoryRepository struct {
	db *sql.DB
}

func NewWatchHistoryRepository(db *sql.DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db}
}

func (r *WatchHistoryRepository) Append(ctx context.Context, userID, videoID uuid.UUID) error {
	const query = `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, userID, videoID, time.Now())
	return err
}

// List returns the user's watch history newest-first, joined with
// each video and its owner's public identity.
func (r *WatchHistoryRepository) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]types.WatchEntry, int, error) {
	const query = `
		SELECT v.id, v.owner_id, v.title, v.thumbnail_url, v.duration_seconds,
		       v.views, v.created_at,
		       u.user_name, u.avatar_url,
		       h.watched_at
		FROM watch_history h
		JOIN videos v ON v.id = h.video_id
		JOIN users u ON u.id = v.owner_id
		WHERE h.user_id = $1
		ORDER BY h.watched_at DESC, h.id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []types.WatchEntry{}
	for rows.Next() {
		var entry types.WatchEntry
		if err := rows.Scan(
			&entry.Video.ID,
			&entry.Video.OwnerID,
			&entry.Video.Title,
			&entry.Video.ThumbnailURL,
			&entry.Video.Duration,
			&entry.Video.Views,
			&entry.Video.CreatedAt,
			&entry.OwnerUserName,
			&entry.OwnerAvatarURL,
			&entry.WatchedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	const countQuery = `SELECT count(*) FROM watch_history WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
