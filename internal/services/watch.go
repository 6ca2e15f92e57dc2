package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/clipstream/apiserver/internal/store"
	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// WatchEventsChannel is the broker channel watch events are
// published to for downstream view-count aggregation.
const WatchEventsChannel = "watch-events"

// VideoRepository defines persistence operations for video metadata.
type VideoRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.Video, error)
	Create(ctx context.Context, video types.Video) (types.Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// WatchHistoryRepository defines persistence operations for the
// append-only watch log.
type WatchHistoryRepository interface {
	Append(ctx context.Context, userID, videoID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]types.WatchEntry, int, error)
}

// EventPublisher sends a message to a named broker channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// WatchEvent is the payload published when a user watches a video.
type WatchEvent struct {
	UserID    uuid.UUID `json:"userId"`
	VideoID   uuid.UUID `json:"videoId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	WatchedAt time.Time `json:"watchedAt"`
}

// WatchService records watch events and serves watch history.
type WatchService struct {
	videos    VideoRepository
	history   WatchHistoryRepository
	publisher EventPublisher
}

// NewWatchService constructs a WatchService. publisher may be nil
// when no event broker is configured.
func NewWatchService(videos VideoRepository, history WatchHistoryRepository, publisher EventPublisher) *WatchService {
	return &WatchService{
		videos:    videos,
		history:   history,
		publisher: publisher,
	}
}

// Record appends a watch entry for userID, bumps the video's view
// counter, and publishes a watch event. Publishing is best-effort; a
// broker failure never fails the request.
func (s *WatchService) Record(ctx context.Context, userID, videoID uuid.UUID) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.history.Append(ctx, userID, videoID); err != nil {
		return err
	}
	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := WatchEvent{
			UserID:    userID,
			VideoID:   videoID,
			OwnerID:   video.OwnerID,
			WatchedAt: time.Now(),
		}
		if data, err := json.Marshal(event); err == nil {
			_, _ = s.publisher.Publish(ctx, WatchEventsChannel, data, map[string]string{
				"userId":  userID.String(),
				"videoId": videoID.String(),
			})
		}
	}

	return nil
}

// History returns a newest-first page of the user's watch history.
func (s *WatchService) History(ctx context.Context, userID uuid.UUID, offset, limit int) ([]types.WatchEntry, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.history.List(ctx, userID, offset, limit)
}
