package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriptionRepository handles the subscriber/channel relation.
type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Subscribe records subscriberID following channelID. Subscribing
// twice is not an error.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	const query = `
		INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, subscriberID, channelID, time.Now())
	return err
}

// Unsubscribe removes the relation. Unsubscribing when not
// subscribed is not an error.
func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	const query = `
		DELETE FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = $2`
	_, err := r.db.ExecContext(ctx, query, subscriberID, channelID)
	return err
}

// Counts returns how many users subscribe to channelID, how many
// channels channelID subscribes to, and whether viewerID is one of
// the channel's subscribers. The three projections are computed in a
// single round trip.
func (r *SubscriptionRepository) Counts(ctx context.Context, channelID, viewerID uuid.UUID) (subscribers, subscribedTo int, subscribed bool, err error) {
	const query = `
		SELECT
			(SELECT count(*) FROM subscriptions WHERE channel_id = $1),
			(SELECT count(*) FROM subscriptions WHERE subscriber_id = $1),
			EXISTS (
				SELECT 1 FROM subscriptions
				WHERE channel_id = $1 AND subscriber_id = $2
			)`
	err = r.db.QueryRowContext(ctx, query, channelID, viewerID).Scan(&subscribers, &subscribedTo, &subscribed)
	if err != nil {
		return 0, 0, false, err
	}
	return subscribers, subscribedTo, subscribed, nil
}
