package services

import (
	"context"
	"fmt"

	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// SubscriptionRepository defines persistence operations for the
// subscriber/channel relation.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	Counts(ctx context.Context, channelID, viewerID uuid.UUID) (subscribers, subscribedTo int, subscribed bool, err error)
}

// ChannelService exposes channel profiles and subscription changes.
type ChannelService struct {
	users         *UserService
	subscriptions SubscriptionRepository
}

func NewChannelService(users *UserService, subscriptions SubscriptionRepository) *ChannelService {
	return &ChannelService{users: users, subscriptions: subscriptions}
}

// Profile returns the public channel view for userName as seen by
// viewerID, with subscription counts projected from the relation.
func (s *ChannelService) Profile(ctx context.Context, userName string, viewerID uuid.UUID) (types.ChannelProfile, error) {
	channel, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		return types.ChannelProfile{}, err
	}

	subscribers, subscribedTo, subscribed, err := s.subscriptions.Counts(ctx, channel.ID, viewerID)
	if err != nil {
		return types.ChannelProfile{}, err
	}

	return types.ChannelProfile{
		ID:                channel.ID,
		UserName:          channel.UserName,
		FullName:          channel.FullName,
		AvatarURL:         channel.AvatarURL,
		CoverImageURL:     channel.CoverImageURL,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		Subscribed:        subscribed,
	}, nil
}

// Subscribe makes subscriberID follow the channel named userName.
// Idempotent; subscribing to your own channel is rejected.
func (s *ChannelService) Subscribe(ctx context.Context, subscriberID uuid.UUID, userName string) error {
	channel, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		return err
	}
	if channel.ID == subscriberID {
		return fmt.Errorf("%w: cannot subscribe to your own channel", ErrInvalidInput)
	}
	return s.subscriptions.Subscribe(ctx, subscriberID, channel.ID)
}

// Unsubscribe removes the relation. Idempotent.
func (s *ChannelService) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, userName string) error {
	channel, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		return err
	}
	return s.subscriptions.Unsubscribe(ctx, subscriberID, channel.ID)
}
