package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/tandem/internal/model"
)

// ErrNoSubscriptions is returned by SendToUser when the user has no devices.
var ErrNoSubscriptions = errors.New("no push subscriptions")

// SubscriptionStore is the slice of the push store the sender needs.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Sender delivers a payload to every device a user has subscribed.
type Sender struct {
	service *Service
	subs    SubscriptionStore
	logger  *slog.Logger
}

func NewSender(service *Service, subs SubscriptionStore, logger *slog.Logger) *Sender {
	return &Sender{service: service, subs: subs, logger: logger}
}

// SendToUser pushes payload to each of the user's subscriptions and returns
// how many accepted it. Expired subscriptions are deleted. An error is
// returned only when no device accepted the payload.
func (s *Sender) SendToUser(ctx context.Context, userID int64, payload Payload) (int, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, ErrNoSubscriptions
	}

	sent := 0
	var errs []error
	for i := range subs {
		sub := &subs[i]
		err := s.service.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			s.logger.Info("removing expired push subscription", "user_id", userID, "subscription_id", sub.ID)
			if derr := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
				s.logger.Error("delete expired subscription", "subscription_id", sub.ID, "error", derr)
			}
			errs = append(errs, err)
		default:
			s.logger.Warn("push send failed", "user_id", userID, "subscription_id", sub.ID, "error", err)
			errs = append(errs, err)
		}
	}

	if sent == 0 {
		return 0, errors.Join(errs...)
	}
	return sent, nil
}
