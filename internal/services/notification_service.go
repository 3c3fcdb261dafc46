package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yogastudio/internal/models"
	"yogastudio/internal/repository"
)

// DispatchResult summarises one Send
type DispatchResult struct {
	Pushed   int
	Pruned   int
	Failed   int
	Emailed  bool
	Recorded bool
}

// EmailFallback is used when a user has no device to push to
type EmailFallback func(ctx context.Context, user *models.User) error

// Dispatcher delivers notifications to one user across the inbox, push and email
type Dispatcher struct {
	store  *repository.Store
	pusher Pusher
	log    *zap.Logger
}

func NewDispatcher(store *repository.Store, pusher Pusher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		pusher: pusher,
		log:    log.With(zap.String("component", "dispatcher")),
	}
}

// Send records an in-app notification and pushes it to every device token of
// the user. Tokens the push provider reports as no longer valid are removed.
// When the user has no tokens, fallback (if any) is tried instead.
func (d *Dispatcher) Send(ctx context.Context, userID, title, body string, data map[string]string, fallback EmailFallback) (DispatchResult, error) {
	var result DispatchResult

	user, err := d.store.Users.GetByID(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("load user %s: %w", userID, err)
	}

	notification := &models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   models.StringMap(data),
	}

	tokens := []string(user.DeviceTokens)
	if len(tokens) > 0 {
		push, err := d.pusher.Send(ctx, PushMessage{Tokens: tokens, Title: title, Body: body, Data: data})
		if err != nil {
			d.log.Warn("push failed", zap.String("user_id", userID), zap.Error(err))
			result.Failed = len(tokens)
		} else {
			result.Pushed = push.Sent
			result.Failed = len(push.Failed)
			if len(push.Failed) > 0 {
				d.log.Warn("push delivery failed for some tokens",
					zap.String("user_id", userID), zap.Int("failed", len(push.Failed)))
			}
			if len(push.Invalid) > 0 {
				if err := d.store.Users.RemoveDeviceTokens(ctx, userID, push.Invalid); err != nil {
					d.log.Warn("failed to prune device tokens", zap.String("user_id", userID), zap.Error(err))
				} else {
					result.Pruned = len(push.Invalid)
				}
			}
		}
	} else if fallback != nil {
		if err := fallback(ctx, user); err != nil {
			d.log.Warn("email fallback failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			result.Emailed = true
		}
	}

	notification.Delivered = result.Pushed
	if err := d.store.Notifications.Create(ctx, notification); err != nil {
		d.log.Warn("failed to record notification", zap.String("user_id", userID), zap.Error(err))
	} else {
		result.Recorded = true
	}

	return result, nil
}
