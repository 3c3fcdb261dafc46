package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// PushMessage is one notification fanned out to several device tokens
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// PushResult reports per-token outcomes of a multicast
type PushResult struct {
	Sent    int
	Invalid []string
	Failed  []string
}

// Pusher delivers push notifications to devices
type Pusher interface {
	Send(ctx context.Context, msg PushMessage) (PushResult, error)
}

// FCMPusher sends through Firebase Cloud Messaging
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(ctx context.Context, credentialsPath string) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMPusher{client: client}, nil
}

func (p *FCMPusher) Send(ctx context.Context, msg PushMessage) (PushResult, error) {
	var result PushResult
	if len(msg.Tokens) == 0 {
		return result, nil
	}

	resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: msg.Tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return result, fmt.Errorf("fcm multicast: %w", err)
	}

	for i, r := range resp.Responses {
		token := msg.Tokens[i]
		switch {
		case r.Success:
			result.Sent++
		case messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error):
			result.Invalid = append(result.Invalid, token)
		default:
			result.Failed = append(result.Failed, token)
		}
	}
	return result, nil
}

// NoopPusher logs instead of sending
type NoopPusher struct {
	log *zap.Logger
}

func NewNoopPusher(log *zap.Logger) *NoopPusher {
	return &NoopPusher{log: log}
}

func (p *NoopPusher) Send(_ context.Context, msg PushMessage) (PushResult, error) {
	p.log.Debug("push disabled, skipping send",
		zap.Int("tokens", len(msg.Tokens)),
		zap.String("title", msg.Title))
	return PushResult{}, nil
}
