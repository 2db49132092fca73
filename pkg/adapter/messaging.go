package adapter

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/model"
	"google.golang.org/api/option"
)

// Expected delivery outcomes. Both mean the notification has nowhere to
// go right now and should be logged and swallowed, not retried.
var (
	ErrNoSubscribers = goerr.New("topic has no subscribers")
	ErrTokenStale    = goerr.New("registration token is no longer valid")
)

// IsExpected reports whether a Send error is an expected delivery outcome
// rather than a real failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNoSubscribers) || errors.Is(err, ErrTokenStale)
}

// Messenger delivers push notifications. Delivery is best-effort: this
// layer never retries.
type Messenger interface {
	Send(ctx context.Context, n *model.Notification) error
}

// fcmMessenger implements Messenger using Firebase Cloud Messaging.
type fcmMessenger struct {
	client *messaging.Client
}

// NewFCM creates a new FCM messenger.
func NewFCM(ctx context.Context, opts ...option.ClientOption) (Messenger, error) {
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create messaging client")
	}

	return &fcmMessenger{client: client}, nil
}

func (m *fcmMessenger) Send(ctx context.Context, n *model.Notification) error {
	badge := 1
	msg := &messaging.Message{
		Topic: n.Destination.Topic,
		Token: n.Destination.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "family_activity",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default", Badge: &badge},
			},
		},
	}

	if _, err := m.client.Send(ctx, msg); err != nil {
		switch {
		case n.Destination.Token != "" && messaging.IsRegistrationTokenNotRegistered(err):
			return goerr.Wrap(ErrTokenStale, "fcm send", goerr.V("token", truncateToken(n.Destination.Token)))
		case n.Destination.Topic != "" && errorutils.IsInvalidArgument(err):
			// The topic does not exist until at least one device subscribes.
			return goerr.Wrap(ErrNoSubscribers, "fcm send", goerr.V("topic", n.Destination.Topic))
		default:
			return goerr.Wrap(err, "failed to send notification",
				goerr.V("topic", n.Destination.Topic),
				goerr.V("token", truncateToken(n.Destination.Token)))
		}
	}

	return nil
}

func truncateToken(token string) string {
	if len(token) > 12 {
		return token[:12] + "..."
	}
	return token
}
