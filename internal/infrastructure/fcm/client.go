package fcm

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const channelID = "pillar_signals"

var ErrDisabled = errors.New("FCM client not initialized")

type Config struct {
	CredentialsPath string `yaml:"credentials_path"`
	CredentialsJSON string `yaml:"-"`
}

type Client struct {
	client *messaging.Client
}

// NewClient initializes Firebase Cloud Messaging. Without credentials it
// returns a disabled client rather than an error.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsPath != "":
		opt = option.WithCredentialsFile(cfg.CredentialsPath)
	case cfg.CredentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	default:
		log.Warn().Msg("no Firebase credentials found, FCM disabled")
		return &Client{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info().Msg("Firebase Cloud Messaging initialized")
	return &Client{client: client}, nil
}

// SendMulticast pushes one notification to every token.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if c.client == nil {
		return ErrDisabled
	}
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: channelID,
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast: %w", err)
	}

	log.Debug().
		Int("success", response.SuccessCount).
		Int("failure", response.FailureCount).
		Msg("fcm multicast sent")
	return nil
}

// Enabled reports whether credentials were configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}
