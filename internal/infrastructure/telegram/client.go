package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
)

var ErrDisabled = errors.New("telegram bot not configured")

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client posts signal messages to a single chat.
type Client struct {
	bot    botAPI
	chatID int64
}

// NewClient connects the bot. An empty token yields a disabled client.
func NewClient(token string, chatID int64) (*Client, error) {
	if token == "" || chatID == 0 {
		log.Warn().Msg("telegram token or chat id missing, telegram disabled")
		return &Client{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating bot: %w", err)
	}
	bot.Buffer = 0

	log.Info().Str("bot", bot.Self.UserName).Int64("chat", chatID).Msg("telegram bot initialized")
	return &Client{bot: bot, chatID: chatID}, nil
}

func (c *Client) Send(_ context.Context, text string) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	msg := tgbotapi.NewMessage(c.chatID, text)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.bot != nil
}
