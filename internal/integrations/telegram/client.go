package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"basebot/internal/domain"
)

const (
	defaultPollTimeout = 60 // seconds, long-polling getUpdates
	defaultHTTPTimeout = 90 * time.Second
)

// botAPI is the subset of *tgbotapi.BotAPI used by Client.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// HandleFunc processes one inbound message.
type HandleFunc func(ctx context.Context, msg domain.IncomingMessage) error

// Client sends replies and receives updates through the Telegram Bot API.
type Client struct {
	api         botAPI
	username    string
	pollTimeout int
	log         *slog.Logger
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithPollTimeout(seconds int) Option {
	return func(c *Client) {
		if seconds > 0 {
			c.pollTimeout = seconds
		}
	}
}

// New authenticates with the bot token (getMe) and returns a Client.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: bot token must not be empty")
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: defaultHTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return NewWithAPI(api, api.Self.UserName, opts...)
}

// NewWithAPI wraps an existing bot API handle.
func NewWithAPI(api botAPI, username string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("telegram: api must not be nil")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("telegram: bot username must not be empty")
	}
	c := &Client{
		api:         api,
		username:    username,
		pollTimeout: defaultPollTimeout,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Username() string {
	return c.username
}

// Send posts text to chatID as a reply to replyToMessageID (0 for none).
func (c *Client) Send(ctx context.Context, chatID int64, replyToMessageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToMessageID
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Poll long-polls for updates and dispatches them one at a time until ctx is
// cancelled or the update channel closes.
func (c *Client) Poll(ctx context.Context, handle HandleFunc) error {
	if handle == nil {
		return errors.New("telegram: handler must not be nil")
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = c.pollTimeout
	cfg.AllowedUpdates = []string{"message"}
	updates := c.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := ToIncoming(update)
			if !ok {
				continue
			}
			if err := handle(ctx, msg); err != nil {
				c.log.Error("failed to handle update", "update_id", update.UpdateID, "err", err)
			}
		}
	}
}

// ToIncoming maps a Telegram update to an IncomingMessage. Updates that do
// not carry a new message are rejected.
func ToIncoming(update tgbotapi.Update) (domain.IncomingMessage, bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return domain.IncomingMessage{}, false
	}
	in := domain.IncomingMessage{
		UpdateID:  update.UpdateID,
		ChatID:    m.Chat.ID,
		ChatType:  m.Chat.Type,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		in.FromBot = m.From.IsBot
	}
	if m.IsCommand() {
		in.Command = strings.ToLower(m.Command())
		if _, target, ok := strings.Cut(m.CommandWithAt(), "@"); ok {
			in.CommandTarget = target
		}
	}
	if m.ReplyToMessage != nil {
		in.IsReply = true
		in.ReplyToText = m.ReplyToMessage.Text
	}
	return in, true
}
