package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basebot/internal/domain"
	"basebot/internal/usecase"
)

const (
	commandStart = "start"

	WelcomeReply = "🔥 Welcome to BASE! 🚀\n\nGlad to have you here! How's your day going? 😊"
	ErrorReply   = "Couldn't process that. Try again!"
)

type Replier interface {
	Reply(ctx context.Context, in usecase.ReplyInput) (usecase.ReplyOutput, error)
}

type Sender interface {
	Send(ctx context.Context, chatID int64, replyToMessageID int, text string) error
}

// Deduper claims update ids; false means the update was already handled.
type Deduper interface {
	MarkProcessed(ctx context.Context, updateID int) (bool, error)
}

type Bot struct {
	replier  Replier
	sender   Sender
	username string
	dedup    Deduper
	log      *slog.Logger
}

type Option func(*Bot)

func WithDeduper(d Deduper) Option {
	return func(b *Bot) {
		b.dedup = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.log = l
		}
	}
}

func New(replier Replier, sender Sender, username string, opts ...Option) (*Bot, error) {
	if replier == nil {
		return nil, errors.New("bot: replier must not be nil")
	}
	if sender == nil {
		return nil, errors.New("bot: sender must not be nil")
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, errors.New("bot: username must not be empty")
	}
	b := &Bot{
		replier:  replier,
		sender:   sender,
		username: username,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// HandleMessage answers a single inbound message. Reply failures are answered
// with ErrorReply; only a failed send is returned.
func (b *Bot) HandleMessage(ctx context.Context, msg domain.IncomingMessage) error {
	if msg.FromBot {
		return nil
	}
	log := b.log.With("chat_id", msg.ChatID, "message_id", msg.MessageID, "update_id", msg.UpdateID)

	if msg.Command != "" {
		if msg.Command != commandStart || !b.commandForMe(msg) {
			return nil
		}
		if !b.claim(ctx, log, msg) {
			return nil
		}
		return b.send(ctx, msg, WelcomeReply)
	}

	if strings.TrimSpace(msg.Text) == "" || !b.addressed(msg) {
		return nil
	}
	if !b.claim(ctx, log, msg) {
		return nil
	}

	out, err := b.replier.Reply(ctx, usecase.ReplyInput{Text: msg.Text, ReplyToText: msg.ReplyToText})
	if err != nil {
		log.Error("reply failed", "err", err)
		return b.send(ctx, msg, ErrorReply)
	}
	log.Info("replying", "source", string(out.Source))
	return b.send(ctx, msg, out.Text)
}

// addressed reports whether the bot was mentioned, spoken to privately, or
// replied to.
func (b *Bot) addressed(msg domain.IncomingMessage) bool {
	if msg.IsPrivate() || msg.IsReply {
		return true
	}
	return strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(b.username))
}

// commandForMe rejects commands addressed to another bot, e.g. /start@other_bot.
func (b *Bot) commandForMe(msg domain.IncomingMessage) bool {
	return msg.CommandTarget == "" || strings.EqualFold(msg.CommandTarget, b.username)
}

func (b *Bot) claim(ctx context.Context, log *slog.Logger, msg domain.IncomingMessage) bool {
	if b.dedup == nil || msg.UpdateID == 0 {
		return true
	}
	fresh, err := b.dedup.MarkProcessed(ctx, msg.UpdateID)
	if err != nil {
		log.Warn("dedup check failed, answering anyway", "err", err)
		return true
	}
	if !fresh {
		log.Debug("skipping redelivered update")
	}
	return fresh
}

func (b *Bot) send(ctx context.Context, msg domain.IncomingMessage, text string) error {
	if err := b.sender.Send(ctx, msg.ChatID, msg.MessageID, text); err != nil {
		return fmt.Errorf("bot: send reply: %w", err)
	}
	return nil
}
