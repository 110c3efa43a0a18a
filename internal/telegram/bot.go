// Package telegram connects chats to the assistant service. Each chat
// maps to one user key, so every chat keeps its own conversation
// thread. Updates arrive either by long polling or through the webhook
// handler, never both.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avelichko/docsbot/internal/assistant"
	"github.com/avelichko/docsbot/pkg/logging"
)

// Responder is the slice of the assistant service the bot needs.
type Responder interface {
	SendMessage(ctx context.Context, userKey, message, threadOverride string) (assistant.Response, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	svc    Responder
	logger *logging.Logger
}

func New(token string, svc Responder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{
		api:    api,
		svc:    svc,
		logger: logging.NewLogger("telegram"),
	}, nil
}

// Run consumes updates by long polling until ctx is cancelled. Use only
// when no webhook URL is configured.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("listening for updates", "bot", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// RegisterWebhook points Telegram at webhookURL.
func (b *Bot) RegisterWebhook(webhookURL string) error {
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(webhook); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	b.logger.Info("webhook registered", "url", webhookURL)
	return nil
}

// WebhookHandler decodes a pushed update and processes it. Telegram
// only needs a 200 back; processing errors are logged, not returned.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("undecodable webhook payload", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.handleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	userKey := fmt.Sprintf("tg-%d", chatID)
	log := b.logger.With("chat_id", chatID)
	log.Debug("handling message", "chars", len(update.Message.Text))

	response, err := b.svc.SendMessage(ctx, userKey, update.Message.Text, "")
	if err != nil {
		log.Error("assistant call failed", "error", err)
		b.reply(log, chatID, "Something went wrong while answering, please try again later.")
		return
	}
	if response.Answer == "" {
		log.Warn("assistant returned no answer")
		b.reply(log, chatID, "I could not find an answer to that.")
		return
	}
	b.reply(log, chatID, response.Answer)
}

func (b *Bot) reply(log *logging.Logger, chatID int64, text string) {
	message := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(message); err != nil {
		log.Error("failed to send reply", "error", err)
	}
}
