package bot

import (
	"context"
	"fmt"

	applog "kharcha/internal/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot runs the long-polling loop against the Telegram API.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logger  *applog.Logger
}

func New(token string, handler *Handler, logger *applog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}

	return &Bot{
		api:     api,
		handler: handler,
		logger:  logger.WithComponent(applog.ComponentBot),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "Bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			reply := b.handler.HandleMessage(ctx, update.Message)
			if reply == nil {
				continue
			}

			out := tgbotapi.NewMessage(update.Message.Chat.ID, reply.Text)
			out.ParseMode = reply.ParseMode
			out.DisableWebPagePreview = reply.DisableWebPagePreview
			if _, err := b.api.Send(out); err != nil {
				b.logger.ErrorContext(ctx, "Failed to send reply", "chat_id", update.Message.Chat.ID, "error", err)
			}
		}
	}
}
