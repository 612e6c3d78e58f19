// Package bot is the Telegram front door: it extracts expense records from
// chat messages, stores them, and hands out dashboard links.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/extract"
	applog "kharcha/internal/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Available commands:\n" +
	"/start - Welcome message\n" +
	"/add - Add expense\n" +
	"/view - View your expense dashboard"

// Extractor pulls structured expense fields out of free text.
type Extractor interface {
	Extract(ctx context.Context, text string) (extract.Fields, error)
}

// Store is the slice of the repository the bot needs.
type Store interface {
	CreateExpense(ctx context.Context, rec core.Record) (core.Record, error)
}

// Publisher requests a spreadsheet backup for a stored record.
type Publisher interface {
	PublishRecordSync(ctx context.Context, id int64) error
}

// Reply is an outgoing message.
type Reply struct {
	Text                  string
	ParseMode             string
	DisableWebPagePreview bool
}

// Handler turns incoming messages into replies. It holds no Telegram
// transport state, so tests drive it with constructed messages.
type Handler struct {
	store        Store
	extractor    Extractor
	publisher    Publisher
	dashboardURL string
	logger       *applog.Logger
	now          func() time.Time
}

func NewHandler(store Store, extractor Extractor, publisher Publisher, dashboardURL string, logger *applog.Logger) *Handler {
	return &Handler{
		store:        store,
		extractor:    extractor,
		publisher:    publisher,
		dashboardURL: dashboardURL,
		logger:       logger.WithComponent(applog.ComponentBot),
		now:          time.Now,
	}
}

// HandleMessage dispatches a single incoming message. A nil reply means
// nothing should be sent.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) *Reply {
	if msg == nil {
		return nil
	}

	switch msg.Command() {
	case "start":
		return &Reply{Text: "Welcome! use /add to add expense."}
	case "add":
		return h.handleAdd(ctx, msg)
	case "view":
		return h.handleView(msg)
	case "":
		// Plain text is ignored; expenses must come through /add.
		return nil
	default:
		return &Reply{Text: helpText}
	}
}

func (h *Handler) handleAdd(ctx context.Context, msg *tgbotapi.Message) *Reply {
	if msg.From == nil {
		return &Reply{Text: "can't fetch user's id"}
	}

	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		return &Reply{Text: "can't fetch user expense message"}
	}

	fields, err := h.extractor.Extract(ctx, text)
	if err != nil {
		h.logger.WarnContext(ctx, "Expense extraction failed", "error", err)
		return &Reply{Text: "can't parse user expense message"}
	}
	if err := fields.Validate(); err != nil {
		h.logger.WarnContext(ctx, "Extraction incomplete", "error", err)
		return &Reply{Text: "can't parse user expense message"}
	}

	rec := fields.Record()
	rec.UserID = strconv.FormatInt(msg.From.ID, 10)
	rec.CreatedAt = h.now().UTC().Format(time.RFC3339)

	created, err := h.store.CreateExpense(ctx, rec)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to store expense", "error", err)
		return &Reply{Text: "can't insert expense data to database"}
	}

	if h.publisher != nil {
		// Backup is best effort; the pending scan catches lost messages.
		if err := h.publisher.PublishRecordSync(ctx, created.ID); err != nil {
			h.logger.WarnContext(ctx, "Failed to publish backup request", "id", created.ID, "error", err)
		}
	}

	createdAt, err := core.ParseInstant(created.CreatedAt)
	if err != nil {
		createdAt = h.now().UTC()
	}

	return &Reply{Text: fmt.Sprintf(
		"Expense added:\nAmount: %g\nCreated at: %s\nCategory: %s\nType: %s\nDescription: %s",
		created.Amount,
		core.FormatReadable(createdAt),
		created.Category,
		created.Type,
		created.Description,
	)}
}

func (h *Handler) handleView(msg *tgbotapi.Message) *Reply {
	if msg.From == nil {
		return &Reply{Text: "can't fetch user's id"}
	}

	url := fmt.Sprintf("%s?user_id=%d", h.dashboardURL, msg.From.ID)
	return &Reply{
		Text:                  fmt.Sprintf("[View your dashboard](%s)", url),
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
	}
}
