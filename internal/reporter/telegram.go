package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-jobscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// sendInterval keeps a burst of postings under the Bot API's per-chat limit.
const sendInterval = time.Second

// sender is the part of *tgbotapi.BotAPI the sink needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts a run summary followed by up to max postings to one chat.
type TelegramSink struct {
	bot    sender
	chatID int64
	max    int
	limit  *rate.Limiter
	log    *slog.Logger
}

// NewTelegramSink authenticates against the Bot API. client may be nil.
func NewTelegramSink(token string, chatID int64, maxPostings int, client *http.Client, logger *slog.Logger) (*TelegramSink, error) {
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	sink := newTelegramSink(bot, chatID, maxPostings, logger)
	sink.limit = rate.NewLimiter(rate.Every(sendInterval), 1)
	return sink, nil
}

func newTelegramSink(bot sender, chatID int64, maxPostings int, logger *slog.Logger) *TelegramSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramSink{bot: bot, chatID: chatID, max: maxPostings, limit: rate.NewLimiter(rate.Inf, 1), log: logger.With("component", "reporter", "format", "telegram")}
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

// inside (...) of an inline link only these two need escaping
var linkEscaper = strings.NewReplacer("\\", "\\\\", ")", "\\)")

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func (t *TelegramSink) Write(ctx context.Context, res models.RunResult) error {
	if err := t.send(ctx, summaryText(res), nil); err != nil {
		return err
	}
	for i, p := range res.Postings {
		if t.max > 0 && i >= t.max {
			break
		}
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", p.URL)),
		)
		if err := t.send(ctx, postingText(p), &keyboard); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramSink) send(ctx context.Context, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if err := t.limit.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func summaryText(res models.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Job run finished*\n%d new postings\n", res.Len())
	for _, ts := range res.Tasks {
		line := fmt.Sprintf("%s: scraped %d, seen %d, dropped %d, reported %d", ts.Site, ts.Scraped, ts.AlreadySeen, ts.Dropped, ts.Reported)
		if ts.Error != "" {
			line += " (" + ts.Error + ")"
		}
		b.WriteString("• " + escapeMarkdown(line) + "\n")
	}
	return b.String()
}

func postingText(p models.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 *%s*\n", escapeMarkdown(p.Title))
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(orNA(p.Company)))
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(orNA(p.Location)))
	if p.Comment != models.CommentNone {
		fmt.Fprintf(&b, "🤖 Fit: %s\n", escapeMarkdown(string(p.Comment)))
	}
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(p.Site))
	fmt.Fprintf(&b, "🔗 [View Job](%s)", linkEscaper.Replace(p.URL))
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
