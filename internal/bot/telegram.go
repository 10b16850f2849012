package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hodl-digest/internal/domain"
	"hodl-digest/internal/service"

	tele "gopkg.in/telebot.v3"
)

// maxMessageRunes keeps previews below Telegram's 4096 character limit.
const maxMessageRunes = 3500

// DigestPreviewer renders the current digest without publishing it.
type DigestPreviewer interface {
	Generate(ctx context.Context) (*service.Report, error)
}

type sendFunc func(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)

// Bot answers /ping and /digest and announces published digests to one chat.
type Bot struct {
	bot     *tele.Bot
	chatID  int64
	reports DigestPreviewer
	send    sendFunc
}

var newTeleBot = tele.NewBot

// StartTelegramBot returns nil when token is empty.
func StartTelegramBot(token string, chatID int64, reports DigestPreviewer) *Bot {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}, chatID, reports)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return nil
	}

	log.Printf("Telegram bot started chat_id=%d", chatID)
	go b.bot.Start()
	return b
}

func newBot(pref tele.Settings, chatID int64, reports DigestPreviewer) (*Bot, error) {
	tb, err := newTeleBot(pref)
	if err != nil {
		return nil, err
	}
	b := &Bot{bot: tb, chatID: chatID, reports: reports, send: tb.Send}
	tb.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	tb.Handle("/digest", func(c tele.Context) error {
		return c.Send(b.digestReply(context.Background()))
	})
	return b, nil
}

func (b *Bot) digestReply(ctx context.Context) string {
	if b.reports == nil {
		return "Digest service unavailable"
	}
	report, err := b.reports.Generate(ctx)
	if err != nil {
		return fmt.Sprintf("Error generating digest: %v", err)
	}
	return digestMessage(report)
}

func digestMessage(report *service.Report) string {
	var sb strings.Builder
	sb.WriteString(report.Article.Title)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "snapshots=%d changes=%d charts=%d", report.Snapshots, report.ChangeEvents, len(report.Charts))
	if report.ChartsDegraded > 0 {
		fmt.Fprintf(&sb, " degraded=%d", report.ChartsDegraded)
	}
	sb.WriteString("\n\n")
	sb.WriteString(report.Article.Content)
	return truncateRunes(sb.String(), maxMessageRunes)
}

func publishedMessage(result *domain.ReportRunResult) string {
	msg := fmt.Sprintf("Published %s\nsnapshots=%d changes=%d charts=%d",
		result.Title, result.Snapshots, result.ChangeEvents, result.ChartsRendered)
	if result.ChartsDegraded > 0 {
		msg += fmt.Sprintf(" degraded=%d", result.ChartsDegraded)
	}
	return msg
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "\n…"
}

// NotifyPublished implements service.Notifier.
func (b *Bot) NotifyPublished(ctx context.Context, result *domain.ReportRunResult) error {
	if b.chatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID not set")
	}
	if _, err := b.send(tele.ChatID(b.chatID), publishedMessage(result)); err != nil {
		return fmt.Errorf("telegram notify chat_id=%d: %w", b.chatID, err)
	}
	return nil
}

func (b *Bot) Stop() {
	if b != nil && b.bot != nil {
		b.bot.Stop()
	}
}
