// Package notify posts ETL run summaries to a Telegram chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel_etl/internal/pipeline"
)

// Notifier sends run reports via a Telegram bot.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New creates a Notifier for the given bot token and chat.
func New(token string, chatID int64) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Notifier{api: api, chatID: chatID}, nil
}

// SendReport sends a one-line summary of a completed run.
func (n *Notifier) SendReport(stats *pipeline.Stats) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatReport(stats))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// FormatReport renders the summary text for a completed run.
func FormatReport(stats *pipeline.Stats) string {
	return fmt.Sprintf("ETL завершён: raw=%d, parsed=%d, films=%d, topics=%d, skipped=%d",
		stats.RawPosts, stats.ParsedPosts, stats.Films, stats.Topics, stats.Skipped)
}
