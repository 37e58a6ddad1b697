// Package group collapses raw export rows into logical messages.
package group

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"channel_etl/internal/model"
)

// dateLayouts are tried in order when parsing export timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Date parses an export date string. Exports separate date and time with
// a space; it is normalized to T first. Unparsable values fall back to
// the current wall clock so a message is never left without a timestamp.
func Date(value string) time.Time {
	normalized := value
	if !strings.Contains(normalized, "T") {
		normalized = strings.Replace(normalized, " ", "T", 1)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t
		}
	}
	return time.Now()
}

// Build groups export rows by message id and returns the messages sorted
// ascending by id. The longest combined text wins regardless of row
// order, so a richer caption arriving later is never dropped; the first
// row carrying a date decides the message timestamp. Rows without a
// message id are ignored.
func Build(items []model.MediaItem) []model.Message {
	byID := make(map[int64]*model.Message)
	for _, item := range items {
		if item.MessageID == 0 {
			continue
		}
		msg := byID[item.MessageID]
		if msg == nil {
			msg = &model.Message{ID: item.MessageID}
			byID[item.MessageID] = msg
		}

		combined := combineText(item)
		if combined != "" && utf8.RuneCountInString(combined) > utf8.RuneCountInString(msg.Text) {
			msg.Text = combined
		}
		if msg.Date == nil && item.OriginalDate != nil && *item.OriginalDate != "" {
			t := Date(*item.OriginalDate)
			msg.Date = &t
		}
		msg.Items = append(msg.Items, item)
	}

	messages := make([]model.Message, 0, len(byID))
	for _, msg := range byID {
		messages = append(messages, *msg)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages
}

func combineText(item model.MediaItem) string {
	var parts []string
	if item.MessageText != nil && *item.MessageText != "" {
		parts = append(parts, *item.MessageText)
	}
	if item.Caption != nil && *item.Caption != "" {
		parts = append(parts, *item.Caption)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
