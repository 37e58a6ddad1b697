// Package extract pulls structured entities out of message text.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"channel_etl/internal/model"
)

var (
	tagPattern  = regexp.MustCompile(`#([A-Za-zА-Яа-я0-9_]+)`)
	linkPattern = regexp.MustCompile(`(?i)https?://[^\s)]+`)

	// filmPatterns are tried in order; the first hit wins. A message is
	// assumed to be about at most one film, trading recall for precision.
	filmPatterns = []*regexp.Regexp{
		regexp.MustCompile(`«([^»]+)»\s*\((\d{4})\)`),
		regexp.MustCompile(`"([^"]+)"\s*\((\d{4})\)`),
		regexp.MustCompile(`([A-Za-zА-ЯЁа-яё0-9'’\-:\s]+?)\s*\((\d{4})\)`),
	}
)

// Tags returns the distinct hashtags of the text in first-seen order,
// without the # prefix.
func Tags(text string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

// Links returns every http(s) URL of the text, duplicates included, in
// order of appearance.
func Links(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// FilmMention finds a single title(year) film reference, or nil when the
// text carries none.
func FilmMention(text string) *model.FilmMention {
	for _, pattern := range filmPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		return &model.FilmMention{Title: strings.TrimSpace(m[1]), Year: year}
	}
	return nil
}

// Entities bundles the structured payload stored alongside a parsed post.
// filmTitle may be empty when no mention was detected.
func Entities(text string, tags []string, filmTitle string) model.EntitiesPayload {
	films := []string{}
	if filmTitle != "" {
		films = append(films, filmTitle)
	}
	topics := make([]string, 0, len(tags))
	for _, tag := range tags {
		topics = append(topics, strings.ToLower(tag))
	}
	links := Links(text)
	if links == nil {
		links = []string{}
	}
	return model.EntitiesPayload{
		Films:  films,
		Names:  []string{},
		Topics: topics,
		Links:  links,
	}
}

// Title returns the first non-empty line of the text truncated to 120
// runes, or fallback when the text has no content.
func Title(text, fallback string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return truncate(line, 120)
		}
	}
	return fallback
}

// Subtitle returns the second non-empty line truncated to 140 runes, or
// "" when the text has fewer than two lines.
func Subtitle(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 1 {
		return truncate(lines[1], 140)
	}
	return ""
}

// Excerpt returns the first 280 runes of the text.
func Excerpt(text string) string {
	return truncate(text, 280)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
