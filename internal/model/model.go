// Package model defines the domain types used across the application.
package model

import "time"

// PostType classifies the editorial shape of a parsed post.
type PostType string

// Supported post types, ordered by classification priority.
const (
	PostGallery PostType = "GALLERY"
	PostReview  PostType = "REVIEW"
	PostArticle PostType = "ARTICLE"
	PostNews    PostType = "NEWS"
)

// FilmSource describes how a film identity was established.
type FilmSource string

// Supported film provenance values.
const (
	SourceAlias    FilmSource = "alias"
	SourceExternal FilmSource = "external"
	SourceDetected FilmSource = "detected"
)

// MediaKind tags a media descriptor as image or video.
type MediaKind string

// Supported media kinds.
const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// TopicKind distinguishes hashtag topics from rubric topics.
type TopicKind string

// Supported topic kinds.
const (
	TopicHashtag TopicKind = "hashtag"
	TopicRubric  TopicKind = "rubric"
)

// MediaItem is one raw media attachment row as read from the channel
// export. It is never mutated after decoding.
type MediaItem struct {
	ID               int64   `json:"id" validate:"required"`
	MessageID        int64   `json:"message_id" validate:"required"`
	OriginalFilename *string `json:"original_filename,omitempty"`
	FilePath         *string `json:"file_path,omitempty"`
	MediaType        string  `json:"media_type" validate:"required"`
	MimeType         *string `json:"mime_type,omitempty"`
	Caption          *string `json:"caption,omitempty"`
	MessageText      *string `json:"message_text,omitempty"`
	OriginalDate     *string `json:"original_date,omitempty"`
	Width            *int    `json:"width,omitempty"`
	Height           *int    `json:"height,omitempty"`
}

// Export is the channel export document.
type Export struct {
	MediaFiles []MediaItem `json:"media_files" validate:"dive"`
}

// Message is one logical post grouped from the export rows sharing a
// message id. Date is nil when no row carried a usable timestamp; the
// publication time then defaults to the moment of processing.
type Message struct {
	ID    int64
	Text  string
	Date  *time.Time
	Items []MediaItem
}

// PublishedAt resolves the message timestamp, falling back to now.
func (m *Message) PublishedAt() time.Time {
	if m.Date != nil {
		return *m.Date
	}
	return time.Now()
}

// FilmMention is a title/year pair detected in message text, prior to
// identity resolution.
type FilmMention struct {
	Title string
	Year  int
}

// ResolvedFilm is a canonical film identity, deduplicated by slug across
// the whole run. It doubles as the films output stream record.
type ResolvedFilm struct {
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	NormalizedTitle string     `json:"normalized_title,omitempty"`
	OriginalTitle   string     `json:"original_title,omitempty"`
	Year            int        `json:"year,omitempty"`
	Countries       string     `json:"countries,omitempty"`
	AliasID         string     `json:"alias_id,omitempty"`
	Source          FilmSource `json:"source"`
	TMDBID          int64      `json:"tmdb_id,omitempty"`
	Overview        string     `json:"overview,omitempty"`
}

// Topic aggregates a hashtag or rubric over the run. PostIDs is a set so
// a message referencing the same tag twice is counted once.
type Topic struct {
	Slug    string
	Label   string
	Kind    TopicKind
	PostIDs map[int64]struct{}
}

// TopicRecord is the topics output stream record.
type TopicRecord struct {
	Slug      string    `json:"slug"`
	Label     string    `json:"label"`
	Kind      TopicKind `json:"type"`
	PostCount int       `json:"post_count"`
}

// EntitiesPayload bundles the structured entities stored with a post.
// Names is reserved for a capability handled outside this pipeline and
// stays empty so consumers see a stable schema.
type EntitiesPayload struct {
	Films  []string `json:"films"`
	Names  []string `json:"names"`
	Topics []string `json:"topics"`
	Links  []string `json:"links"`
}

// RawMedia is a raw media descriptor in the raw posts stream.
type RawMedia struct {
	TelegramMediaID  int64   `json:"telegram_media_id"`
	FilePath         *string `json:"file_path"`
	OriginalFilename *string `json:"original_filename"`
	MediaType        string  `json:"media_type"`
	MimeType         *string `json:"mime_type"`
	Caption          *string `json:"caption"`
	Width            *int    `json:"width"`
	Height           *int    `json:"height"`
}

// RawPayload carries the untouched export rows of a message.
type RawPayload struct {
	Items []MediaItem `json:"items"`
}

// RawPost is the raw posts output stream record.
type RawPost struct {
	MessageID   int64      `json:"message_id"`
	MessageDate *string    `json:"message_date"`
	MessageText string     `json:"message_text"`
	Media       []RawMedia `json:"media"`
	Payload     RawPayload `json:"payload"`
}

// ParsedMedia is an ordered media descriptor of a parsed post.
type ParsedMedia struct {
	TelegramMediaID  int64     `json:"telegram_media_id"`
	SortOrder        int       `json:"sort_order"`
	Type             MediaKind `json:"type"`
	FilePath         *string   `json:"file_path"`
	OriginalFilename *string   `json:"original_filename"`
	Caption          *string   `json:"caption"`
	Width            *int      `json:"width"`
	Height           *int      `json:"height"`
}

// PostFilm is the film reference embedded in a parsed post.
type PostFilm struct {
	Title           string     `json:"title"`
	NormalizedTitle string     `json:"normalized_title,omitempty"`
	Year            int        `json:"year,omitempty"`
	Countries       string     `json:"countries,omitempty"`
	AliasID         string     `json:"alias_id,omitempty"`
	Source          FilmSource `json:"source"`
	TMDBID          int64      `json:"tmdb_id,omitempty"`
}

// ParsedPost is the pipeline's terminal record for a message.
type ParsedPost struct {
	MessageID   int64           `json:"message_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Subtitle    *string         `json:"subtitle"`
	PostType    PostType        `json:"post_type"`
	PublishedAt time.Time       `json:"published_at"`
	Excerpt     *string         `json:"excerpt"`
	Tags        []string        `json:"tags"`
	RubricSlug  *string         `json:"rubric_slug"`
	HeroMediaID *int64          `json:"hero_media_id"`
	Media       []ParsedMedia   `json:"media"`
	Film        *PostFilm       `json:"film"`
	Entities    EntitiesPayload `json:"entities"`
}
