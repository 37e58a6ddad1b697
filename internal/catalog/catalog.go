// Package catalog persists parsed content into the publishing database.
package catalog

import (
	"context"
	"time"

	"channel_etl/internal/model"
)

// Post is a catalog post row.
type Post struct {
	ID          int64
	Slug        string
	SourceID    string
	Title       string
	Subtitle    string
	Type        model.PostType
	Body        string
	Excerpt     string
	PublishedAt time.Time
	HeroImage   string
	RubricID    *int64
	Entities    model.EntitiesPayload
}

// Tag is a catalog tag row.
type Tag struct {
	ID   int64
	Slug string
	Name string
	Type string
}

// Film is a catalog film row.
type Film struct {
	ID              int64
	Slug            string
	Title           string
	NormalizedTitle string
	OriginalTitle   string
	Year            int
	Countries       string
	AliasID         string
	Source          model.FilmSource
	TMDBID          int64
	Overview        string
	SearchTitle     string
}

// PostFilmLink relates a post to a film it covers.
type PostFilmLink struct {
	PostID       int64
	FilmID       int64
	RelationType model.PostType
	Highlight    bool
}

// Media is a catalog media row pointing at a copied asset file.
type Media struct {
	ID        int64
	FileName  string
	Alt       string
	Type      model.MediaKind
	Width     *int
	Height    *int
	SortOrder int
	PostID    int64
	FilmID    *int64
}

// Storage is the interface for all catalog persistence operations.
// Upserts are keyed by natural keys (slug, file name) so re-importing
// the same export is idempotent.
type Storage interface {
	RubricIDs(ctx context.Context) (map[string]int64, error)

	UpsertPost(ctx context.Context, post *Post) error
	SetHeroImage(ctx context.Context, postID int64, path string) error

	UpsertTag(ctx context.Context, tag *Tag) error
	LinkPostTag(ctx context.Context, postID, tagID int64) error

	UpsertFilm(ctx context.Context, film *Film) error
	LinkPostFilm(ctx context.Context, link PostFilmLink) error

	UpsertMedia(ctx context.Context, media *Media) error

	Close() error
}
