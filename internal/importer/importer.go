// Package importer loads a channel export straight into the catalog
// database, copying media assets alongside.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"channel_etl/internal/catalog"
	"channel_etl/internal/classify"
	"channel_etl/internal/export"
	"channel_etl/internal/extract"
	"channel_etl/internal/group"
	"channel_etl/internal/model"
	"channel_etl/internal/slug"
)

// Resolver resolves film mentions to canonical identities.
type Resolver interface {
	Resolve(ctx context.Context, mention model.FilmMention) (*model.ResolvedFilm, error)
}

// Stats summarizes a completed import.
type Stats struct {
	Posts   int
	Films   int
	Tags    int
	Media   int
	Skipped int
}

// Importer writes parsed posts, films, tags and media into the catalog.
type Importer struct {
	store    catalog.Storage
	resolver Resolver
	rules    *classify.Rules
	log      *slog.Logger

	mediaDir  string // where export media files live
	outputDir string // public assets root, files land in images/
}

// New creates an Importer. mediaDir may be empty, in which case media
// rows are recorded without copying files.
func New(store catalog.Storage, resolver Resolver, rules *classify.Rules, mediaDir, outputDir string, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		store:     store,
		resolver:  resolver,
		rules:     rules,
		log:       log,
		mediaDir:  mediaDir,
		outputDir: outputDir,
	}
}

// Run imports the export at jsonPath. Failures on a single message are
// absorbed, counted and logged; a load failure aborts the whole run.
func (im *Importer) Run(ctx context.Context, jsonPath string) (*Stats, error) {
	doc, err := export.Load(jsonPath)
	if err != nil {
		return nil, err
	}

	messages := group.Build(doc.MediaFiles)
	im.log.Info("importing messages", "count", len(messages))

	rubricIDs, err := im.store.RubricIDs(ctx)
	if err != nil {
		return nil, err
	}

	if im.mediaDir != "" {
		if err := os.MkdirAll(filepath.Join(im.outputDir, "images"), 0o750); err != nil {
			return nil, fmt.Errorf("create images dir: %w", err)
		}
	}

	stats := &Stats{}
	seenFilms := make(map[string]int64)
	seenTags := make(map[string]int64)

	for i, msg := range messages {
		if err := im.importMessage(ctx, msg, rubricIDs, seenFilms, seenTags, stats); err != nil {
			stats.Skipped++
			im.log.Warn("message skipped", "message_id", msg.ID, "error", err)
		}
		if (i+1)%100 == 0 {
			im.log.Info("import progress", "done", i+1, "total", len(messages))
		}
	}

	stats.Films = len(seenFilms)
	stats.Tags = len(seenTags)
	im.log.Info("import finished",
		"posts", stats.Posts,
		"films", stats.Films,
		"tags", stats.Tags,
		"media", stats.Media,
		"skipped", stats.Skipped)
	return stats, nil
}

func (im *Importer) importMessage(
	ctx context.Context,
	msg model.Message,
	rubricIDs map[string]int64,
	seenFilms map[string]int64,
	seenTags map[string]int64,
	stats *Stats,
) error {
	text := msg.Text
	rawTags := extract.Tags(text)
	tags := make([]string, 0, len(rawTags))
	for _, tag := range rawTags {
		tags = append(tags, strings.ToLower(tag))
	}

	postType := im.rules.PostType(text, len(msg.Items), tags)
	title := extract.Title(text, fmt.Sprintf("Пост %d", msg.ID))
	slugBase := slug.Make(title)
	if slugBase == "" {
		slugBase = "post"
	}
	rubric := im.rules.RubricSlug(text, tags)
	mention := extract.FilmMention(text)

	filmTitle := ""
	var resolved *model.ResolvedFilm
	if mention != nil {
		filmTitle = mention.Title
		var err error
		resolved, err = im.resolver.Resolve(ctx, *mention)
		if err != nil {
			return fmt.Errorf("resolve film: %w", err)
		}
	}

	var rubricID *int64
	if rubric != "" {
		if id, ok := rubricIDs[rubric]; ok {
			rubricID = &id
		}
	}

	post := &catalog.Post{
		Slug:        fmt.Sprintf("%s-%d", slugBase, msg.ID),
		SourceID:    fmt.Sprintf("tg-%d", msg.ID),
		Title:       title,
		Subtitle:    extract.Subtitle(text),
		Type:        postType,
		Body:        text,
		Excerpt:     extract.Excerpt(text),
		PublishedAt: msg.PublishedAt().UTC(),
		RubricID:    rubricID,
		Entities:    extract.Entities(text, rawTags, filmTitle),
	}
	if err := im.store.UpsertPost(ctx, post); err != nil {
		return err
	}
	stats.Posts++

	for _, rawTag := range rawTags {
		tagSlug := slug.Make(strings.ToLower(rawTag))
		if tagSlug == "" {
			continue
		}
		tagID, ok := seenTags[tagSlug]
		if !ok {
			tag := &catalog.Tag{
				Slug: tagSlug,
				Name: "#" + strings.ReplaceAll(rawTag, "_", " "),
				Type: "hashtag",
			}
			if err := im.store.UpsertTag(ctx, tag); err != nil {
				return err
			}
			tagID = tag.ID
			seenTags[tagSlug] = tagID
		}
		if err := im.store.LinkPostTag(ctx, post.ID, tagID); err != nil {
			return err
		}
	}

	if resolved != nil {
		filmID, ok := seenFilms[resolved.Slug]
		if !ok {
			film := &catalog.Film{
				Slug:            resolved.Slug,
				Title:           resolved.Title,
				NormalizedTitle: resolved.NormalizedTitle,
				OriginalTitle:   resolved.OriginalTitle,
				Year:            resolved.Year,
				Countries:       resolved.Countries,
				AliasID:         resolved.AliasID,
				Source:          resolved.Source,
				TMDBID:          resolved.TMDBID,
				Overview:        resolved.Overview,
				SearchTitle:     slug.SearchKey(resolved.Title, resolved.Year),
			}
			if err := im.store.UpsertFilm(ctx, film); err != nil {
				return err
			}
			filmID = film.ID
			seenFilms[resolved.Slug] = filmID
		}
		link := catalog.PostFilmLink{
			PostID:       post.ID,
			FilmID:       filmID,
			RelationType: postType,
			Highlight:    postType == model.PostReview,
		}
		if err := im.store.LinkPostFilm(ctx, link); err != nil {
			return err
		}
	}

	return im.importMedia(ctx, msg, post.ID, stats)
}

// importMedia copies each attachment into the public images directory
// and records a media row. Attachments whose source file is missing are
// dropped with a warning rather than failing the message.
func (im *Importer) importMedia(ctx context.Context, msg model.Message, postID int64, stats *Stats) error {
	var heroSet bool
	for i, item := range msg.Items {
		kind := im.rules.MediaKind(item.MediaType)

		relPath, err := im.copyMediaFile(msg.ID, item)
		if err != nil {
			im.log.Warn("media file missing", "message_id", msg.ID, "media_id", item.ID, "error", err)
			continue
		}

		media := &catalog.Media{
			FileName:  relPath,
			Alt:       derefOr(item.Caption, ""),
			Type:      kind,
			Width:     item.Width,
			Height:    item.Height,
			SortOrder: i,
			PostID:    postID,
		}
		if err := im.store.UpsertMedia(ctx, media); err != nil {
			return err
		}
		stats.Media++

		if !heroSet && kind == model.MediaImage {
			if err := im.store.SetHeroImage(ctx, postID, relPath); err != nil {
				return err
			}
			heroSet = true
		}
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// copyMediaFile copies one attachment into outputDir/images and returns
// the path relative to the public root.
func (im *Importer) copyMediaFile(messageID int64, item model.MediaItem) (string, error) {
	ext := mediaExt(item)
	destFile := unsafeChars.ReplaceAllString(fmt.Sprintf("msg-%d-%d%s", messageID, item.ID, ext), "_")
	relPath := "images/" + destFile

	if im.mediaDir == "" {
		return relPath, nil
	}

	src := ""
	if item.FilePath != nil && *item.FilePath != "" {
		src = filepath.Join(im.mediaDir, filepath.Base(*item.FilePath))
	} else if item.OriginalFilename != nil && *item.OriginalFilename != "" {
		src = filepath.Join(im.mediaDir, *item.OriginalFilename)
	}
	if src == "" {
		return "", fmt.Errorf("no source path for media %d", item.ID)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(filepath.Join(im.outputDir, "images", destFile))
	if err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copy media: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close destination: %w", err)
	}
	return relPath, nil
}

func mediaExt(item model.MediaItem) string {
	if item.OriginalFilename != nil {
		if ext := filepath.Ext(*item.OriginalFilename); ext != "" {
			return ext
		}
	}
	if item.FilePath != nil {
		if ext := filepath.Ext(*item.FilePath); ext != "" {
			return ext
		}
	}
	return ".jpg"
}

func derefOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}
