// Package pipeline orchestrates the export-to-catalog ETL run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"channel_etl/internal/classify"
	"channel_etl/internal/export"
	"channel_etl/internal/extract"
	"channel_etl/internal/group"
	"channel_etl/internal/model"
	"channel_etl/internal/ndjson"
	"channel_etl/internal/slug"
)

// Output file names inside the run's output directory.
const (
	RawPostsFile    = "raw_posts.ndjson"
	ParsedPostsFile = "parsed_posts.ndjson"
	FilmsFile       = "films.ndjson"
	TopicsFile      = "topics.ndjson"
)

// Resolver resolves film mentions to canonical identities.
type Resolver interface {
	Resolve(ctx context.Context, mention model.FilmMention) (*model.ResolvedFilm, error)
}

// Options control a single run.
type Options struct {
	JSONPath string
	OutDir   string
	Since    *time.Time
	Limit    int
}

// Stats summarizes a completed run.
type Stats struct {
	Messages    int // after filtering
	RawPosts    int
	ParsedPosts int
	Films       int
	Topics      int
	Skipped     int
}

// Pipeline drives LOAD, FILTER, PROCESS, FLUSH and REPORT for one export.
// Messages are processed strictly sequentially in ascending id order so
// slug collisions, film memoization and topic aggregation stay
// reproducible across runs on the same input.
type Pipeline struct {
	resolver Resolver
	rules    *classify.Rules
	log      *slog.Logger
}

// New creates a Pipeline.
func New(resolver Resolver, rules *classify.Rules, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{resolver: resolver, rules: rules, log: log}
}

// Run executes the whole ETL for the export at opts.JSONPath. A load or
// validation failure aborts before any output file exists; failures while
// processing a single message are absorbed, counted and logged.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Stats, error) {
	doc, err := export.Load(opts.JSONPath)
	if err != nil {
		return nil, err
	}

	messages := filterMessages(group.Build(doc.MediaFiles), opts.Since, opts.Limit)
	p.log.Info("messages after filtering", "count", len(messages), "since", sinceLabel(opts.Since), "limit", opts.Limit)

	if err := os.MkdirAll(opts.OutDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	rawWriter, err := ndjson.Create(filepath.Join(opts.OutDir, RawPostsFile))
	if err != nil {
		return nil, err
	}
	parsedWriter, err := ndjson.Create(filepath.Join(opts.OutDir, ParsedPostsFile))
	if err != nil {
		_ = rawWriter.Close()
		return nil, err
	}

	stats := &Stats{Messages: len(messages)}
	films := make(map[string]*model.ResolvedFilm)
	topics := make(map[string]*model.Topic)

	for _, msg := range messages {
		if err := p.process(ctx, msg, rawWriter, parsedWriter, films, topics, stats); err != nil {
			stats.Skipped++
			p.log.Warn("message skipped", "message_id", msg.ID, "error", err)
		}
	}

	if err := rawWriter.Close(); err != nil {
		_ = parsedWriter.Close()
		return nil, err
	}
	if err := parsedWriter.Close(); err != nil {
		return nil, err
	}

	filmRecords := sortedFilms(films)
	topicRecords := sortedTopics(topics)
	if err := ndjson.WriteFile(filepath.Join(opts.OutDir, FilmsFile), filmRecords); err != nil {
		return nil, err
	}
	if err := ndjson.WriteFile(filepath.Join(opts.OutDir, TopicsFile), topicRecords); err != nil {
		return nil, err
	}
	stats.Films = len(filmRecords)
	stats.Topics = len(topicRecords)

	p.log.Info("etl finished",
		"raw", stats.RawPosts,
		"parsed", stats.ParsedPosts,
		"films", stats.Films,
		"topics", stats.Topics,
		"skipped", stats.Skipped)
	return stats, nil
}

// process derives everything for one message before writing anything, so
// a failed message is omitted from both per-message streams.
func (p *Pipeline) process(
	ctx context.Context,
	msg model.Message,
	rawWriter, parsedWriter *ndjson.Writer,
	films map[string]*model.ResolvedFilm,
	topics map[string]*model.Topic,
	stats *Stats,
) error {
	text := msg.Text
	rawTags := extract.Tags(text)
	tags := make([]string, 0, len(rawTags))
	for _, tag := range rawTags {
		tags = append(tags, strings.ToLower(tag))
	}

	postType := p.rules.PostType(text, len(msg.Items), tags)
	title := extract.Title(text, fmt.Sprintf("Пост %d", msg.ID))
	slugBase := slug.Make(title)
	if slugBase == "" {
		slugBase = "post"
	}
	rubric := p.rules.RubricSlug(text, tags)
	mention := extract.FilmMention(text)

	filmTitle := ""
	var resolved *model.ResolvedFilm
	if mention != nil {
		filmTitle = mention.Title
		var err error
		resolved, err = p.resolver.Resolve(ctx, *mention)
		if err != nil {
			return fmt.Errorf("resolve film: %w", err)
		}
	}

	media := make([]model.ParsedMedia, 0, len(msg.Items))
	var heroID *int64
	for i, item := range msg.Items {
		kind := p.rules.MediaKind(item.MediaType)
		media = append(media, model.ParsedMedia{
			TelegramMediaID:  item.ID,
			SortOrder:        i,
			Type:             kind,
			FilePath:         item.FilePath,
			OriginalFilename: item.OriginalFilename,
			Caption:          item.Caption,
			Width:            item.Width,
			Height:           item.Height,
		})
		if heroID == nil && kind == model.MediaImage {
			id := item.ID
			heroID = &id
		}
	}

	parsed := model.ParsedPost{
		MessageID:   msg.ID,
		Slug:        fmt.Sprintf("%s-%d", slugBase, msg.ID),
		Title:       title,
		Subtitle:    optional(extract.Subtitle(text)),
		PostType:    postType,
		PublishedAt: msg.PublishedAt().UTC(),
		Excerpt:     optional(extract.Excerpt(text)),
		Tags:        tags,
		RubricSlug:  optional(rubric),
		HeroMediaID: heroID,
		Media:       media,
		Entities:    extract.Entities(text, rawTags, filmTitle),
	}
	if resolved != nil {
		parsed.Film = &model.PostFilm{
			Title:           resolved.Title,
			NormalizedTitle: resolved.NormalizedTitle,
			Year:            resolved.Year,
			Countries:       resolved.Countries,
			AliasID:         resolved.AliasID,
			Source:          resolved.Source,
			TMDBID:          resolved.TMDBID,
		}
	}

	if err := rawWriter.Write(buildRaw(msg)); err != nil {
		return err
	}
	stats.RawPosts++
	if err := parsedWriter.Write(parsed); err != nil {
		return err
	}
	stats.ParsedPosts++

	// Indices are updated only after both records landed, so a skipped
	// message never leaks into film or topic aggregates.
	if resolved != nil {
		if _, ok := films[resolved.Slug]; !ok {
			films[resolved.Slug] = resolved
		}
	}
	for _, rawTag := range rawTags {
		tagSlug := slug.Make(strings.ToLower(rawTag))
		if tagSlug == "" {
			continue
		}
		label := "#" + strings.ReplaceAll(rawTag, "_", " ")
		addTopic(topics, model.TopicHashtag, tagSlug, label, msg.ID)
	}
	if rubric != "" {
		addTopic(topics, model.TopicRubric, rubric, rubric, msg.ID)
	}
	return nil
}

func buildRaw(msg model.Message) model.RawPost {
	media := make([]model.RawMedia, 0, len(msg.Items))
	for _, item := range msg.Items {
		media = append(media, model.RawMedia{
			TelegramMediaID:  item.ID,
			FilePath:         item.FilePath,
			OriginalFilename: item.OriginalFilename,
			MediaType:        item.MediaType,
			MimeType:         item.MimeType,
			Caption:          item.Caption,
			Width:            item.Width,
			Height:           item.Height,
		})
	}
	var date *string
	if msg.Date != nil {
		v := msg.Date.UTC().Format(time.RFC3339)
		date = &v
	}
	return model.RawPost{
		MessageID:   msg.ID,
		MessageDate: date,
		MessageText: msg.Text,
		Media:       media,
		Payload:     model.RawPayload{Items: msg.Items},
	}
}

func addTopic(topics map[string]*model.Topic, kind model.TopicKind, topicSlug, label string, messageID int64) {
	key := string(kind) + ":" + topicSlug
	entry := topics[key]
	if entry == nil {
		entry = &model.Topic{
			Slug:    topicSlug,
			Label:   label,
			Kind:    kind,
			PostIDs: make(map[int64]struct{}),
		}
		topics[key] = entry
	}
	entry.PostIDs[messageID] = struct{}{}
}

func filterMessages(messages []model.Message, since *time.Time, limit int) []model.Message {
	if since != nil {
		kept := make([]model.Message, 0, len(messages))
		for _, msg := range messages {
			if msg.Date == nil || !msg.Date.Before(*since) {
				kept = append(kept, msg)
			}
		}
		messages = kept
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages
}

func sortedFilms(films map[string]*model.ResolvedFilm) []*model.ResolvedFilm {
	records := make([]*model.ResolvedFilm, 0, len(films))
	for _, f := range films {
		records = append(records, f)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Slug < records[j].Slug })
	return records
}

func sortedTopics(topics map[string]*model.Topic) []model.TopicRecord {
	records := make([]model.TopicRecord, 0, len(topics))
	for _, t := range topics {
		records = append(records, model.TopicRecord{
			Slug:      t.Slug,
			Label:     t.Label,
			Kind:      t.Kind,
			PostCount: len(t.PostIDs),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Slug != records[j].Slug {
			return records[i].Slug < records[j].Slug
		}
		return records[i].Kind < records[j].Kind
	})
	return records
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func sinceLabel(since *time.Time) string {
	if since == nil {
		return "-"
	}
	return since.UTC().Format(time.RFC3339)
}
