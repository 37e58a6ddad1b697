package film

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"channel_etl/internal/model"
	"channel_etl/internal/slug"
)

// Lookup queries an external metadata source for a film by title and year.
type Lookup interface {
	Search(ctx context.Context, title string, year int) (*TMDBMovie, error)
}

// Resolver resolves film mentions against the alias table, falling back
// to an external lookup and finally to the mention itself. Lookup results
// are cached for the lifetime of the resolver, negatives included, and
// resolved films are memoized by slug so one identity yields one record
// per run. The resolver is touched only from the single processing path
// and needs no locking.
type Resolver struct {
	aliases *AliasIndex
	lookup  Lookup // nil disables external lookups
	log     *slog.Logger

	lookupCache map[string]*TMDBMovie
	films       map[string]*model.ResolvedFilm
}

// NewResolver creates a Resolver. Pass a nil lookup to disable external
// metadata queries for the run.
func NewResolver(aliases *AliasIndex, lookup Lookup, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		aliases:     aliases,
		lookup:      lookup,
		log:         log,
		lookupCache: make(map[string]*TMDBMovie),
		films:       make(map[string]*model.ResolvedFilm),
	}
}

// Resolve returns the canonical identity for a mention. For a slug that
// was already resolved this run the first record wins and is returned
// unchanged, whatever the later mention carried.
func (r *Resolver) Resolve(ctx context.Context, mention model.FilmMention) (*model.ResolvedFilm, error) {
	resolved := r.resolve(ctx, mention)
	resolved.Slug = r.slugFor(resolved)
	if existing, ok := r.films[resolved.Slug]; ok {
		return existing, nil
	}
	r.films[resolved.Slug] = resolved
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, mention model.FilmMention) *model.ResolvedFilm {
	if alias := r.aliases.Find(mention.Title, mention.Year); alias != nil {
		title := alias.Title
		if title == "" {
			title = mention.Title
		}
		normalized := alias.OriginalTitle
		if normalized == "" {
			normalized = title
		}
		year := alias.Year
		if year == 0 {
			year = mention.Year
		}
		return &model.ResolvedFilm{
			Title:           title,
			NormalizedTitle: normalized,
			OriginalTitle:   normalized,
			Year:            year,
			Countries:       alias.Countries,
			AliasID:         alias.ID,
			Source:          model.SourceAlias,
		}
	}

	if movie := r.external(ctx, mention); movie != nil {
		title := movie.Title
		if title == "" {
			title = mention.Title
		}
		normalized := movie.OriginalTitle
		if normalized == "" {
			normalized = mention.Title
		}
		year := releaseYear(movie.ReleaseDate)
		if year == 0 {
			year = mention.Year
		}
		return &model.ResolvedFilm{
			Title:           title,
			NormalizedTitle: normalized,
			OriginalTitle:   normalized,
			Year:            year,
			Countries:       strings.Join(movie.OriginCountry, ", "),
			Source:          model.SourceExternal,
			TMDBID:          movie.ID,
			Overview:        movie.Overview,
		}
	}

	return &model.ResolvedFilm{
		Title:           mention.Title,
		NormalizedTitle: mention.Title,
		OriginalTitle:   mention.Title,
		Year:            mention.Year,
		Source:          model.SourceDetected,
	}
}

// external consults the lookup cache before the metadata source. Lookup
// failures are cached as negatives: a flaky source must not fail the run,
// and resolution falls through to the detected fallback.
func (r *Resolver) external(ctx context.Context, mention model.FilmMention) *TMDBMovie {
	if r.lookup == nil {
		return nil
	}
	key := cacheKey(mention)
	if movie, ok := r.lookupCache[key]; ok {
		return movie
	}
	movie, err := r.lookup.Search(ctx, mention.Title, mention.Year)
	if err != nil {
		r.log.Warn("metadata lookup failed", "title", mention.Title, "year", mention.Year, "error", err)
		movie = nil
	}
	r.lookupCache[key] = movie
	return movie
}

func (r *Resolver) slugFor(f *model.ResolvedFilm) string {
	if f.AliasID != "" {
		return f.AliasID
	}
	year := ""
	if f.Year > 0 {
		year = strconv.Itoa(f.Year)
	}
	if s := slug.Make(f.NormalizedTitle + "-" + year); s != "" {
		return s
	}
	return "film-" + strings.ToLower(ulid.Make().String())
}

func cacheKey(m model.FilmMention) string {
	year := "unknown"
	if m.Year > 0 {
		year = strconv.Itoa(m.Year)
	}
	return strings.ToLower(m.Title) + "-" + year
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
