package film

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"channel_etl/internal/model"
)

type spyLookup struct {
	movie *TMDBMovie
	err   error
	calls int
}

func (s *spyLookup) Search(_ context.Context, _ string, _ int) (*TMDBMovie, error) {
	s.calls++
	return s.movie, s.err
}

func newTestResolver(t *testing.T, lookup Lookup) *Resolver {
	t.Helper()
	aliases, err := LoadAliases("")
	if err != nil {
		t.Fatalf("load aliases: %v", err)
	}
	return NewResolver(NewAliasIndex(aliases), lookup, nil)
}

func TestResolveAlias(t *testing.T) {
	r := newTestResolver(t, nil)

	got, err := r.Resolve(context.Background(), model.FilmMention{Title: "Дитя человеческое", Year: 2006})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := &model.ResolvedFilm{
		Slug:            "ditya-chelovecheskoe-2006",
		Title:           "Дитя человеческое",
		NormalizedTitle: "Children of Men",
		OriginalTitle:   "Children of Men",
		Year:            2006,
		Countries:       "Великобритания, США",
		AliasID:         "ditya-chelovecheskoe-2006",
		Source:          model.SourceAlias,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved film mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveExternal(t *testing.T) {
	spy := &spyLookup{movie: &TMDBMovie{
		ID:            19995,
		Title:         "Аватар",
		OriginalTitle: "Avatar",
		Overview:      "Бывший морпех на Пандоре",
		ReleaseDate:   "2009-12-10",
		OriginCountry: []string{"US", "GB"},
	}}
	r := newTestResolver(t, spy)

	mention := model.FilmMention{Title: "Аватар", Year: 2009}
	got, err := r.Resolve(context.Background(), mention)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := &model.ResolvedFilm{
		Slug:            "avatar-2009",
		Title:           "Аватар",
		NormalizedTitle: "Avatar",
		OriginalTitle:   "Avatar",
		Year:            2009,
		Countries:       "US, GB",
		Source:          model.SourceExternal,
		TMDBID:          19995,
		Overview:        "Бывший морпех на Пандоре",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved film mismatch (-want +got):\n%s", diff)
	}

	again, err := r.Resolve(context.Background(), mention)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if spy.calls != 1 {
		t.Errorf("lookup calls = %d, want 1 (cached)", spy.calls)
	}
	if again != got {
		t.Error("repeated resolve must return the memoized record")
	}
}

func TestResolveLookupFailure(t *testing.T) {
	spy := &spyLookup{err: errors.New("boom")}
	r := newTestResolver(t, spy)

	mention := model.FilmMention{Title: "Матрица", Year: 1999}
	got, err := r.Resolve(context.Background(), mention)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Source != model.SourceDetected {
		t.Errorf("source = %q, want detected fallback", got.Source)
	}
	if got.Slug != "matritsa-1999" {
		t.Errorf("slug = %q, want matritsa-1999", got.Slug)
	}

	if _, err := r.Resolve(context.Background(), mention); err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if spy.calls != 1 {
		t.Errorf("lookup calls = %d, want 1 (negative cached)", spy.calls)
	}
}

func TestResolveDetectedWithoutLookup(t *testing.T) {
	r := newTestResolver(t, nil)

	got, err := r.Resolve(context.Background(), model.FilmMention{Title: "Безымянный", Year: 2020})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Source != model.SourceDetected {
		t.Errorf("source = %q, want detected", got.Source)
	}
	if got.Slug != "bezymyannyy-2020" {
		t.Errorf("slug = %q, want bezymyannyy-2020", got.Slug)
	}
}

func TestResolveSlugFallback(t *testing.T) {
	r := newTestResolver(t, nil)

	got, err := r.Resolve(context.Background(), model.FilmMention{Title: "???", Year: 0})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(got.Slug, "film-") {
		t.Errorf("slug = %q, want film- prefix", got.Slug)
	}
}
