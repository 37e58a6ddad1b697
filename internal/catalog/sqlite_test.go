package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"channel_etl/internal/model"
)

var _ Storage = (*SQLite)(nil)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRubricIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ids, err := s.RubricIDs(ctx)
	if err != nil {
		t.Fatalf("rubric ids: %v", err)
	}
	if len(ids) != 5 {
		t.Errorf("rubrics = %d, want 5 seeded", len(ids))
	}
	for _, slug := range []string{"visual-style", "music", "shooting", "inspiration", "quotes"} {
		if _, ok := ids[slug]; !ok {
			t.Errorf("rubric %q missing", slug)
		}
	}
}

func TestUpsertPost(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	rubrics, err := s.RubricIDs(ctx)
	if err != nil {
		t.Fatalf("rubric ids: %v", err)
	}
	rubricID := rubrics["music"]

	post := &Post{
		Slug:        "muzyka-vechera-10",
		SourceID:    "tg-10",
		Title:       "Музыка вечера",
		Subtitle:    "о саундтреках",
		Type:        model.PostNews,
		Body:        "Саундтрек недели #музыка",
		Excerpt:     "Саундтрек недели",
		PublishedAt: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
		RubricID:    &rubricID,
		Entities: model.EntitiesPayload{
			Films:  []string{},
			Names:  []string{},
			Topics: []string{"музыка"},
			Links:  []string{},
		},
	}
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("post id not populated")
	}

	firstID := post.ID
	post.Title = "Музыка вечера, обновлено"
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post again: %v", err)
	}
	if post.ID != firstID {
		t.Errorf("replayed upsert changed id: %d -> %d", firstID, post.ID)
	}

	got, err := s.PostBySlug(ctx, post.Slug)
	if err != nil {
		t.Fatalf("post by slug: %v", err)
	}
	if got.Title != "Музыка вечера, обновлено" {
		t.Errorf("title = %q, want updated value", got.Title)
	}
	if got.RubricID == nil || *got.RubricID != rubricID {
		t.Errorf("rubric id = %v, want %d", got.RubricID, rubricID)
	}
	if !got.PublishedAt.Equal(post.PublishedAt) {
		t.Errorf("published at = %v, want %v", got.PublishedAt, post.PublishedAt)
	}
	if diff := cmp.Diff(post.Entities, got.Entities); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

func TestSetHeroImage(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	post := &Post{
		Slug:        "post-1",
		SourceID:    "tg-1",
		Title:       "Пост",
		Type:        model.PostNews,
		PublishedAt: time.Now().UTC(),
	}
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post: %v", err)
	}
	if err := s.SetHeroImage(ctx, post.ID, "images/msg-1-11.jpg"); err != nil {
		t.Fatalf("set hero image: %v", err)
	}

	got, err := s.PostBySlug(ctx, post.Slug)
	if err != nil {
		t.Fatalf("post by slug: %v", err)
	}
	if got.HeroImage != "images/msg-1-11.jpg" {
		t.Errorf("hero image = %q", got.HeroImage)
	}
}

func TestUpsertTagAndLink(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	post := &Post{Slug: "post-1", SourceID: "tg-1", Title: "Пост", Type: model.PostNews, PublishedAt: time.Now().UTC()}
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post: %v", err)
	}

	tag := &Tag{Slug: "kino", Name: "#кино", Type: "hashtag"}
	if err := s.UpsertTag(ctx, tag); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}
	firstID := tag.ID
	if err := s.UpsertTag(ctx, tag); err != nil {
		t.Fatalf("upsert tag again: %v", err)
	}
	if tag.ID != firstID {
		t.Errorf("replayed upsert changed id: %d -> %d", firstID, tag.ID)
	}

	if err := s.LinkPostTag(ctx, post.ID, tag.ID); err != nil {
		t.Fatalf("link post tag: %v", err)
	}
	if err := s.LinkPostTag(ctx, post.ID, tag.ID); err != nil {
		t.Fatalf("duplicate link must be ignored: %v", err)
	}
}

func TestUpsertFilmAndLink(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	post := &Post{Slug: "post-1", SourceID: "tg-1", Title: "Пост", Type: model.PostReview, PublishedAt: time.Now().UTC()}
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post: %v", err)
	}

	film := &Film{
		Slug:            "stalker-1979",
		Title:           "Сталкер",
		NormalizedTitle: "Stalker",
		Year:            1979,
		Countries:       "СССР",
		AliasID:         "stalker-1979",
		Source:          model.SourceAlias,
		SearchTitle:     "stalker-1979",
	}
	if err := s.UpsertFilm(ctx, film); err != nil {
		t.Fatalf("upsert film: %v", err)
	}
	firstID := film.ID
	if err := s.UpsertFilm(ctx, film); err != nil {
		t.Fatalf("upsert film again: %v", err)
	}
	if film.ID != firstID {
		t.Errorf("replayed upsert changed id: %d -> %d", firstID, film.ID)
	}

	link := PostFilmLink{PostID: post.ID, FilmID: film.ID, RelationType: model.PostReview, Highlight: true}
	if err := s.LinkPostFilm(ctx, link); err != nil {
		t.Fatalf("link post film: %v", err)
	}
	link.Highlight = false
	if err := s.LinkPostFilm(ctx, link); err != nil {
		t.Fatalf("replayed link must update: %v", err)
	}
}

func TestUpsertMedia(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	post := &Post{Slug: "post-1", SourceID: "tg-1", Title: "Пост", Type: model.PostNews, PublishedAt: time.Now().UTC()}
	if err := s.UpsertPost(ctx, post); err != nil {
		t.Fatalf("upsert post: %v", err)
	}

	width, height := 1280, 720
	media := &Media{
		FileName:  "images/msg-1-11.jpg",
		Alt:       "кадр",
		Type:      model.MediaImage,
		Width:     &width,
		Height:    &height,
		SortOrder: 0,
		PostID:    post.ID,
	}
	if err := s.UpsertMedia(ctx, media); err != nil {
		t.Fatalf("upsert media: %v", err)
	}
	firstID := media.ID
	media.SortOrder = 2
	if err := s.UpsertMedia(ctx, media); err != nil {
		t.Fatalf("upsert media again: %v", err)
	}
	if media.ID != firstID {
		t.Errorf("replayed upsert changed id: %d -> %d", firstID, media.ID)
	}
}
