package classify

import (
	"path/filepath"
	"strings"
	"testing"

	"channel_etl/internal/model"
)

func loadDefault(t *testing.T) *Rules {
	t.Helper()
	r, err := Load("")
	if err != nil {
		t.Fatalf("load embedded rules: %v", err)
	}
	return r
}

func TestLoadDefaults(t *testing.T) {
	r := loadDefault(t)
	if len(r.Rubrics) != 5 {
		t.Errorf("rubrics = %d, want 5", len(r.Rubrics))
	}
	if r.Rubrics[0].Slug != "visual-style" {
		t.Errorf("first rubric = %q, want visual-style", r.Rubrics[0].Slug)
	}
	if r.GalleryMinMedia != 3 {
		t.Errorf("gallery_min_media = %d, want 3", r.GalleryMinMedia)
	}
	if r.ArticleMinRunes != 600 {
		t.Errorf("article_min_runes = %d, want 600", r.ArticleMinRunes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing rules file")
	}
}

func TestPostType(t *testing.T) {
	r := loadDefault(t)
	longText := strings.Repeat("кинотеатр ", 70) // 700 runes, keyword-free

	tests := []struct {
		name       string
		text       string
		mediaCount int
		tags       []string
		want       model.PostType
	}{
		{
			name:       "gallery by tag",
			text:       longText,
			mediaCount: 3,
			tags:       []string{"gallery"},
			want:       model.PostGallery,
		},
		{
			name:       "gallery by text hint",
			text:       "подборка кадров недели",
			mediaCount: 3,
			want:       model.PostGallery,
		},
		{
			name:       "gallery needs enough media",
			text:       "короткий пост",
			mediaCount: 2,
			tags:       []string{"gallery"},
			want:       model.PostNews,
		},
		{
			name: "review keyword",
			text: "Мой обзор фильма",
			want: model.PostReview,
		},
		{
			name: "review beats article",
			text: longText + " разбор",
			want: model.PostReview,
		},
		{
			name: "long text is article",
			text: longText,
			want: model.PostArticle,
		},
		{
			name: "default news",
			text: "короткая заметка",
			want: model.PostNews,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.PostType(tt.text, tt.mediaCount, tt.tags)
			if got != tt.want {
				t.Errorf("PostType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRubricSlug(t *testing.T) {
	r := loadDefault(t)

	tests := []struct {
		name string
		text string
		tags []string
		want string
	}{
		{name: "text keyword", text: "Как выставить свет в сцене", want: "visual-style"},
		{name: "tag keyword", text: "пятничное", tags: []string{"OST"}, want: "music"},
		{name: "first rubric wins", text: "саундтрек и свет", want: "visual-style"},
		{name: "no match", text: "ничего тематического", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RubricSlug(tt.text, tt.tags); got != tt.want {
				t.Errorf("RubricSlug = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaKind(t *testing.T) {
	r := loadDefault(t)

	tests := []struct {
		mediaType string
		want      model.MediaKind
	}{
		{mediaType: "Видео", want: model.MediaVideo},
		{mediaType: "video", want: model.MediaVideo},
		{mediaType: "gif", want: model.MediaVideo},
		{mediaType: "Фото", want: model.MediaImage},
		{mediaType: "", want: model.MediaImage},
	}

	for _, tt := range tests {
		if got := r.MediaKind(tt.mediaType); got != tt.want {
			t.Errorf("MediaKind(%q) = %q, want %q", tt.mediaType, got, tt.want)
		}
	}
}
