package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"channel_etl/internal/model"
)

func TestTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "distinct in first-seen order",
			text: "#Кино и #кино, потом #cinema_2024 и снова #Кино",
			want: []string{"Кино", "кино", "cinema_2024"},
		},
		{name: "no tags", text: "просто текст", want: nil},
		{name: "empty", text: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Tags(tt.text)); diff != "" {
				t.Errorf("Tags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	text := "см. (https://example.com/a) и http://b.ru/path?x=1 дважды http://b.ru/path?x=1"
	want := []string{"https://example.com/a", "http://b.ru/path?x=1", "http://b.ru/path?x=1"}
	if diff := cmp.Diff(want, Links(text)); diff != "" {
		t.Errorf("Links mismatch (-want +got):\n%s", diff)
	}
}

func TestFilmMention(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *model.FilmMention
	}{
		{
			name: "guillemets",
			text: "Сегодня пересматривал «Дитя человеческое» (2006), отличный фильм",
			want: &model.FilmMention{Title: "Дитя человеческое", Year: 2006},
		},
		{
			name: "straight quotes",
			text: `Кадры из "Blade Runner" (1982)`,
			want: &model.FilmMention{Title: "Blade Runner", Year: 1982},
		},
		{
			name: "bare title",
			text: "Интерстеллар (2014) и его музыка",
			want: &model.FilmMention{Title: "Интерстеллар", Year: 2014},
		},
		{
			name: "guillemets win over bare",
			text: "текст «Сталкер» (1979) текст",
			want: &model.FilmMention{Title: "Сталкер", Year: 1979},
		},
		{name: "no mention", text: "пост без фильмов", want: nil},
		{name: "year alone", text: "(1999) без названия", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FilmMention(tt.text)); diff != "" {
				t.Errorf("FilmMention mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{name: "first non-empty line", text: "\n\nЗаголовок\nтело", fallback: "x", want: "Заголовок"},
		{name: "fallback on empty", text: "  \n  ", fallback: "Пост 7", want: "Пост 7"},
		{name: "truncated to 120 runes", text: strings.Repeat("а", 150), fallback: "x", want: strings.Repeat("а", 120)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.text, tt.fallback); got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubtitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "second non-empty line", text: "Заголовок\n\nПодзаголовок\nтело", want: "Подзаголовок"},
		{name: "single line", text: "Заголовок", want: ""},
		{name: "empty", text: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subtitle(tt.text); got != tt.want {
				t.Errorf("Subtitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("б", 300)
	if got := Excerpt(long); got != strings.Repeat("б", 280) {
		t.Errorf("Excerpt did not truncate to 280 runes, got %d", len([]rune(got)))
	}
	if got := Excerpt("короткий"); got != "короткий" {
		t.Errorf("Excerpt = %q, want unchanged", got)
	}
}

func TestEntities(t *testing.T) {
	got := Entities("текст с https://example.com", []string{"Кино"}, "Сталкер")
	want := model.EntitiesPayload{
		Films:  []string{"Сталкер"},
		Names:  []string{},
		Topics: []string{"кино"},
		Links:  []string{"https://example.com"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}

	empty := Entities("", nil, "")
	if empty.Films == nil || empty.Names == nil || empty.Topics == nil || empty.Links == nil {
		t.Error("Entities must never return nil slices")
	}
}
