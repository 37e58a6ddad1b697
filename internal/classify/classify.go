// Package classify assigns post types and rubrics using keyword heuristics.
package classify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"channel_etl/internal/model"
)

//go:embed rules.yaml
var defaultRules []byte

// Rubric is one ordered entry of the rubric keyword map.
type Rubric struct {
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

// Rules holds the keyword heuristics driving classification. Rubrics keep
// their file order; evaluation stops at the first hit.
type Rules struct {
	ReviewKeywords  []string `yaml:"review_keywords"`
	GalleryHints    []string `yaml:"gallery_hints"`
	GalleryMinMedia int      `yaml:"gallery_min_media"`
	ArticleMinRunes int      `yaml:"article_min_runes"`
	VideoMediaTypes []string `yaml:"video_media_types"`
	Rubrics         []Rubric `yaml:"rubrics"`
}

// Load reads a rule set from path, or the embedded defaults when path is
// empty.
func Load(path string) (*Rules, error) {
	data := defaultRules
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules: %w", err)
		}
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if r.GalleryMinMedia <= 0 {
		r.GalleryMinMedia = 3
	}
	if r.ArticleMinRunes <= 0 {
		r.ArticleMinRunes = 600
	}
	return &r, nil
}

// PostType picks the editorial type for a message. Rules are evaluated in
// fixed priority order: gallery, review, long-form article, news. The
// first match wins, so a long gallery-tagged message stays a gallery.
func (r *Rules) PostType(text string, mediaCount int, tags []string) model.PostType {
	lower := strings.ToLower(text)
	if mediaCount >= r.GalleryMinMedia && r.galleryHit(lower, tags) {
		return model.PostGallery
	}
	for _, keyword := range r.ReviewKeywords {
		if strings.Contains(lower, keyword) {
			return model.PostReview
		}
	}
	if utf8.RuneCountInString(text) > r.ArticleMinRunes {
		return model.PostArticle
	}
	return model.PostNews
}

func (r *Rules) galleryHit(lower string, tags []string) bool {
	for _, hint := range r.GalleryHints {
		if tag, ok := strings.CutPrefix(hint, "#"); ok {
			for _, t := range tags {
				if strings.EqualFold(t, tag) {
					return true
				}
			}
		}
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// RubricSlug returns the first rubric whose keyword list has a hit, as a
// substring of the lowercased text or an exact tag match. Returns "" when
// nothing matches.
func (r *Rules) RubricSlug(text string, tags []string) string {
	lower := strings.ToLower(text)
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[strings.ToLower(tag)] = struct{}{}
	}
	for _, rubric := range r.Rubrics {
		for _, keyword := range rubric.Keywords {
			if strings.Contains(lower, keyword) {
				return rubric.Slug
			}
			if _, ok := tagSet[keyword]; ok {
				return rubric.Slug
			}
		}
	}
	return ""
}

// MediaKind tags an export media type as image or video.
func (r *Rules) MediaKind(mediaType string) model.MediaKind {
	lower := strings.ToLower(mediaType)
	for _, v := range r.VideoMediaTypes {
		if lower == v {
			return model.MediaVideo
		}
	}
	return model.MediaImage
}
