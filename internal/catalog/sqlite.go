package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"channel_etl/internal/model"
	"channel_etl/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RubricIDs returns the slug-to-id mapping of all seeded rubrics.
func (s *SQLite) RubricIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, id FROM rubrics`)
	if err != nil {
		return nil, fmt.Errorf("query rubrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]int64)
	for rows.Next() {
		var slug string
		var id int64
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, fmt.Errorf("scan rubric: %w", err)
		}
		ids[slug] = id
	}
	return ids, rows.Err()
}

// UpsertPost inserts or updates a post by slug and populates its ID.
func (s *SQLite) UpsertPost(ctx context.Context, post *Post) error {
	entities, err := json.Marshal(post.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (slug, source_id, title, subtitle, type, body, excerpt, published_at, hero_image, rubric_id, entities)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		   title = excluded.title,
		   subtitle = excluded.subtitle,
		   type = excluded.type,
		   body = excluded.body,
		   excerpt = excluded.excerpt,
		   published_at = excluded.published_at,
		   rubric_id = excluded.rubric_id,
		   entities = excluded.entities`,
		post.Slug, post.SourceID, post.Title, nullString(post.Subtitle), string(post.Type),
		post.Body, nullString(post.Excerpt), post.PublishedAt.UTC().Format(timeLayout),
		nullString(post.HeroImage), post.RubricID, string(entities),
	)
	if err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}
	return s.db.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = ?`, post.Slug).Scan(&post.ID)
}

// SetHeroImage records the hero image path of a post.
func (s *SQLite) SetHeroImage(ctx context.Context, postID int64, path string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE posts SET hero_image = ? WHERE id = ?`, path, postID)
	if err != nil {
		return fmt.Errorf("set hero image: %w", err)
	}
	return nil
}

// UpsertTag inserts or updates a tag by slug and populates its ID.
func (s *SQLite) UpsertTag(ctx context.Context, tag *Tag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (slug, name, type) VALUES (?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET name = excluded.name`,
		tag.Slug, tag.Name, tag.Type,
	)
	if err != nil {
		return fmt.Errorf("upsert tag: %w", err)
	}
	return s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE slug = ?`, tag.Slug).Scan(&tag.ID)
}

// LinkPostTag relates a post to a tag, ignoring duplicates.
func (s *SQLite) LinkPostTag(ctx context.Context, postID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tagID)
	if err != nil {
		return fmt.Errorf("link post tag: %w", err)
	}
	return nil
}

// UpsertFilm inserts or updates a film by slug and populates its ID.
func (s *SQLite) UpsertFilm(ctx context.Context, film *Film) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO films (slug, title, normalized_title, original_title, year, countries, alias_id, source, tmdb_id, overview, search_title)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		   title = excluded.title,
		   normalized_title = excluded.normalized_title,
		   original_title = excluded.original_title,
		   year = excluded.year,
		   countries = excluded.countries,
		   overview = excluded.overview,
		   search_title = excluded.search_title`,
		film.Slug, film.Title, nullString(film.NormalizedTitle), nullString(film.OriginalTitle),
		nullInt(film.Year), nullString(film.Countries), nullString(film.AliasID),
		string(film.Source), nullInt64(film.TMDBID), nullString(film.Overview),
		nullString(film.SearchTitle),
	)
	if err != nil {
		return fmt.Errorf("upsert film: %w", err)
	}
	return s.db.QueryRowContext(ctx, `SELECT id FROM films WHERE slug = ?`, film.Slug).Scan(&film.ID)
}

// LinkPostFilm relates a post to a film, updating the relation on replay.
func (s *SQLite) LinkPostFilm(ctx context.Context, link PostFilmLink) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post_films (post_id, film_id, relation_type, highlight) VALUES (?, ?, ?, ?)
		 ON CONFLICT(post_id, film_id) DO UPDATE SET
		   relation_type = excluded.relation_type,
		   highlight = excluded.highlight`,
		link.PostID, link.FilmID, string(link.RelationType), boolToInt(link.Highlight),
	)
	if err != nil {
		return fmt.Errorf("link post film: %w", err)
	}
	return nil
}

// UpsertMedia inserts or updates a media row by file name.
func (s *SQLite) UpsertMedia(ctx context.Context, media *Media) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (file_name, alt, type, width, height, sort_order, post_id, film_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_name) DO UPDATE SET
		   alt = excluded.alt,
		   type = excluded.type,
		   sort_order = excluded.sort_order,
		   post_id = excluded.post_id,
		   film_id = excluded.film_id`,
		media.FileName, nullString(media.Alt), string(media.Type), media.Width, media.Height,
		media.SortOrder, media.PostID, media.FilmID,
	)
	if err != nil {
		return fmt.Errorf("upsert media: %w", err)
	}
	return s.db.QueryRowContext(ctx, `SELECT id FROM media WHERE file_name = ?`, media.FileName).Scan(&media.ID)
}

// PostBySlug returns a stored post, mostly for verification and tooling.
func (s *SQLite) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slug, source_id, title, subtitle, type, body, excerpt, published_at, hero_image, rubric_id, entities
		 FROM posts WHERE slug = ?`, slug)

	var p Post
	var subtitle, excerpt, hero, published sql.NullString
	var rubricID sql.NullInt64
	var entities string
	var postType string
	err := row.Scan(&p.ID, &p.Slug, &p.SourceID, &p.Title, &subtitle, &postType, &p.Body,
		&excerpt, &published, &hero, &rubricID, &entities)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	p.Type = model.PostType(postType)
	p.Subtitle = subtitle.String
	p.Excerpt = excerpt.String
	p.HeroImage = hero.String
	if published.Valid {
		p.PublishedAt, _ = time.Parse(timeLayout, published.String)
	}
	if rubricID.Valid {
		v := rubricID.Int64
		p.RubricID = &v
	}
	if err := json.Unmarshal([]byte(entities), &p.Entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return &p, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
