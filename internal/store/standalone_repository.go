package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type StandaloneMediaKind string

const (
	StandaloneSeries StandaloneMediaKind = "series"
	StandaloneMovie  StandaloneMediaKind = "movie"
)

type StandaloneMedia struct {
	ID              int64
	Kind            StandaloneMediaKind
	NormalizedTitle string
	Year            int
	Title           string
	IsAnime         bool
	ResolverName    string
	ExternalID      string
	ProfileID       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type StandaloneMediaFile struct {
	ID                int64
	StandaloneMediaID int64
	FilePath          string
	Season            int
	Episode           int
	CreatedAt         time.Time
}

// StandaloneRepository persists the series/movie groupings the standalone
// scanner produces and the individual files assigned to each group.
type StandaloneRepository struct {
	db *sql.DB
}

func NewStandaloneRepository(db *sql.DB) *StandaloneRepository {
	return &StandaloneRepository{db: db}
}

// UpsertMedia creates or updates the (kind, normalized_title, year) group,
// filling m.ID with the resolved row's id either way.
func (r *StandaloneRepository) UpsertMedia(ctx context.Context, m *StandaloneMedia) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO standalone_media (kind, normalized_title, year, title, is_anime, resolver_name, external_id, profile_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, normalized_title, year) DO UPDATE SET
			title = excluded.title,
			is_anime = excluded.is_anime,
			resolver_name = excluded.resolver_name,
			external_id = excluded.external_id,
			updated_at = CURRENT_TIMESTAMP
	`, string(m.Kind), m.NormalizedTitle, m.Year, m.Title, m.IsAnime, m.ResolverName, m.ExternalID, nullableID(m.ProfileID))
	if err != nil {
		return fmt.Errorf("store: upsert standalone media: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		SELECT id FROM standalone_media WHERE kind = ? AND normalized_title = ? AND year IS ?
	`, string(m.Kind), m.NormalizedTitle, m.Year).Scan(&m.ID)
	return err
}

// AssignFile attaches filePath to a standalone media group, replacing any
// previous (season, episode) recorded for that exact path.
func (r *StandaloneRepository) AssignFile(ctx context.Context, mediaID int64, filePath string, season, episode int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO standalone_media_files (standalone_media_id, file_path, season, episode)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET standalone_media_id = excluded.standalone_media_id, season = excluded.season, episode = excluded.episode
	`, mediaID, filePath, nullableInt(season), nullableInt(episode))
	if err != nil {
		return fmt.Errorf("store: assign standalone file: %w", err)
	}
	return nil
}

func (r *StandaloneRepository) Get(ctx context.Context, kind StandaloneMediaKind, normalizedTitle string, year int) (*StandaloneMedia, error) {
	var m StandaloneMedia
	var k string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, normalized_title, year, title, is_anime, resolver_name, external_id, created_at, updated_at
		FROM standalone_media WHERE kind = ? AND normalized_title = ? AND year IS ?
	`, string(kind), normalizedTitle, year).Scan(&m.ID, &k, &m.NormalizedTitle, &m.Year, &m.Title, &m.IsAnime, &m.ResolverName, &m.ExternalID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Kind = StandaloneMediaKind(k)
	return &m, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
