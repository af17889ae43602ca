package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MetadataCacheRepository persists MetadataCacheEntry rows. Cache errors are
// expected to fail open at the caller: Get returning (nil, err) should be
// treated the same as a cache miss by callers in the metadata resolver.
type MetadataCacheRepository struct {
	db *sql.DB
}

func NewMetadataCacheRepository(db *sql.DB) *MetadataCacheRepository {
	return &MetadataCacheRepository{db: db}
}

func (r *MetadataCacheRepository) Get(ctx context.Context, cacheKey string) (*MetadataCacheEntry, error) {
	var e MetadataCacheEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT cache_key, provider, response_body, cached_at, expires_at
		FROM metadata_cache_entries WHERE cache_key = ?
	`, cacheKey).Scan(&e.CacheKey, &e.Provider, &e.ResponseBody, &e.CachedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: metadata cache get: %w", err)
	}
	if time.Now().After(e.ExpiresAt) {
		return nil, nil
	}
	return &e, nil
}

func (r *MetadataCacheRepository) Set(ctx context.Context, e MetadataCacheEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata_cache_entries (cache_key, provider, response_body, cached_at, expires_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			provider = excluded.provider,
			response_body = excluded.response_body,
			cached_at = CURRENT_TIMESTAMP,
			expires_at = excluded.expires_at
	`, e.CacheKey, e.Provider, e.ResponseBody, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("store: metadata cache set: %w", err)
	}
	return nil
}

func (r *MetadataCacheRepository) Delete(ctx context.Context, cacheKey string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata_cache_entries WHERE cache_key = ?`, cacheKey)
	return err
}

// PurgeExpired removes every cache row past its expiry, returning the count removed.
func (r *MetadataCacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM metadata_cache_entries WHERE expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
