package store

import (
	"context"
	"database/sql"
	"fmt"
)

type BlacklistRepository struct {
	db *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

func (r *BlacklistRepository) Add(ctx context.Context, entry *BlacklistEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO blacklist_entries (provider_name, external_id, file_path, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(provider_name, external_id, file_path) DO NOTHING
	`, entry.ProviderName, entry.ExternalID, entry.FilePath, entry.Reason)
	if err != nil {
		return fmt.Errorf("store: add blacklist entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Contains reports whether (providerName, externalID) is blacklisted,
// optionally scoped to a specific file path.
func (r *BlacklistRepository) Contains(ctx context.Context, providerName, externalID, filePath string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM blacklist_entries
		WHERE provider_name = ? AND external_id = ? AND (file_path = ? OR file_path = '')
	`, providerName, externalID, filePath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: blacklist contains: %w", err)
	}
	return count > 0, nil
}

func (r *BlacklistRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blacklist_entries WHERE id = ?`, id)
	return err
}

func (r *BlacklistRepository) List(ctx context.Context) ([]BlacklistEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, provider_name, external_id, file_path, reason, created_at FROM blacklist_entries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.ID, &e.ProviderName, &e.ExternalID, &e.FilePath, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
