package store

import (
	"context"
	"database/sql"
	"fmt"
)

type HashRepository struct {
	db *sql.DB
}

func NewHashRepository(db *sql.DB) *HashRepository {
	return &HashRepository{db: db}
}

func (r *HashRepository) Upsert(ctx context.Context, h SubtitleContentHash) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subtitle_content_hashes (file_path, content_hash, size_bytes, computed_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			computed_at = CURRENT_TIMESTAMP
	`, h.FilePath, h.ContentHash, h.SizeBytes)
	if err != nil {
		return fmt.Errorf("store: upsert content hash: %w", err)
	}
	return nil
}

// DuplicateGroup is every file sharing one content hash.
type DuplicateGroup struct {
	ContentHash string
	Files       []SubtitleContentHash
}

// DuplicateGroups returns every content hash with 2 or more files attached.
func (r *HashRepository) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	hashRows, err := r.db.QueryContext(ctx, `
		SELECT content_hash FROM subtitle_content_hashes GROUP BY content_hash HAVING COUNT(*) > 1
	`)
	if err != nil {
		return nil, fmt.Errorf("store: duplicate groups: %w", err)
	}
	var hashes []string
	for hashRows.Next() {
		var h string
		if err := hashRows.Scan(&h); err != nil {
			hashRows.Close()
			return nil, err
		}
		hashes = append(hashes, h)
	}
	hashRows.Close()
	if err := hashRows.Err(); err != nil {
		return nil, err
	}

	var groups []DuplicateGroup
	for _, hash := range hashes {
		rows, err := r.db.QueryContext(ctx, `
			SELECT id, file_path, content_hash, size_bytes, computed_at
			FROM subtitle_content_hashes WHERE content_hash = ?
		`, hash)
		if err != nil {
			return nil, err
		}
		var files []SubtitleContentHash
		for rows.Next() {
			var f SubtitleContentHash
			if err := rows.Scan(&f.ID, &f.FilePath, &f.ContentHash, &f.SizeBytes, &f.ComputedAt); err != nil {
				rows.Close()
				return nil, err
			}
			files = append(files, f)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		groups = append(groups, DuplicateGroup{ContentHash: hash, Files: files})
	}
	return groups, nil
}

// DeleteByFilePath removes the tracked hash row for a file that was deleted
// from disk by the deduplication pass.
func (r *HashRepository) DeleteByFilePath(ctx context.Context, filePath string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subtitle_content_hashes WHERE file_path = ?`, filePath)
	return err
}

// ListAll returns every tracked content-hash row, used by the health
// engine's orphan-detection pass to compare against video basenames on disk.
func (r *HashRepository) ListAll(ctx context.Context) ([]SubtitleContentHash, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, file_path, content_hash, size_bytes, computed_at FROM subtitle_content_hashes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubtitleContentHash
	for rows.Next() {
		var f SubtitleContentHash
		if err := rows.Scan(&f.ID, &f.FilePath, &f.ContentHash, &f.SizeBytes, &f.ComputedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Orphans returns hash rows whose file no longer exists among liveFilePaths,
// used by the health engine's orphan-detection check.
func (r *HashRepository) Orphans(ctx context.Context, liveFilePaths map[string]struct{}) ([]SubtitleContentHash, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, file_path, content_hash, size_bytes, computed_at FROM subtitle_content_hashes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubtitleContentHash
	for rows.Next() {
		var f SubtitleContentHash
		if err := rows.Scan(&f.ID, &f.FilePath, &f.ContentHash, &f.SizeBytes, &f.ComputedAt); err != nil {
			return nil, err
		}
		if _, live := liveFilePaths[f.FilePath]; !live {
			out = append(out, f)
		}
	}
	return out, rows.Err()
}
