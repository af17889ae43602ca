package store

import (
	"context"
	"database/sql"
	"fmt"
)

type DownloadRepository struct {
	db *sql.DB
}

func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

func (r *DownloadRepository) Record(ctx context.Context, d *SubtitleDownload) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subtitle_downloads (wanted_item_id, provider_name, external_id, file_path, score)
		VALUES (?, ?, ?, ?, ?)
	`, d.WantedItemID, d.ProviderName, d.ExternalID, d.FilePath, d.Score)
	if err != nil {
		return fmt.Errorf("store: record download: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (r *DownloadRepository) ListForWantedItem(ctx context.Context, wantedItemID int64) ([]SubtitleDownload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wanted_item_id, provider_name, external_id, file_path, score, downloaded_at
		FROM subtitle_downloads WHERE wanted_item_id = ? ORDER BY downloaded_at DESC
	`, wantedItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubtitleDownload
	for rows.Next() {
		var d SubtitleDownload
		if err := rows.Scan(&d.ID, &d.WantedItemID, &d.ProviderName, &d.ExternalID, &d.FilePath, &d.Score, &d.DownloadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
