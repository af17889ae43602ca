package store

import (
	"context"
	"database/sql"
	"fmt"
)

type HealthRepository struct {
	db *sql.DB
}

func NewHealthRepository(db *sql.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) Record(ctx context.Context, result *SubtitleHealthResult) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subtitle_health_results (check_name, severity, message, file_path, auto_fixed)
		VALUES (?, ?, ?, ?, ?)
	`, result.CheckName, result.Severity, result.Message, result.FilePath, result.AutoFixed)
	if err != nil {
		return fmt.Errorf("store: record health result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	result.ID = id
	return nil
}

// RecordBatch persists an entire health run's results in one transaction.
func (r *HealthRepository) RecordBatch(ctx context.Context, results []SubtitleHealthResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subtitle_health_results (check_name, severity, message, file_path, auto_fixed)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.ExecContext(ctx, res.CheckName, res.Severity, res.Message, res.FilePath, res.AutoFixed); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *HealthRepository) Latest(ctx context.Context, limit int) ([]SubtitleHealthResult, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, check_name, severity, message, file_path, auto_fixed, created_at
		FROM subtitle_health_results ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubtitleHealthResult
	for rows.Next() {
		var h SubtitleHealthResult
		if err := rows.Scan(&h.ID, &h.CheckName, &h.Severity, &h.Message, &h.FilePath, &h.AutoFixed, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
