package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type FilterPresetRepository struct {
	db *sql.DB
}

func NewFilterPresetRepository(db *sql.DB) *FilterPresetRepository {
	return &FilterPresetRepository{db: db}
}

func (r *FilterPresetRepository) Create(ctx context.Context, p *FilterPreset) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO filter_presets (name, condition_tree) VALUES (?, ?)
	`, p.Name, p.ConditionTree)
	if err != nil {
		return fmt.Errorf("store: create filter preset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *FilterPresetRepository) Get(ctx context.Context, id int64) (*FilterPreset, error) {
	var p FilterPreset
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, condition_tree, created_at FROM filter_presets WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.ConditionTree, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get filter preset: %w", err)
	}
	return &p, nil
}

func (r *FilterPresetRepository) List(ctx context.Context) ([]FilterPreset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, condition_tree, created_at FROM filter_presets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FilterPreset
	for rows.Next() {
		var p FilterPreset
		if err := rows.Scan(&p.ID, &p.Name, &p.ConditionTree, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *FilterPresetRepository) Update(ctx context.Context, p FilterPreset) error {
	_, err := r.db.ExecContext(ctx, `UPDATE filter_presets SET name = ?, condition_tree = ? WHERE id = ?`, p.Name, p.ConditionTree, p.ID)
	return err
}

func (r *FilterPresetRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE id = ?`, id)
	return err
}
