package store

import (
	"context"
	"database/sql"
)

type CleanupRepository struct {
	db *sql.DB
}

func NewCleanupRepository(db *sql.DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

func (r *CleanupRepository) ListRules(ctx context.Context) ([]CleanupRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, condition_tree, action, enabled, created_at FROM cleanup_rules WHERE enabled = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CleanupRule
	for rows.Next() {
		var c CleanupRule
		if err := rows.Scan(&c.ID, &c.Name, &c.ConditionTree, &c.Action, &c.Enabled, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CleanupRepository) CreateRule(ctx context.Context, c *CleanupRule) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cleanup_rules (name, condition_tree, action, enabled) VALUES (?, ?, ?, ?)
	`, c.Name, c.ConditionTree, c.Action, c.Enabled)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *CleanupRepository) AppendHistory(ctx context.Context, h *CleanupHistoryEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cleanup_history_entries (rule_id, file_path, action) VALUES (?, ?, ?)
	`, h.RuleID, h.FilePath, h.Action)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (r *CleanupRepository) Stats(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cleanup_history_entries`).Scan(&n)
	return n, err
}
