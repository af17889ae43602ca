package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type HookRepository struct {
	db *sql.DB
}

func NewHookRepository(db *sql.DB) *HookRepository {
	return &HookRepository{db: db}
}

func (r *HookRepository) CreateHook(ctx context.Context, h *HookDefinition) error {
	events, err := json.Marshal(h.Events)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hook_definitions (name, events, command, timeout_seconds, enabled)
		VALUES (?, ?, ?, ?, ?)
	`, h.Name, string(events), h.Command, h.TimeoutSeconds, h.Enabled)
	if err != nil {
		return fmt.Errorf("store: create hook: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (r *HookRepository) ListHooks(ctx context.Context) ([]HookDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, events, command, timeout_seconds, enabled, created_at FROM hook_definitions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HookDefinition
	for rows.Next() {
		var h HookDefinition
		var events string
		if err := rows.Scan(&h.ID, &h.Name, &events, &h.Command, &h.TimeoutSeconds, &h.Enabled, &h.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(events), &h.Events); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HookRepository) CreateWebhook(ctx context.Context, w *WebhookDefinition) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_definitions (name, events, url, template, max_retries, enabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.Name, string(events), w.URL, w.Template, w.MaxRetries, w.Enabled)
	if err != nil {
		return fmt.Errorf("store: create webhook: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = id
	return nil
}

func (r *HookRepository) ListWebhooks(ctx context.Context) ([]WebhookDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, events, url, template, max_retries, enabled, created_at FROM webhook_definitions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WebhookDefinition
	for rows.Next() {
		var w WebhookDefinition
		var events string
		if err := rows.Scan(&w.ID, &w.Name, &events, &w.URL, &w.Template, &w.MaxRetries, &w.Enabled, &w.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *HookRepository) AppendLog(ctx context.Context, l *HookLog) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hook_logs (subscriber_kind, subscriber_id, event, success, output, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.SubscriberKind, l.SubscriberID, l.Event, l.Success, l.Output, l.DurationMS)
	if err != nil {
		return fmt.Errorf("store: append hook log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *HookRepository) ListLogs(ctx context.Context, subscriberKind string, subscriberID int64) ([]HookLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subscriber_kind, subscriber_id, event, success, output, duration_ms, created_at
		FROM hook_logs WHERE subscriber_kind = ? AND subscriber_id = ? ORDER BY created_at DESC
	`, subscriberKind, subscriberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HookLog
	for rows.Next() {
		var l HookLog
		if err := rows.Scan(&l.ID, &l.SubscriberKind, &l.SubscriberID, &l.Event, &l.Success, &l.Output, &l.DurationMS, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var errHookNotFound = errors.New("store: hook not found")

func (r *HookRepository) GetHook(ctx context.Context, id int64) (*HookDefinition, error) {
	var h HookDefinition
	var events string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, events, command, timeout_seconds, enabled, created_at FROM hook_definitions WHERE id = ?
	`, id).Scan(&h.ID, &h.Name, &events, &h.Command, &h.TimeoutSeconds, &h.Enabled, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errHookNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &h.Events); err != nil {
		return nil, err
	}
	return &h, nil
}
