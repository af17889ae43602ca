package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindTemplate resolves a template using the fallback chain
// (service, event) -> (event) -> nil, leaving "use the hardcoded default
// template" to the caller when every lookup misses.
func (r *NotificationRepository) FindTemplate(ctx context.Context, service, event string) (*NotificationTemplate, error) {
	if service != "" {
		t, err := r.lookupTemplate(ctx, service, event)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
	return r.lookupTemplate(ctx, "", event)
}

func (r *NotificationRepository) lookupTemplate(ctx context.Context, service, event string) (*NotificationTemplate, error) {
	var t NotificationTemplate
	err := r.db.QueryRowContext(ctx, `
		SELECT id, service, event, body, created_at FROM notification_templates WHERE service = ? AND event = ?
	`, service, event).Scan(&t.ID, &t.Service, &t.Event, &t.Body, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find template: %w", err)
	}
	return &t, nil
}

func (r *NotificationRepository) UpsertTemplate(ctx context.Context, t NotificationTemplate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_templates (service, event, body) VALUES (?, ?, ?)
		ON CONFLICT(service, event) DO UPDATE SET body = excluded.body
	`, t.Service, t.Event, t.Body)
	return err
}

func (r *NotificationRepository) ListTemplates(ctx context.Context) ([]NotificationTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, service, event, body, created_at FROM notification_templates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NotificationTemplate
	for rows.Next() {
		var t NotificationTemplate
		if err := rows.Scan(&t.ID, &t.Service, &t.Event, &t.Body, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) ListQuietHours(ctx context.Context) ([]QuietHoursRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, start_minute, end_minute, exception_events, enabled FROM quiet_hours_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuietHoursRule
	for rows.Next() {
		var q QuietHoursRule
		var exceptions string
		if err := rows.Scan(&q.ID, &q.StartMinute, &q.EndMinute, &exceptions, &q.Enabled); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(exceptions), &q.ExceptionEvents); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) UpsertQuietHours(ctx context.Context, q QuietHoursRule) error {
	exceptions, err := json.Marshal(q.ExceptionEvents)
	if err != nil {
		return err
	}
	if q.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO quiet_hours_rules (start_minute, end_minute, exception_events, enabled) VALUES (?, ?, ?, ?)
		`, q.StartMinute, q.EndMinute, string(exceptions), q.Enabled)
		if err != nil {
			return err
		}
		_, err = res.LastInsertId()
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE quiet_hours_rules SET start_minute = ?, end_minute = ?, exception_events = ?, enabled = ? WHERE id = ?
	`, q.StartMinute, q.EndMinute, string(exceptions), q.Enabled, q.ID)
	return err
}

func (r *NotificationRepository) AppendHistory(ctx context.Context, h *NotificationHistoryEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_history (event, subscriber, success, detail) VALUES (?, ?, ?, ?)
	`, h.Event, h.Subscriber, h.Success, h.Detail)
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

func (r *NotificationRepository) ListHistory(ctx context.Context, limit int) ([]NotificationHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event, subscriber, success, detail, created_at FROM notification_history
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NotificationHistoryEntry
	for rows.Next() {
		var h NotificationHistoryEntry
		if err := rows.Scan(&h.ID, &h.Event, &h.Subscriber, &h.Success, &h.Detail, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
