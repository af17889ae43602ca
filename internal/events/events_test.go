package events

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(dir, "sublarr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type recordingSubscriber struct {
	mu    sync.Mutex
	calls []Name
}

func (r *recordingSubscriber) Name() string { return "recording" }

func (r *recordingSubscriber) Handle(ctx context.Context, event Name, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, event)
	return nil
}

func (r *recordingSubscriber) seen() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, len(r.calls))
	copy(out, r.calls)
	return out
}

func TestBusPublishDispatchesToSubscriber(t *testing.T) {
	bus := NewBus(2)
	sub := &recordingSubscriber{}
	bus.Subscribe(WantedSearchSucceeded, sub)

	bus.Publish(context.Background(), WantedSearchSucceeded, map[string]any{"file_path": "/x.mkv"})

	require.Eventually(t, func() bool { return len(sub.seen()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, WantedSearchSucceeded, sub.seen()[0])
}

func TestBusPublishIgnoresEventsWithNoSubscribers(t *testing.T) {
	bus := NewBus(2)
	// No panic, no hang: Publish with zero subscribers must be a no-op.
	bus.Publish(context.Background(), BackupStarted, nil)
}

func TestQuietHoursWithinWindowWraparound(t *testing.T) {
	assert.True(t, withinWindow(23*60, 22*60, 6*60), "23:00 is inside a 22:00-06:00 window")
	assert.True(t, withinWindow(2*60, 22*60, 6*60), "02:00 is inside a 22:00-06:00 window")
	assert.False(t, withinWindow(12*60, 22*60, 6*60), "noon is outside a 22:00-06:00 window")
	assert.True(t, withinWindow(10*60, 9*60, 17*60), "10:00 is inside a same-day 09:00-17:00 window")
}

func TestQuietHoursPolicySuppressesUnlessExempt(t *testing.T) {
	db := newTestDB(t)
	notifications := store.NewNotificationRepository(db.Connection())
	require.NoError(t, notifications.UpsertQuietHours(context.Background(), store.QuietHoursRule{
		StartMinute:     0,
		EndMinute:       24 * 60,
		ExceptionEvents: []string{string(WantedSearchFailed)},
		Enabled:         true,
	}))

	policy := NewQuietHoursPolicy(notifications)
	now := time.Now()
	assert.True(t, policy.Suppressed(now, WantedSearchSucceeded))
	assert.False(t, policy.Suppressed(now, WantedSearchFailed), "rule-level exception must override the window")
}

func TestTemplateEngineFallsBackToBuiltinWhenNoRowMatches(t *testing.T) {
	db := newTestDB(t)
	notifications := store.NewNotificationRepository(db.Connection())
	engine := NewTemplateEngine(notifications)

	rendered, err := engine.Render(context.Background(), "discord", WantedSearchNoResults, map[string]any{
		"file_path": "/media/show/s01e01.mkv", "language": "spa",
	})
	require.NoError(t, err)
	assert.Contains(t, rendered, "/media/show/s01e01.mkv")
}

func TestTemplateEnginePrefersServiceSpecificRow(t *testing.T) {
	db := newTestDB(t)
	notifications := store.NewNotificationRepository(db.Connection())
	require.NoError(t, notifications.UpsertTemplate(context.Background(), store.NotificationTemplate{
		Service: "discord", Event: string(BackupCompleted), Body: "custom: {{.path}}",
	}))
	engine := NewTemplateEngine(notifications)

	rendered, err := engine.Render(context.Background(), "discord", BackupCompleted, map[string]any{"path": "/backups/1.db"})
	require.NoError(t, err)
	assert.Equal(t, "custom: /backups/1.db", rendered)
}
