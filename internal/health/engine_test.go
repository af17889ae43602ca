package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

func TestEngineRunRecordsIssuesAndScore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := store.NewHealthRepository(db.Connection())
	engine := NewEngine(repo)

	dir := t.TempDir()
	path := filepath.Join(dir, "sub.srt")
	content := "1\n00:00:00,000 --> 00:00:01,000\nhello\n\n2\n00:00:00,500 --> 00:00:01,500\nhello\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report, err := engine.Run(ctx, path, subtitle.FormatSRT)
	require.NoError(t, err)
	assert.Less(t, report.Score, 100)

	history, err := repo.Latest(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestEngineRunBatchRejectsOversizedBatch(t *testing.T) {
	engine := NewEngine(nil)
	files := make([]string, 51)
	_, err := engine.RunBatch(context.Background(), files, func(string) subtitle.Format { return subtitle.FormatSRT })
	assert.Error(t, err)
}
