package translation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(dir, "tm.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMemory(store.NewTranslationMemoryRepository(db.Connection()))
}

func TestOrchestratorPreservesOrder(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	orch := NewOrchestrator(mem, 2, 2, 1.0)

	lines := []Line{
		{Index: 0, Text: "one"},
		{Index: 1, Text: "two"},
		{Index: 2, Text: "three"},
		{Index: 3, Text: "four"},
		{Index: 4, Text: "five"},
	}

	translateFn := func(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = "[" + text + "]"
		}
		return out, nil
	}

	out, err := orch.Translate(ctx, "eng", "spa", lines, translateFn)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, l := range lines {
		assert.Equal(t, "["+l.Text+"]", out[i].Text)
		assert.Equal(t, l.Index, out[i].Index)
	}
}

func TestOrchestratorShortCircuitsOnExactMemoryHit(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	require.NoError(t, mem.Upsert(ctx, "eng", "spa", "hello", "hola"))

	orch := NewOrchestrator(mem, 40, 4, 1.0)
	calls := 0
	translateFn := func(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
		calls++
		out := make([]string, len(texts))
		for i := range texts {
			out[i] = "MISS"
		}
		return out, nil
	}

	out, err := orch.Translate(ctx, "eng", "spa", []Line{{Index: 0, Text: "hello"}}, translateFn)
	require.NoError(t, err)
	assert.Equal(t, "hola", out[0].Text)
	assert.Equal(t, 0, calls, "an exact memory hit must short-circuit the provider call")
}

func TestGlossaryProtectsInviolableTerms(t *testing.T) {
	g := Glossary{}
	protected, tokens := g.Protect("Hello {{Goku}}, welcome.")
	assert.NotContains(t, protected, "Goku")
	restored := g.Restore("[TRANSLATED] "+protected, tokens)
	assert.Contains(t, restored, "Goku")
}
