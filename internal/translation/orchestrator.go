package translation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// Line is one subtitle line to translate, index-tagged so the orchestrator
// can merge results back into their original order regardless of which
// batch or worker produced them.
type Line struct {
	Index int
	Text  string
}

// BatchTranslateFunc translates a batch of source texts to target texts,
// index-for-index (output[i] corresponds to input[i]).
type BatchTranslateFunc func(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error)

// Orchestrator splits a line set into memory hits and misses, dispatches
// the misses to a translation provider in bounded-size, bounded-concurrency
// batches, and reassembles the full set in original order.
type Orchestrator struct {
	memory         *Memory
	glossary       Glossary
	batchSize      int
	maxConcurrency int
	threshold      float64
}

func NewOrchestrator(memory *Memory, batchSize, maxConcurrency int, threshold float64) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 40
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Orchestrator{memory: memory, batchSize: batchSize, maxConcurrency: maxConcurrency, threshold: threshold}
}

// Translate returns every line translated, in the same order as the input,
// regardless of which lines were served from memory versus from the
// provider.
func (o *Orchestrator) Translate(ctx context.Context, sourceLang, targetLang string, lines []Line, translateBatch BatchTranslateFunc) ([]Line, error) {
	out := make([]Line, len(lines))
	var uncached []Line

	for i, line := range lines {
		out[i] = Line{Index: line.Index}
		if match := o.memory.Lookup(ctx, sourceLang, targetLang, line.Text, o.threshold); match != nil {
			out[i].Text = match.TranslatedText
			continue
		}
		uncached = append(uncached, line)
	}

	if len(uncached) == 0 {
		return out, nil
	}

	batches := chunk(uncached, o.batchSize)
	translated := make([][]Line, len(batches))

	p := pool.New().WithMaxGoroutines(o.maxConcurrency).WithContext(ctx).WithCancelOnError()
	for i, batch := range batches {
		i, batch := i, batch
		p.Go(func(c context.Context) error {
			result, err := o.translateBatch(c, sourceLang, targetLang, batch, translateBatch)
			if err != nil {
				return fmt.Errorf("translation: batch %d: %w", i, err)
			}
			translated[i] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	byIndex := make(map[int]string, len(uncached))
	for _, batch := range translated {
		for _, line := range batch {
			byIndex[line.Index] = line.Text
		}
	}
	for i, line := range lines {
		if text, ok := byIndex[line.Index]; ok {
			out[i].Text = text
		}
	}

	return out, nil
}

// translateBatch protects glossary terms, calls the provider, restores
// terms, and stores the result in translation memory for next time.
func (o *Orchestrator) translateBatch(ctx context.Context, sourceLang, targetLang string, batch []Line, translateBatch BatchTranslateFunc) ([]Line, error) {
	protectedTexts := make([]string, len(batch))
	tokenMaps := make([]map[string]string, len(batch))
	for i, line := range batch {
		protectedTexts[i], tokenMaps[i] = o.glossary.Protect(line.Text)
	}

	results, err := translateBatch(ctx, sourceLang, targetLang, protectedTexts)
	if err != nil {
		return nil, err
	}
	if len(results) != len(batch) {
		return nil, fmt.Errorf("translation: provider returned %d results for %d inputs", len(results), len(batch))
	}

	out := make([]Line, len(batch))
	for i, line := range batch {
		restored := o.glossary.Restore(results[i], tokenMaps[i])
		out[i] = Line{Index: line.Index, Text: restored}
		if err := o.memory.Upsert(ctx, sourceLang, targetLang, line.Text, restored); err != nil {
			slog.Warn("translation.orchestrator.memory_store_failed", "error", err)
		}
	}
	return out, nil
}

func chunk(lines []Line, size int) [][]Line {
	var out [][]Line
	for i := 0; i < len(lines); i += size {
		end := i + size
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, lines[i:end])
	}
	return out
}
