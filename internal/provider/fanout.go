package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// FanOut searches every provider concurrently, bounded by maxConcurrency
// (the searcher caps this at min(4, len(providers))), skipping providers
// whose circuit breaker is currently open. A single provider's error never
// fails the fan-out as a whole; it is logged and that provider simply
// contributes no candidates.
func FanOut(ctx context.Context, providers []Provider, query VideoQuery, breakers *Breakers, maxConcurrency int) []Candidate {
	if maxConcurrency <= 0 || maxConcurrency > len(providers) {
		maxConcurrency = len(providers)
	}
	if maxConcurrency == 0 {
		return nil
	}

	results := make(chan []Candidate, len(providers))
	p := pool.New().WithMaxGoroutines(maxConcurrency).WithContext(ctx)

	for _, prov := range providers {
		prov := prov
		cb := breakers.For(prov.Name())
		if !cb.Allow(time.Now()) {
			slog.Debug("provider.fanout.skipped_open_breaker", "provider", prov.Name())
			continue
		}
		p.Go(func(c context.Context) error {
			candidates, err := prov.Search(c, query)
			if err != nil {
				cb.RecordFailure(time.Now())
				slog.Warn("provider.fanout.search_failed", "provider", prov.Name(), "error", err)
				return nil
			}
			cb.RecordSuccess()
			for i := range candidates {
				candidates[i].ProviderName = prov.Name()
			}
			results <- candidates
			return nil
		})
	}

	_ = p.Wait()
	close(results)

	var out []Candidate
	for batch := range results {
		out = append(out, batch...)
	}
	return out
}
