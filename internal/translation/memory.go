// Package translation implements the Translation Memory (exact-hash lookup
// with LCS-based fuzzy fallback) and the Translation Orchestrator (batch
// split/dispatch/merge across cached and uncached lines).
package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

const defaultScanLimit = 500

// caseFolder performs Unicode-aware case folding (not just ASCII
// lowercasing), so text memory hashes match across scripts where simple
// ToLower wouldn't, e.g. Turkish dotless-I or German eszett expansion.
var caseFolder = cases.Fold()

// Normalize strips leading/trailing whitespace, case-folds per Unicode
// rules, and collapses internal whitespace runs to a single space. Both
// sides of a translation-memory lookup must run the same transform or
// their hashes will never match.
func Normalize(text string) string {
	folded := caseFolder.String(strings.TrimSpace(text))
	fields := strings.Fields(folded)
	return strings.Join(fields, " ")
}

// TextHash is the SHA-256 hex digest of the UTF-8 bytes of Normalize(text).
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Match is a translation-memory hit, exact or fuzzy.
type Match struct {
	TranslatedText string
	Similarity     float64 // 1.0 for an exact hash match
	Exact          bool
}

// Memory wraps the store's translation_memory_entries table with the
// lookup algorithm: an exact-hash match first, then (if threshold < 1.0) an
// LCS-based fuzzy scan over same-language-pair entries. Any store error is
// treated as a miss rather than propagated, since translation memory is a
// pure optimization — it must never block a translation from proceeding.
type Memory struct {
	repo      *store.TranslationMemoryRepository
	scanLimit int
}

func NewMemory(repo *store.TranslationMemoryRepository) *Memory {
	return &Memory{repo: repo, scanLimit: defaultScanLimit}
}

// Lookup returns the best match for text in the (sourceLang, targetLang)
// pair, considering fuzzy matches down to threshold (1.0 disables fuzzy
// matching entirely and only returns exact hits).
func (m *Memory) Lookup(ctx context.Context, sourceLang, targetLang, text string, threshold float64) *Match {
	hash := TextHash(text)

	exact, err := m.repo.Lookup(ctx, sourceLang, targetLang, hash)
	if err != nil {
		slog.Warn("translation.memory.lookup_failed", "error", err)
		return nil
	}
	if exact != nil {
		return &Match{TranslatedText: exact.TranslatedText, Similarity: 1.0, Exact: true}
	}

	if threshold >= 1.0 {
		return nil
	}

	candidates, err := m.repo.ScanCandidates(ctx, sourceLang, targetLang, m.scanLimit)
	if err != nil {
		slog.Warn("translation.memory.scan_failed", "error", err)
		return nil
	}

	normalizedText := Normalize(text)
	var best *Match
	var bestScore float64
	for _, c := range candidates {
		score := Similarity(normalizedText, Normalize(c.SourceText))
		if score >= threshold && score > bestScore {
			bestScore = score
			best = &Match{TranslatedText: c.TranslatedText, Similarity: score}
		}
	}
	return best
}

// Upsert stores a translation for future exact-hash lookup.
func (m *Memory) Upsert(ctx context.Context, sourceLang, targetLang, sourceText, translatedText string) error {
	return m.repo.Upsert(ctx, store.TranslationMemoryEntry{
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		TextHash:       TextHash(sourceText),
		SourceText:     Normalize(sourceText),
		TranslatedText: translatedText,
	})
}
