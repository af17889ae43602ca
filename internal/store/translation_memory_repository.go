package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type TranslationMemoryRepository struct {
	db *sql.DB
}

func NewTranslationMemoryRepository(db *sql.DB) *TranslationMemoryRepository {
	return &TranslationMemoryRepository{db: db}
}

// Lookup returns the exact-hash match for (sourceLang, targetLang, textHash),
// or nil if none exists. Exact lookup is the fast path; fuzzy matching over
// ScanCandidates is only attempted on a miss.
func (r *TranslationMemoryRepository) Lookup(ctx context.Context, sourceLang, targetLang, textHash string) (*TranslationMemoryEntry, error) {
	var e TranslationMemoryEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_lang, target_lang, text_hash, source_text, translated_text, created_at
		FROM translation_memory_entries
		WHERE source_lang = ? AND target_lang = ? AND text_hash = ?
	`, sourceLang, targetLang, textHash).Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.TextHash, &e.SourceText, &e.TranslatedText, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: tm lookup: %w", err)
	}
	return &e, nil
}

// ScanCandidates returns every entry for a given language pair, for the
// caller to run fuzzy (LCS-based) similarity scoring against. Bounded by
// the memory package's configured scan cap so large tables don't blow up
// a single translation call's latency.
func (r *TranslationMemoryRepository) ScanCandidates(ctx context.Context, sourceLang, targetLang string, limit int) ([]TranslationMemoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_lang, target_lang, text_hash, source_text, translated_text, created_at
		FROM translation_memory_entries
		WHERE source_lang = ? AND target_lang = ?
		ORDER BY id DESC
		LIMIT ?
	`, sourceLang, targetLang, limit)
	if err != nil {
		return nil, fmt.Errorf("store: tm scan candidates: %w", err)
	}
	defer rows.Close()

	var out []TranslationMemoryEntry
	for rows.Next() {
		var e TranslationMemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.TextHash, &e.SourceText, &e.TranslatedText, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert inserts an entry, replacing any existing row for the same
// (source_lang, target_lang, text_hash) uniqueness key.
func (r *TranslationMemoryRepository) Upsert(ctx context.Context, e TranslationMemoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO translation_memory_entries (source_lang, target_lang, text_hash, source_text, translated_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_lang, target_lang, text_hash) DO UPDATE SET
			source_text = excluded.source_text,
			translated_text = excluded.translated_text
	`, e.SourceLang, e.TargetLang, e.TextHash, e.SourceText, e.TranslatedText)
	if err != nil {
		return fmt.Errorf("store: tm upsert: %w", err)
	}
	return nil
}

// Stats reports aggregate counts used by the translation-memory stats endpoint.
type TranslationMemoryStats struct {
	TotalEntries int64
	LanguagePairs int64
}

func (r *TranslationMemoryRepository) Stats(ctx context.Context) (TranslationMemoryStats, error) {
	var s TranslationMemoryStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translation_memory_entries`).Scan(&s.TotalEntries); err != nil {
		return s, err
	}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (SELECT DISTINCT source_lang, target_lang FROM translation_memory_entries)
	`).Scan(&s.LanguagePairs)
	return s, err
}

// DeleteAll clears the entire cache, used by the cache-delete admin endpoint.
func (r *TranslationMemoryRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM translation_memory_entries`)
	return err
}
