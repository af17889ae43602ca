package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrNotClaimed is returned by TransitionStatus when the item's current
// status was not one of the allowed source statuses, meaning a concurrent
// actor already claimed or moved it.
var ErrNotClaimed = errors.New("store: wanted item was not in an allowed source status")

// Fingerprint computes the uniqueness key for a WantedItem:
// sha256(file_path||'\0'||target_language||'\0'||subtitle_type), hex-encoded.
func Fingerprint(filePath, targetLanguage, subtitleType string) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(targetLanguage))
	h.Write([]byte{0})
	h.Write([]byte(subtitleType))
	return hex.EncodeToString(h.Sum(nil))
}

type WantedRepository struct {
	db *sql.DB
}

func NewWantedRepository(db *sql.DB) *WantedRepository {
	return &WantedRepository{db: db}
}

// WantedFilter narrows ListWanted; zero-valued fields are not applied.
type WantedFilter struct {
	Status         WantedStatus
	TargetLanguage string
	Standalone     *bool
	Limit          int
	Offset         int
}

// wantedColumns is the column list shared by every SELECT against
// wanted_items, kept in one place so scanWantedItem's Scan order never
// drifts from the query that produced the row.
const wantedColumns = `
	id, file_path, target_language, subtitle_type, fingerprint, media_title,
	year, season, episode, COALESCE(original_language, ''), COALESCE(imdb_id, ''), tmdb_id, is_anime,
	COALESCE(profile_id, 0), status, standalone,
	upgrade_candidate, COALESCE(existing_subtitle_ref, ''), existing_score, COALESCE(missing_languages, '[]'),
	attempt_count, COALESCE(last_error, ''), claimed_at, created_at, updated_at
`

// UpsertWantedItem inserts a new wanted item, or updates the observed-state
// fields (media metadata, profile assignment) if an item with the same
// (file_path, target_language, subtitle_type) fingerprint already exists —
// the scanner relies on the update path to pick up changes like a profile
// reassignment or a corrected title without creating a duplicate row.
func (r *WantedRepository) UpsertWantedItem(ctx context.Context, item *WantedItem) error {
	fp := Fingerprint(item.FilePath, item.TargetLanguage, item.SubtitleType)
	if item.Status == "" {
		item.Status = StatusWanted
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wanted_items
			(file_path, target_language, subtitle_type, fingerprint, media_title,
			 year, season, episode, original_language, imdb_id, tmdb_id, is_anime,
			 profile_id, status, standalone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			media_title = excluded.media_title,
			year = excluded.year,
			season = excluded.season,
			episode = excluded.episode,
			original_language = excluded.original_language,
			imdb_id = excluded.imdb_id,
			tmdb_id = excluded.tmdb_id,
			is_anime = excluded.is_anime,
			profile_id = excluded.profile_id,
			updated_at = CURRENT_TIMESTAMP
	`, item.FilePath, item.TargetLanguage, item.SubtitleType, fp, item.MediaTitle,
		item.Year, item.Season, item.Episode, item.OriginalLanguage, item.IMDbID, item.TMDbID, item.IsAnime,
		item.ProfileID, item.Status, item.Standalone)
	if err != nil {
		return fmt.Errorf("store: upsert wanted item: %w", err)
	}
	existing, err := r.GetByFingerprint(ctx, fp)
	if err != nil {
		return err
	}
	*item = *existing
	return nil
}

// MarkUpgradeCandidate flags an existing wanted item as satisfied-but-below-
// threshold: the scanner found a subtitle already on disk, but its recorded
// score falls under the profile's acceptance threshold, so the searcher
// should keep looking for something that beats existingScore by the
// profile's upgrade margin instead of treating the item as done.
func (r *WantedRepository) MarkUpgradeCandidate(ctx context.Context, id int64, existingRef string, existingScore int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE wanted_items
		SET upgrade_candidate = 1, existing_subtitle_ref = ?, existing_score = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, existingRef, existingScore, id)
	return err
}

func (r *WantedRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*WantedItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+wantedColumns+` FROM wanted_items WHERE fingerprint = ?`, fingerprint)
	return scanWantedItem(row)
}

func (r *WantedRepository) GetByID(ctx context.Context, id int64) (*WantedItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+wantedColumns+` FROM wanted_items WHERE id = ?`, id)
	return scanWantedItem(row)
}

func scanWantedItem(row *sql.Row) (*WantedItem, error) {
	var item WantedItem
	var claimedAt sql.NullTime
	err := row.Scan(&item.ID, &item.FilePath, &item.TargetLanguage, &item.SubtitleType, &item.Fingerprint, &item.MediaTitle,
		&item.Year, &item.Season, &item.Episode, &item.OriginalLanguage, &item.IMDbID, &item.TMDbID, &item.IsAnime,
		&item.ProfileID, &item.Status, &item.Standalone,
		&item.UpgradeCandidate, &item.ExistingSubtitleRef, &item.ExistingScore, &item.MissingLanguages,
		&item.AttemptCount, &item.LastError, &claimedAt, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan wanted item: %w", err)
	}
	if claimedAt.Valid {
		item.ClaimedAt = &claimedAt.Time
	}
	return &item, nil
}

func scanWantedItemRows(rows *sql.Rows) (WantedItem, error) {
	var item WantedItem
	var claimedAt sql.NullTime
	err := rows.Scan(&item.ID, &item.FilePath, &item.TargetLanguage, &item.SubtitleType, &item.Fingerprint, &item.MediaTitle,
		&item.Year, &item.Season, &item.Episode, &item.OriginalLanguage, &item.IMDbID, &item.TMDbID, &item.IsAnime,
		&item.ProfileID, &item.Status, &item.Standalone,
		&item.UpgradeCandidate, &item.ExistingSubtitleRef, &item.ExistingScore, &item.MissingLanguages,
		&item.AttemptCount, &item.LastError, &claimedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}
	if claimedAt.Valid {
		item.ClaimedAt = &claimedAt.Time
	}
	return item, nil
}

// TransitionStatus atomically moves a wanted item from one of fromStatuses
// to toStatus. It serializes per-item transitions: the UPDATE's WHERE
// clause re-checks the current status, so a concurrent claim attempt from
// another worker loses the race instead of double-processing the item.
func (r *WantedRepository) TransitionStatus(ctx context.Context, id int64, fromStatuses []WantedStatus, toStatus WantedStatus) error {
	if len(fromStatuses) == 0 {
		return fmt.Errorf("store: transition requires at least one source status")
	}
	placeholders := make([]string, len(fromStatuses))
	args := make([]any, 0, len(fromStatuses)+3)
	args = append(args, toStatus, toStatus)
	for i, s := range fromStatuses {
		placeholders[i] = "?"
		args = append(args, s)
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE wanted_items
		SET status = ?, updated_at = CURRENT_TIMESTAMP,
		    claimed_at = CASE WHEN ? = 'searching' THEN CURRENT_TIMESTAMP ELSE claimed_at END
		WHERE status IN (%s) AND id = ?
	`, strings.Join(placeholders, ","))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: transition status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotClaimed
	}
	return nil
}

// RecordAttempt increments the attempt counter and stores the last error
// (empty string clears it), without changing status.
func (r *WantedRepository) RecordAttempt(ctx context.Context, id int64, lastErr string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE wanted_items SET attempt_count = attempt_count + 1, last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, lastErr, id)
	return err
}

func (r *WantedRepository) ListWanted(ctx context.Context, filter WantedFilter) ([]WantedItem, error) {
	query := `SELECT ` + wantedColumns + ` FROM wanted_items WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.TargetLanguage != "" {
		query += " AND target_language = ?"
		args = append(args, filter.TargetLanguage)
	}
	if filter.Standalone != nil {
		query += " AND standalone = ?"
		args = append(args, *filter.Standalone)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list wanted: %w", err)
	}
	defer rows.Close()

	var out []WantedItem
	for rows.Next() {
		item, err := scanWantedItemRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListByCondition runs a pre-compiled WHERE clause body (as produced by
// internal/filterquery.Compile) against wanted_items, for saved filter
// presets and cleanup rules that need more than ListWanted's fixed filters.
func (r *WantedRepository) ListByCondition(ctx context.Context, whereClause string, args []any, limit int) ([]WantedItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM wanted_items WHERE %s ORDER BY created_at DESC`, wantedColumns, whereClause)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list wanted by condition: %w", err)
	}
	defer rows.Close()

	var out []WantedItem
	for rows.Next() {
		item, err := scanWantedItemRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteStale removes the wanted item for filePath, used by the scanner's
// reconciliation pass on a full scan when a previously tracked file has
// disappeared from the library. Standalone items are excluded from this
// cleanup by the caller, since their lifecycle isn't driven by a
// library-manager snapshot.
func (r *WantedRepository) DeleteStale(ctx context.Context, filePath string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wanted_items WHERE file_path = ?`, filePath)
	return err
}
