package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abrechen2/sublarr-sub006/internal/profile"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, name, requirements, cutoff_on_first, acceptance_threshold, upgrade_margin, created_at`

func (r *ProfileRepository) Create(ctx context.Context, p profile.LanguageProfile) (int64, error) {
	reqJSON, err := json.Marshal(p.Requirements)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO language_profiles (name, requirements, cutoff_on_first, acceptance_threshold, upgrade_margin)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, string(reqJSON), p.CutoffOnFirst, p.AcceptanceThreshold, p.UpgradeMargin)
	if err != nil {
		return 0, fmt.Errorf("store: create profile: %w", err)
	}
	return res.LastInsertId()
}

func (r *ProfileRepository) Get(ctx context.Context, id int64) (*profile.LanguageProfile, error) {
	var row LanguageProfileRow
	err := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM language_profiles WHERE id = ?`, id).
		Scan(&row.ID, &row.Name, &row.Requirements, &row.CutoffOnFirst, &row.AcceptanceThreshold, &row.UpgradeMargin, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get profile: %w", err)
	}
	return rowToProfile(row)
}

func (r *ProfileRepository) List(ctx context.Context) ([]profile.LanguageProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM language_profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []profile.LanguageProfile
	for rows.Next() {
		var row LanguageProfileRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Requirements, &row.CutoffOnFirst, &row.AcceptanceThreshold, &row.UpgradeMargin, &row.CreatedAt); err != nil {
			return nil, err
		}
		p, err := rowToProfile(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func rowToProfile(row LanguageProfileRow) (*profile.LanguageProfile, error) {
	var reqs []profile.LanguageRequirement
	if err := json.Unmarshal([]byte(row.Requirements), &reqs); err != nil {
		return nil, fmt.Errorf("store: decode profile requirements: %w", err)
	}
	return &profile.LanguageProfile{
		ID:                  row.ID,
		Name:                row.Name,
		Requirements:        reqs,
		CutoffOnFirst:       row.CutoffOnFirst,
		AcceptanceThreshold: row.AcceptanceThreshold,
		UpgradeMargin:       row.UpgradeMargin,
	}, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM language_profiles WHERE id = ?`, id)
	return err
}
