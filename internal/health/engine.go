package health

import (
	"context"
	"fmt"
	"os"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

const maxBatchFiles = 50

// Engine runs the check battery against subtitle files and records the
// results. It applies no fixes; the auto-fixers are the Fix* functions in
// autofix.go.
type Engine struct {
	repo *store.HealthRepository
}

func NewEngine(repo *store.HealthRepository) *Engine {
	return &Engine{repo: repo}
}

// Report is one file's run: its score and the issues that produced it.
type Report struct {
	FilePath string
	Score    int
	Issues   []Issue
}

// Score computes 100 - 10*#error - 3*#warning - 1*#info, clamped to [0,100].
func Score(issues []Issue) int {
	score := 100
	for _, i := range issues {
		switch i.Severity {
		case store.SeverityError:
			score -= 10
		case store.SeverityWarning:
			score -= 3
		case store.SeverityInfo:
			score -= 1
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Run loads and checks a single file, recording every issue as a new row
// (each run is a fresh row, by design, to preserve trend data).
func (e *Engine) Run(ctx context.Context, filePath string, format subtitle.Format) (Report, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return Report{}, apperr.New(apperr.Internal, err)
	}
	sub, err := subtitle.Parse(raw, format)
	if err != nil {
		return Report{FilePath: filePath, Score: 0, Issues: []Issue{{
			CheckName: "parse", Severity: store.SeverityError, Message: err.Error(),
		}}}, nil
	}

	var issues []Issue
	for _, check := range AllChecks {
		issues = append(issues, check(sub, raw)...)
	}

	if e.repo != nil {
		results := make([]store.SubtitleHealthResult, 0, len(issues))
		for _, i := range issues {
			results = append(results, store.SubtitleHealthResult{
				CheckName: i.CheckName, Severity: i.Severity, Message: i.Message, FilePath: filePath,
			})
		}
		if len(results) > 0 {
			if err := e.repo.RecordBatch(ctx, results); err != nil {
				return Report{}, apperr.New(apperr.Internal, err)
			}
		}
	}

	return Report{FilePath: filePath, Score: Score(issues), Issues: issues}, nil
}

// RunBatch checks up to 50 files per call; a larger batch is a caller error,
// not a silent truncation.
func (e *Engine) RunBatch(ctx context.Context, files []string, formatOf func(string) subtitle.Format) ([]Report, error) {
	if len(files) > maxBatchFiles {
		return nil, apperr.Newf(apperr.ContentInvalid, "health: batch of %d exceeds the %d-file cap", len(files), maxBatchFiles)
	}
	reports := make([]Report, 0, len(files))
	for _, f := range files {
		report, err := e.Run(ctx, f, formatOf(f))
		if err != nil {
			return nil, fmt.Errorf("health: run %q: %w", f, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
