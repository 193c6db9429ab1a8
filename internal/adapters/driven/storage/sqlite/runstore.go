package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// syncRunStore implements driven.SyncRunStore.
type syncRunStore struct {
	store *Store
}

var _ driven.SyncRunStore = (*syncRunStore)(nil)

const runColumns = `id, started_at, ended_at, projects, batches, jobs, jobs_network, jobs_checkout,
	fetch_failures, checkout_failures, aborted, errors`

// RecordRun logs a finished run. Recording the same ID again replaces it.
func (s *syncRunStore) RecordRun(ctx context.Context, run *domain.SyncRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encoding run errors: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		formatNullableTime(run.EndedAt),
		run.Projects,
		run.Batches,
		run.Jobs.Jobs,
		run.Jobs.Network,
		run.Jobs.Checkout,
		run.FetchFailures,
		run.CheckoutFailures,
		boolToInt(run.Aborted),
		string(errsJSON),
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *syncRunStore) GetRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns recent runs, most recent first. A limit <= 0 returns all.
func (s *syncRunStore) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}

	return runs, nil
}

// PruneRuns removes runs beyond the retention limit.
func (s *syncRunStore) PruneRuns(ctx context.Context, keep int) error {
	if keep < 0 {
		return nil
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM sync_runs ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sync runs: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a sync run from *sql.Row or *sql.Rows.
func scanRun(row rowScanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var startedAt string
	var endedAt sql.NullString
	var aborted int
	var errsJSON string

	if err := row.Scan(&run.ID, &startedAt, &endedAt, &run.Projects, &run.Batches,
		&run.Jobs.Jobs, &run.Jobs.Network, &run.Jobs.Checkout,
		&run.FetchFailures, &run.CheckoutFailures, &aborted, &errsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}

	run.StartedAt = parseTime(startedAt)
	run.EndedAt = parseNullableTime(endedAt)
	run.Aborted = aborted == 1
	if err := json.Unmarshal([]byte(errsJSON), &run.Errors); err != nil {
		return nil, fmt.Errorf("decoding run errors: %w", err)
	}
	if len(run.Errors) == 0 {
		run.Errors = nil
	}

	return &run, nil
}

// timeLayout sorts lexically in chronological order for UTC times.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
