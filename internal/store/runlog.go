package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// Run statuses written to the metadata table.
const (
	RunStarted = "STARTED"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"
)

// Execer runs a single statement.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RunLog records pipeline runs in RunTable. A nil *RunLog does nothing.
type RunLog struct {
	db  Execer
	now func() time.Time
}

// NewRunLog creates a RunLog writing through db.
func NewRunLog(db Execer) *RunLog {
	return &RunLog{db: db, now: time.Now}
}

// Ensure creates the metadata table.
func (r *RunLog) Ensure(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if _, err := r.db.Exec(ctx, RunTable.CreateSQL()); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeLoadFailed,
			"failed to create run metadata table")
	}
	return nil
}

// Start inserts a STARTED row and returns its run id.
func (r *RunLog) Start(ctx context.Context, pipeline string) (string, error) {
	if r == nil {
		return "", nil
	}
	id := uuid.NewString()
	_, err := r.db.Exec(ctx,
		`INSERT INTO pipeline_metadata_logs (run_id, pipeline_name, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, pipeline, RunStarted, r.now().UTC())
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeLoadFailed, "failed to record run start")
	}
	return id, nil
}

// Succeed marks the run successful.
func (r *RunLog) Succeed(ctx context.Context, runID string, rows int64, logs string) error {
	return r.finish(ctx, runID, RunSuccess, rows, "", logs)
}

// Fail marks the run failed with cause's message.
func (r *RunLog) Fail(ctx context.Context, runID string, cause error, logs string) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(ctx, runID, RunFailed, 0, msg, logs)
}

func (r *RunLog) finish(ctx context.Context, runID, status string, rows int64, message, logs string) error {
	if r == nil || runID == "" {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE pipeline_metadata_logs SET status = $2, finished_at = $3, rows_loaded = $4, message = $5, logs = $6 WHERE run_id = $1`,
		runID, status, r.now().UTC(), rows, message, logs)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeLoadFailed, "failed to record run result")
	}
	return nil
}
