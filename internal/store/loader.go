// =============================================================================
// ConNL - Load Orchestrator
// =============================================================================
//
// Persists transformed records into PostgreSQL. Three methods are supported:
//
//   insert     plain INSERT of every record
//   upsert     INSERT ... ON CONFLICT (surrogate_key) DO UPDATE
//   overwrite  TRUNCATE then COPY, so the table ends up holding exactly
//              the loaded batch
//
// Every load runs inside one transaction. A failure rolls back and is
// returned as a single load error carrying the cause.
//
// =============================================================================

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kabrax96/ConNL-dev/internal/types"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// Mode is a load method.
type Mode string

const (
	ModeInsert    Mode = "insert"
	ModeUpsert    Mode = "upsert"
	ModeOverwrite Mode = "overwrite"
)

// ParseMode validates s as a load method.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeInsert, ModeUpsert, ModeOverwrite:
		return m, nil
	default:
		return "", apperrors.ConfigError("load_method", s, "use one of insert, upsert, overwrite")
	}
}

// label names the operation in error messages.
func (m Mode) label() string {
	switch m {
	case ModeOverwrite:
		return "Bulk load (overwrite)"
	case ModeUpsert:
		return "Single load (upsert)"
	default:
		return "Single load (insert)"
	}
}

// DB is the part of a pool the loader needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Loader writes record batches to tables.
type Loader struct {
	db  DB
	log logger.Logger
}

// NewLoader creates a Loader. A nil log discards output.
func NewLoader(db DB, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{db: db, log: log.WithComponent("store")}
}

// EnsureTable creates table if it does not exist.
func (l *Loader) EnsureTable(ctx context.Context, table Table) error {
	if _, err := l.db.Exec(ctx, table.CreateSQL()); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryLoad, apperrors.CodeLoadFailed,
			fmt.Sprintf("failed to create table %s", table.Name))
	}
	return nil
}

// Load writes records to table with the given mode in one transaction.
//
// PARAMETERS:
//   - table: target table; its columns must match Record.Values order
//   - records: the batch
//   - mode: insert, upsert or overwrite
//
// RETURNS:
//   - Number of rows written
//   - A load error wrapping the cause; nothing is committed in that case
func (l *Loader) Load(ctx context.Context, table Table, records []types.Record, mode Mode) (int64, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return 0, err
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, apperrors.LoadError(mode.label(), table.Name, err)
	}
	defer tx.Rollback(ctx)

	var n int64
	switch mode {
	case ModeOverwrite:
		n, err = overwrite(ctx, tx, table, records)
	case ModeUpsert:
		n, err = batch(ctx, tx, table.UpsertSQL(), records)
	default:
		n, err = batch(ctx, tx, table.InsertSQL(), records)
	}
	if err != nil {
		return 0, apperrors.LoadError(mode.label(), table.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperrors.LoadError(mode.label(), table.Name, err)
	}

	l.log.WithFields(logger.Fields{
		"table": table.Name,
		"mode":  string(mode),
		"rows":  n,
	}).Infof("Loaded %d rows", n)
	return n, nil
}

func overwrite(ctx context.Context, tx pgx.Tx, table Table, records []types.Record) (int64, error) {
	if _, err := tx.Exec(ctx, table.TruncateSQL()); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return records[i].Values(), nil
	})
	return tx.CopyFrom(ctx, pgx.Identifier{table.Name}, table.ColumnNames(), src)
}

func batch(ctx context.Context, tx pgx.Tx, sql string, records []types.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(sql, r.Values()...)
	}

	br := tx.SendBatch(ctx, b)
	var n int64
	for i := range records {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("row %d (%s): %w", i, records[i].Key(), err)
		}
		n += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	return n, nil
}
