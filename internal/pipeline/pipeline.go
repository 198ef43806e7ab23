// =============================================================================
// ConNL - Pipeline Runner
// =============================================================================
//
// Orchestrates one run of a dataset, from raw file to loaded table.
//
// SINGLE PIPELINE (one year, default latest):
//   100 start            200 extract      300 transform     400 prepare DB
//   110 latest year      210 extracted    310 transformed   410 load
//                                                            499 success
//
// BULK PIPELINE (every year found, overwrite):
//   105 listing files
//   115 years detected   120 per-year processing   205 year skipped
//   320 concatenated rows, then 400/410/499 as above
//
// Any failure is logged with code 500 and recorded in the run metadata
// table before being returned.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Kabrax96/ConNL-dev/internal/csvparser"
	"github.com/Kabrax96/ConNL-dev/internal/export"
	"github.com/Kabrax96/ConNL-dev/internal/source"
	"github.com/Kabrax96/ConNL-dev/internal/store"
	"github.com/Kabrax96/ConNL-dev/internal/transform"
	"github.com/Kabrax96/ConNL-dev/internal/types"
	"github.com/Kabrax96/ConNL-dev/internal/validation"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Loader persists batches.
type Loader interface {
	EnsureTable(ctx context.Context, table store.Table) error
	Load(ctx context.Context, table store.Table, records []types.Record, mode store.Mode) (int64, error)
}

// RunRecorder stores run metadata.
type RunRecorder interface {
	Start(ctx context.Context, pipeline string) (string, error)
	Succeed(ctx context.Context, runID string, rows int64, logs string) error
	Fail(ctx context.Context, runID string, cause error, logs string) error
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one run.
type Result struct {
	// Pipeline is the run name.
	Pipeline string

	// Years processed successfully, ascending.
	Years []int

	// Skipped years, bulk runs only.
	Skipped []int

	// Records is the number of transformed records.
	Records int

	// Loaded is the number of rows written; zero on dry runs.
	Loaded int64

	// ExportPath is the written export file, if any.
	ExportPath string

	Duration time.Duration
}

// =============================================================================
// RUNNER
// =============================================================================

// Options control a Runner.
type Options struct {
	// Mode is the load method of single runs. Bulk runs always overwrite.
	// Default: upsert
	Mode store.Mode

	// DryRun transforms and validates without loading.
	DryRun bool

	// ExportPath writes the batch to a .csv or .xlsx file.
	ExportPath string

	// IssuesDir receives a validation report when a batch is rejected.
	IssuesDir string

	// CreateTables creates the target table before loading.
	CreateTables bool

	// LogDir receives one log file per pipeline. Empty disables file logs.
	LogDir string

	// CSV settings for .csv raw files.
	CSV csvparser.Settings
}

// Runner executes pipelines.
type Runner struct {
	src         source.Source
	loader      Loader
	runs        RunRecorder
	transformer *transform.Transformer
	validator   *validation.Validator
	logConfig   *logger.Config
	logOut      io.Writer
	opts        Options
	now         func() time.Time
}

// NewRunner wires a Runner. loader may be nil for dry runs and runs may be
// nil when run metadata is not recorded.
func NewRunner(src source.Source, loader Loader, runs RunRecorder, t *transform.Transformer, logConfig *logger.Config, logOut io.Writer, opts Options) *Runner {
	if opts.Mode == "" {
		opts.Mode = store.ModeUpsert
	}
	if opts.CSV.Delimiter == "" {
		opts.CSV = csvparser.DefaultSettings()
	}
	if t == nil {
		t = transform.New(nil, nil)
	}
	return &Runner{
		src:         src,
		loader:      loader,
		runs:        runs,
		transformer: t,
		validator:   validation.NewValidator(),
		logConfig:   logConfig,
		logOut:      logOut,
		opts:        opts,
		now:         time.Now,
	}
}

// Run dispatches target. year is ignored by bulk runs; 0 selects the latest
// year for single runs.
func (r *Runner) Run(ctx context.Context, target Target, year int) (*Result, error) {
	if target.Bulk {
		return r.RunBulk(ctx, target.Dataset)
	}
	return r.RunSingle(ctx, target.Dataset, year)
}

// RunSingle loads one year of ds with the configured load method.
func (r *Runner) RunSingle(ctx context.Context, ds Dataset, year int) (*Result, error) {
	target := Target{Dataset: ds}
	return r.execute(ctx, target, func(plog logger.Logger, res *Result) error {
		return r.single(ctx, plog, ds, year, res)
	})
}

// RunBulk reloads every available year of ds, replacing the table.
func (r *Runner) RunBulk(ctx context.Context, ds Dataset) (*Result, error) {
	target := Target{Dataset: ds, Bulk: true}
	return r.execute(ctx, target, func(plog logger.Logger, res *Result) error {
		return r.bulk(ctx, plog, ds, res)
	})
}

// execute wraps a run with its logger and metadata row.
func (r *Runner) execute(ctx context.Context, target Target, run func(logger.Logger, *Result) error) (*Result, error) {
	start := r.now()
	name := target.PipelineName()
	res := &Result{Pipeline: name}

	plog, err := logger.NewRunLogger(r.logConfig, r.logOut, r.opts.LogDir, name)
	if err != nil {
		return res, apperrors.Wrap(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"failed to set up pipeline logging")
	}
	defer plog.Close()

	var runID string
	if r.runs != nil {
		if runID, err = r.runs.Start(ctx, name); err != nil {
			plog.WithError(err).Warnf("Run metadata unavailable")
		}
	}

	err = run(plog, res)
	res.Duration = r.now().Sub(start)

	if err != nil {
		plog.Errorf("500 | %s run failed: %v", name, err)
		if r.runs != nil {
			if ferr := r.runs.Fail(ctx, runID, err, plog.Logs()); ferr != nil {
				plog.WithError(ferr).Warnf("Failed to record run failure")
			}
		}
		return res, err
	}

	if r.runs != nil {
		if serr := r.runs.Succeed(ctx, runID, res.Loaded, plog.Logs()); serr != nil {
			plog.WithError(serr).Warnf("Failed to record run success")
		}
	}
	return res, nil
}

// =============================================================================
// SINGLE
// =============================================================================

func (r *Runner) single(ctx context.Context, plog logger.Logger, ds Dataset, year int, res *Result) error {
	plog.Infof("100 | Starting %s single pipeline run", ds.Title)

	if year == 0 {
		latest, err := source.LatestYear(ctx, r.src, ds.Layout)
		if err != nil {
			return err
		}
		year = latest
		plog.Infof("110 | Latest CP year detected: %d", year)
	}

	plog.Infof("200 | Extracting %s (year=%d)", ds.Title, year)
	g, where, err := r.extract(ctx, ds, year)
	if err != nil {
		return err
	}
	plog.Infof("210 | Extracted rows: %d from %s", g.Rows(), where)

	plog.Infof("300 | Transforming %s", ds.Title)
	batch, err := ds.Transform(r.transformer.WithLogger(plog), g, year)
	if err != nil {
		return err
	}
	plog.Infof("310 | Transformed rows: %d", len(batch.Records))
	res.Years = []int{year}
	res.Records = len(batch.Records)

	if batch.Status == transform.StatusEmpty {
		plog.Warnf("315 | No records for year=%d, nothing to load", year)
		return nil
	}

	return r.finish(ctx, plog, ds, batch.Records, r.opts.Mode, res, fmt.Sprint(year))
}

// =============================================================================
// BULK
// =============================================================================

func (r *Runner) bulk(ctx context.Context, plog logger.Logger, ds Dataset, res *Result) error {
	plog.Infof("100 | Starting %s bulk pipeline run", ds.Title)
	plog.Infof("105 | Listing CP files under %s", r.src.Describe(ds.Layout.Prefix))

	years, err := source.FindYears(ctx, r.src, ds.Layout)
	if err != nil {
		return err
	}
	plog.Infof("115 | Years detected under %s: %v", r.src.Describe(ds.Layout.Prefix), years)
	if len(years) == 0 {
		return apperrors.New(apperrors.CategorySource, apperrors.CodeNoYears,
			fmt.Sprintf("No valid %s files under %s", ds.Title, r.src.Describe(ds.Layout.Prefix)))
	}

	var all []types.Record
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		ylog := plog.WithField("year", year)
		ylog.Infof("120 | Processing CP year=%d", year)

		ylog.Infof("200 | Extracting %s", ds.Title)
		g, where, err := r.extract(ctx, ds, year)
		if err != nil {
			if skippable(err) {
				ylog.WithError(err).Warnf("205 | Skipping year=%d: file missing or unreadable", year)
				res.Skipped = append(res.Skipped, year)
				continue
			}
			return err
		}
		ylog.Infof("210 | Extracted rows: %d from %s", g.Rows(), where)

		ylog.Infof("300 | Transforming %s", ds.Title)
		batch, err := ds.Transform(r.transformer.WithLogger(ylog), g, year)
		if err != nil {
			if skippable(err) {
				ylog.WithError(err).Warnf("205 | Skipping year=%d: unexpected layout", year)
				res.Skipped = append(res.Skipped, year)
				continue
			}
			return err
		}
		ylog.Infof("310 | Transformed rows (year=%d): %d", year, len(batch.Records))
		if batch.Status == transform.StatusEmpty {
			res.Skipped = append(res.Skipped, year)
			continue
		}
		all = append(all, batch.Records...)
		res.Years = append(res.Years, year)
	}

	if len(all) == 0 {
		return apperrors.New(apperrors.CategoryLoad, apperrors.CodeNoParts,
			"No data extracted/transformed from any CP years.")
	}
	plog.Infof("320 | Final concatenated rows: %d", len(all))
	res.Records = len(all)

	return r.finish(ctx, plog, ds, all, store.ModeOverwrite, res, "all")
}

// skippable reports whether a bulk run may skip the year that raised err.
func skippable(err error) bool {
	return apperrors.Is(err, apperrors.CategorySource) || apperrors.Is(err, apperrors.CategoryStructure)
}

// =============================================================================
// SHARED STEPS
// =============================================================================

func (r *Runner) extract(ctx context.Context, ds Dataset, year int) (*types.Grid, string, error) {
	key, err := source.Locate(ctx, r.src, ds.Layout, year)
	if err != nil {
		return nil, "", err
	}
	g, err := source.ReadGrid(ctx, r.src, key, ds.Layout.Sheet, r.opts.CSV)
	if err != nil {
		return nil, "", err
	}
	return g, r.src.Describe(key), nil
}

// finish validates, exports and loads a batch.
func (r *Runner) finish(ctx context.Context, plog logger.Logger, ds Dataset, records []types.Record, mode store.Mode, res *Result, yearLabel string) error {
	check := r.validator.ValidateAll(records)
	if !check.IsValid {
		if r.opts.IssuesDir != "" {
			path, err := export.WriteIssues(r.opts.IssuesDir, res.Pipeline, check.Errors, r.now())
			if err != nil {
				plog.WithError(err).Warnf("Failed to write validation report")
			} else {
				plog.Infof("Validation report written to %s", path)
			}
		}
		return check.Err()
	}
	if check.WarningCount > 0 {
		plog.Warnf("Validation finished with %d warnings", check.WarningCount)
	}

	if r.opts.ExportPath != "" {
		path, err := r.export(ds, records, yearLabel)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.CodeUnexpected, "export failed")
		}
		res.ExportPath = path
		plog.Infof("Exported %d records to %s", len(records), path)
	}

	if r.opts.DryRun {
		plog.Infof("400 | Dry run: skipping load of %d rows into %s", len(records), ds.Table.Name)
		return nil
	}
	if r.loader == nil {
		return apperrors.New(apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"no database configured").
			WithSuggestion("set the database variables or use --dry-run")
	}

	plog.Infof("400 | Preparing DB objects")
	if r.opts.CreateTables {
		if err := r.loader.EnsureTable(ctx, ds.Table); err != nil {
			return err
		}
	}

	plog.Infof("410 | Loading into PostgreSQL (%s)", mode)
	n, err := r.loader.Load(ctx, ds.Table, records, mode)
	if err != nil {
		return err
	}
	res.Loaded = n
	plog.Infof("499 | %s pipeline run successful", ds.Title)
	return nil
}

func (r *Runner) export(ds Dataset, records []types.Record, yearLabel string) (string, error) {
	path := export.OutputFileName(r.opts.ExportPath, map[string]string{
		"dataset": ds.Name,
		"year":    yearLabel,
	}, r.now())

	f, err := export.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if export.IsXLSX(path) {
		err = export.WriteXLSX(f, ds.Name, ds.Table.ColumnNames(), records)
	} else {
		err = ds.WriteCSV(f, records)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
