// =============================================================================
// ConNL - Run Command
// =============================================================================
//
// COMMAND USAGE:
//   connl run <dataset>... [flags]
//
// FLAGS:
//   --mode           single (one year, default) or bulk (every year, overwrite)
//   --year           year for single runs; 0 picks the latest available
//   --source         s3 or local, overrides SOURCE
//   --local-root     directory for the local source, overrides LOCAL_ROOT
//   --load-method    insert, upsert or overwrite, overrides LOAD_METHOD
//   --dry-run        transform and validate without touching the database
//   --export         write the records to a .csv or .xlsx file; the path may
//                    use {dataset}, {year}, {date} and {timestamp}
//   --issues-dir     write a validation report here when a batch is rejected
//   --create-tables  create the target table if it is missing
//
// Several datasets may be given; each runs in its own goroutine and loads
// its own table. "all" runs every dataset.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kabrax96/ConNL-dev/internal/pipeline"
	"github.com/Kabrax96/ConNL-dev/internal/store"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	runMode      string
	runYear      int
	sourceKind   string
	localRoot    string
	loadMethod   string
	dryRun       bool
	exportPath   string
	issuesDir    string
	createTables bool
)

// =============================================================================
// RUN COMMAND DEFINITION
// =============================================================================

var runCmd = &cobra.Command{
	Use:   "run <dataset>...",
	Short: "Extract, transform and load CP datasets",
	Long: `The run command reads the raw CP workbook(s) of each dataset, transforms
them into records, validates the batch and loads it into PostgreSQL.

Single runs load one year with the configured load method (default upsert).
Bulk runs read every available year, skip missing or malformed files, and
replace the whole table in one transaction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipelines(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", "single", "Run mode: single or bulk")
	runCmd.Flags().IntVar(&runYear, "year", 0, "Year for single runs (0 = latest available)")
	runCmd.Flags().StringVar(&sourceKind, "source", "", "Raw file source: s3 or local")
	runCmd.Flags().StringVar(&localRoot, "local-root", "", "Directory mirroring the bucket layout")
	runCmd.Flags().StringVar(&loadMethod, "load-method", "", "Load method for single runs: insert, upsert, overwrite")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Transform and validate without loading")
	runCmd.Flags().StringVar(&exportPath, "export", "", "Export records to a .csv or .xlsx file")
	runCmd.Flags().StringVar(&issuesDir, "issues-dir", "", "Directory for validation reports")
	runCmd.Flags().BoolVar(&createTables, "create-tables", false, "Create target tables if missing")
}

// applySourceFlags overlays the source flags onto the loaded configuration.
func applySourceFlags() error {
	if sourceKind != "" {
		appConfig.Source.Kind = sourceKind
	}
	if localRoot != "" {
		appConfig.Source.LocalRoot = localRoot
	}
	if loadMethod != "" {
		appConfig.LoadMethod = loadMethod
	}
	return appConfig.Validate()
}

// selectDatasets resolves dataset names, expanding "all".
func selectDatasets(names []string) ([]pipeline.Dataset, error) {
	if len(names) == 1 && strings.EqualFold(names[0], "all") {
		return pipeline.Datasets, nil
	}
	var out []pipeline.Dataset
	for _, name := range names {
		ds, err := pipeline.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

type runOutcome struct {
	target pipeline.Target
	result *pipeline.Result
	err    error
}

func runPipelines(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	if err := applySourceFlags(); err != nil {
		return err
	}
	var bulk bool
	switch runMode {
	case "single":
	case "bulk":
		bulk = true
	default:
		return apperrors.ConfigError("mode", runMode, "use single or bulk")
	}
	mode, err := store.ParseMode(appConfig.LoadMethod)
	if err != nil {
		return err
	}

	datasets, err := selectDatasets(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, closeDB, err := pipeline.Build(ctx, appConfig, logConfig, cmd.ErrOrStderr(), pipeline.Options{
		Mode:         mode,
		DryRun:       dryRun,
		ExportPath:   exportPath,
		IssuesDir:    issuesDir,
		CreateTables: createTables,
	})
	if err != nil {
		return err
	}
	defer closeDB()

	// =========================================================================
	// RUN DATASETS CONCURRENTLY
	// =========================================================================

	var wg sync.WaitGroup
	results := make(chan runOutcome, len(datasets))

	for _, ds := range datasets {
		wg.Add(1)
		go func(target pipeline.Target) {
			defer wg.Done()
			res, err := runner.Run(ctx, target, runYear)
			results <- runOutcome{target: target, result: res, err: err}
		}(pipeline.Target{Dataset: ds, Bulk: bulk})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// SUMMARY
	// =========================================================================

	out := cmd.OutOrStdout()
	var firstErr error
	var failed int
	for o := range results {
		if o.err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.err
			}
			fmt.Fprintf(out, "  ✗ %s: %v\n", o.target, o.err)
			continue
		}
		r := o.result
		fmt.Fprintf(out, "  ✓ %s years=%v records=%d loaded=%d", o.target, r.Years, r.Records, r.Loaded)
		if len(r.Skipped) > 0 {
			fmt.Fprintf(out, " skipped=%v", r.Skipped)
		}
		if r.ExportPath != "" {
			fmt.Fprintf(out, " export=%s", r.ExportPath)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\nPipelines: %d, failed: %d, elapsed: %s\n",
		len(datasets), failed, time.Since(startTime).Round(time.Millisecond))
	return firstErr
}

// withTimeout bounds commands that only talk to the source.
func withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, 2*time.Minute)
}
