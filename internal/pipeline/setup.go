package pipeline

import (
	"context"
	"io"

	"github.com/Kabrax96/ConNL-dev/internal/config"
	"github.com/Kabrax96/ConNL-dev/internal/csvparser"
	"github.com/Kabrax96/ConNL-dev/internal/source"
	"github.com/Kabrax96/ConNL-dev/internal/store"
	"github.com/Kabrax96/ConNL-dev/internal/transform"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// OpenSource returns the raw file source selected by cfg.
func OpenSource(ctx context.Context, cfg config.SourceConfig) (source.Source, error) {
	if cfg.Kind == "local" {
		return source.NewLocal(cfg.LocalRoot), nil
	}
	s3src, err := source.NewS3(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"failed to set up S3 source")
	}
	return s3src, nil
}

// Build wires a Runner from configuration. The database is only opened when
// the run loads data or records run metadata. The returned func releases
// the connection pool.
func Build(ctx context.Context, cfg *config.Config, logConfig *logger.Config, out io.Writer, opts Options) (*Runner, func(), error) {
	noop := func() {}

	if opts.Mode == "" {
		mode, err := store.ParseMode(cfg.LoadMethod)
		if err != nil {
			return nil, noop, err
		}
		opts.Mode = mode
	}
	if opts.LogDir == "" {
		opts.LogDir = cfg.Logging.Dir
	}
	opts.CSV = csvparser.Settings{Delimiter: cfg.Source.CSVDelimiter, Encoding: cfg.Source.CSVEncoding}

	src, err := OpenSource(ctx, cfg.Source)
	if err != nil {
		return nil, noop, err
	}

	base, err := logger.New(logConfig)
	if err != nil {
		return nil, noop, err
	}

	var (
		loader Loader
		runs   RunRecorder
		closer = noop
	)
	needDB := !opts.DryRun || cfg.Logging.RecordRuns
	if needDB && cfg.Database.HasDatabase() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		closer = pool.Close
		loader = store.NewLoader(pool, base)
		if cfg.Logging.RecordRuns {
			rl := store.NewRunLog(pool)
			if err := rl.Ensure(ctx); err != nil {
				base.WithError(err).Warnf("Run metadata disabled")
			} else {
				runs = rl
			}
		}
	} else if !opts.DryRun {
		return nil, noop, apperrors.New(apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
			"database is not configured").
			WithSuggestion("set DATABASE_URL or SERVER_NAME and DATABASE_NAME, or use --dry-run")
	}

	t := transform.New(transform.RandomKeys{}, base)
	return NewRunner(src, loader, runs, t, logConfig, out, opts), closer, nil
}
