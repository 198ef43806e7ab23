// =============================================================================
// ConNL - AWS Lambda Entry Point
// =============================================================================
//
// Route priority:
//   1. S3 ObjectCreated events run the single pipeline of the dataset whose
//      prefix contains the object key
//   2. {"pipeline": "<dataset>_cp_<single|bulk>"} payloads
//   3. The PIPELINE_TARGET environment variable
//
// Configuration comes from the environment only. Log files go to LOG_DIR,
// /tmp/logs by default.
//
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Kabrax96/ConNL-dev/internal/config"
	"github.com/Kabrax96/ConNL-dev/internal/pipeline"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

const defaultLogDir = "/tmp/logs"

// Response is returned to the invoker.
type Response struct {
	OK        bool   `json:"ok"`
	Pipeline  string `json:"pipeline"`
	DBLogging bool   `json:"db_logging"`
	Records   int    `json:"records"`
	Loaded    int64  `json:"loaded"`
}

func handler(ctx context.Context, event json.RawMessage) (Response, error) {
	cfg, err := config.Load("")
	if err != nil {
		return Response{}, err
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = defaultLogDir
	}

	target, err := pipeline.ResolveTarget(event, cfg.PipelineTarget)
	if err != nil {
		return Response{}, err
	}

	logCfg := &logger.Config{
		Level:  logger.Level(cfg.Logging.Level),
		Format: logger.Format(cfg.Logging.Format),
	}
	runner, closeDB, err := pipeline.Build(ctx, cfg, logCfg, os.Stdout, pipeline.Options{})
	if err != nil {
		return Response{}, err
	}
	defer closeDB()

	res, err := runner.Run(ctx, target, 0)
	if err != nil {
		return Response{}, err
	}
	return Response{
		OK:        true,
		Pipeline:  target.String(),
		DBLogging: cfg.Logging.RecordRuns,
		Records:   res.Records,
		Loaded:    res.Loaded,
	}, nil
}

func main() {
	lambda.Start(handler)
}
