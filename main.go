// =============================================================================
// ConNL - Main Entry Point
// =============================================================================
//
// USAGE:
//   connl run <dataset>...   - Load one or more CP datasets
//   connl years <dataset>    - List the years available for a dataset
//   connl version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/          : CLI command definitions (Cobra)
//   - cmd/lambda/   : AWS Lambda entry point
//   - internal/     : transform core, sources, store, pipelines
//   - pkg/          : errors and logging shared by every package
//
// =============================================================================

package main

import (
	"github.com/Kabrax96/ConNL-dev/cmd"
)

func main() {
	cmd.Execute()
}
