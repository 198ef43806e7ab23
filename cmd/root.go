// =============================================================================
// ConNL - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (connl)
//   ├── runCmd     (connl run <dataset>...)
//   ├── yearsCmd   (connl years <dataset>)
//   └── versionCmd (connl version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Loads the YAML config (--config) and overlays environment variables
//   3. Builds the logger configuration (--verbose forces debug)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Kabrax96/ConNL-dev/internal/config"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile is the optional YAML configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// appConfig and logConfig are set by the root PersistentPreRunE.
var (
	appConfig *config.Config
	logConfig *logger.Config
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "connl",
	Short: "ConNL - Nuevo León CP budget report ETL",
	Long: `ConNL loads the annual cumulative (CP) budget reports published by the
state of Nuevo León into PostgreSQL.

Datasets:
  balance   F4 Balance Presupuestario        -> nuevo_leon_balance_presupuestario_cp
  egresos   F6a Egresos por Objeto del Gasto -> nuevo_leon_egresos_detallado_cp
  ingresos  F5 Ingresos Detallado            -> nuevo_leon_ingresos_detallado_cp

Example Usage:
  connl run balance                         # Latest year, upsert
  connl run egresos --mode bulk             # Every year, overwrite
  connl run ingresos --year 2023 --dry-run --export out/{dataset}_{year}.csv
  connl years balance --source local        # List available years`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI and exits with a status derived from the error
// category.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file (environment variables override it)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads .env, the config file and the environment.
func initConfig() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = string(logger.DebugLevel)
	}

	appConfig = cfg
	logConfig = &logger.Config{
		Level:  logger.Level(cfg.Logging.Level),
		Format: logger.Format(cfg.Logging.Format),
	}
	return nil
}
