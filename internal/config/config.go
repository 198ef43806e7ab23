// =============================================================================
// ConNL - Configuration Module
// =============================================================================
//
// Configuration comes from two layers, applied in order:
//   1. An optional YAML file (--config), for local and scheduled runs
//   2. Environment variables, which always win; Lambda is configured only
//      through these
//
// ENVIRONMENT VARIABLES:
//   SERVER_NAME, DATABASE_NAME, DB_USERNAME, DB_PASSWORD, PORT, DATABASE_URL
//   BUCKET_NAME, SOURCE, LOCAL_ROOT, CSV_DELIMITER, CSV_ENCODING
//   LOG_DIR, LOGGING_LEVEL, LOGGING_FORMAT, LOGGING_RECORD_RUNS
//   LOAD_METHOD, PIPELINE_TARGET
//
// Values are validated once after loading, before any file or database I/O.
//
// =============================================================================

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`
	Logging  LoggingConfig  `yaml:"logging"`

	// LoadMethod is one of "insert", "upsert" or "overwrite". Single-year
	// runs use it; bulk runs always overwrite.
	// Default: "upsert"
	LoadMethod string `yaml:"load_method"`

	// PipelineTarget is the default Lambda route, e.g. "balance_cp_single".
	PipelineTarget string `yaml:"pipeline_target"`
}

// DatabaseConfig describes the target PostgreSQL database.
type DatabaseConfig struct {
	// URL, when set, takes precedence over the individual fields.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Default: 5432
	Port int `yaml:"port"`
	// Default: "prefer"
	SSLMode string `yaml:"sslmode"`
}

// SourceConfig describes where raw workbooks are read from.
type SourceConfig struct {
	// Kind is "s3" or "local".
	// Default: "s3"
	Kind string `yaml:"kind"`

	// Bucket is the S3 bucket holding the raw workbooks.
	// Default: "centralfiles3"
	Bucket string `yaml:"bucket"`

	// LocalRoot is the directory mirroring the bucket layout for local runs.
	// Default: "./data"
	LocalRoot string `yaml:"local_root"`

	CSVDelimiter string `yaml:"csv_delimiter"`
	CSVEncoding  string `yaml:"csv_encoding"`
}

// LoggingConfig controls log output and run metadata.
type LoggingConfig struct {
	// Level: debug, info, warn, error. Default: "info"
	Level string `yaml:"level"`
	// Format: text or json. Default: "text"
	Format string `yaml:"format"`
	// Dir receives one log file per pipeline. Empty disables file logs.
	Dir string `yaml:"dir"`
	// RecordRuns writes start/success/failure rows to the metadata table.
	RecordRuns bool `yaml:"record_runs"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Port: 5432, SSLMode: "prefer"},
		Source: SourceConfig{
			Kind:         "s3",
			Bucket:       "centralfiles3",
			LocalRoot:    "./data",
			CSVDelimiter: ",",
			CSVEncoding:  "UTF-8",
		},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		LoadMethod: "upsert",
	}
}

// Load reads the YAML file at path (if any), overlays environment variables
// and validates the result.
//
// RETURNS:
//   - The merged configuration.
//   - A configuration error if the file is unreadable or a value is invalid.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
				fmt.Sprintf("failed to read config file %s", path))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig,
				fmt.Sprintf("failed to parse config file %s", path))
		}
	}

	applyEnv(cfg, newEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEnv returns a viper instance that resolves keys from the environment.
func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// applyEnv overlays every non-empty environment variable onto cfg.
func applyEnv(cfg *Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}

	str("DATABASE_URL", &cfg.Database.URL)
	str("SERVER_NAME", &cfg.Database.Host)
	str("DATABASE_NAME", &cfg.Database.Name)
	str("DB_USERNAME", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_SSLMODE", &cfg.Database.SSLMode)
	if v.GetString("PORT") != "" {
		cfg.Database.Port = v.GetInt("PORT")
	}

	str("SOURCE", &cfg.Source.Kind)
	str("BUCKET_NAME", &cfg.Source.Bucket)
	str("LOCAL_ROOT", &cfg.Source.LocalRoot)
	str("CSV_DELIMITER", &cfg.Source.CSVDelimiter)
	str("CSV_ENCODING", &cfg.Source.CSVEncoding)

	str("LOG_DIR", &cfg.Logging.Dir)
	str("LOGGING_LEVEL", &cfg.Logging.Level)
	str("LOGGING_FORMAT", &cfg.Logging.Format)
	if v.GetString("LOGGING_RECORD_RUNS") != "" {
		cfg.Logging.RecordRuns = v.GetBool("LOGGING_RECORD_RUNS")
	}

	str("LOAD_METHOD", &cfg.LoadMethod)
	str("PIPELINE_TARGET", &cfg.PipelineTarget)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate rejects unknown enumerations and missing required values.
func (c *Config) Validate() error {
	switch c.LoadMethod {
	case "insert", "upsert", "overwrite":
	default:
		return apperrors.ConfigError("load_method", c.LoadMethod, "use one of insert, upsert, overwrite")
	}

	switch c.Source.Kind {
	case "s3":
		if c.Source.Bucket == "" {
			return apperrors.ConfigError("source.bucket", `""`, "required for the s3 source")
		}
	case "local":
		if c.Source.LocalRoot == "" {
			return apperrors.ConfigError("source.local_root", `""`, "required for the local source")
		}
	default:
		return apperrors.ConfigError("source.kind", c.Source.Kind, "use s3 or local")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.ConfigError("logging.level", c.Logging.Level, "use debug, info, warn or error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return apperrors.ConfigError("logging.format", c.Logging.Format, "use text or json")
	}

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return apperrors.ConfigError("database.port", c.Database.Port, "must be between 1 and 65535")
	}
	return nil
}

// HasDatabase reports whether enough is configured to open a connection.
func (d DatabaseConfig) HasDatabase() bool {
	return d.URL != "" || (d.Host != "" && d.Name != "")
}

// DSN returns a PostgreSQL connection URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}
