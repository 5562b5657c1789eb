// koanf_api
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	toml2 "github.com/pelletier/go-toml/v2"
)

// Configfile is the default location of the configuration file.
var Configfile = "./config/config.toml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// sections, so CATALOG_DATABASE__PATH sets database.path.
const EnvPrefix = "CATALOG_"

const (
	DriverSqlite   = "sqlite3"
	DriverPostgres = "postgres"
)

type MainConfig struct {
	General  GeneralConfig  `koanf:"general" toml:"general"`
	Database DatabaseConfig `koanf:"database" toml:"database"`
	Data     DataConfig     `koanf:"data" toml:"data"`
}

type GeneralConfig struct {
	LogLevel      string `koanf:"log_level" toml:"log_level"`
	DBLogLevel    string `koanf:"db_log_level" toml:"db_log_level"`
	LogFile       string `koanf:"log_file" toml:"log_file"`
	LogFileSize   int    `koanf:"log_file_size" toml:"log_file_size"`
	LogFileCount  uint8  `koanf:"log_file_count" toml:"log_file_count"`
	LogCompress   bool   `koanf:"log_compress" toml:"log_compress"`
	LogColorize   bool   `koanf:"log_colorize" toml:"log_colorize"`
	LogToFileOnly bool   `koanf:"log_to_file_only" toml:"log_to_file_only"`
	TimeFormat    string `koanf:"time_format" toml:"time_format"`
	TimeZone      string `koanf:"time_zone" toml:"time_zone"`
}

type DatabaseConfig struct {
	// Driver is either sqlite3 or postgres.
	Driver string `koanf:"driver" toml:"driver"`
	// Path is the sqlite database file.
	Path string `koanf:"path" toml:"path"`
	// DSN is the postgres connection string.
	DSN          string `koanf:"dsn" toml:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns" toml:"max_idle_conns"`
}

type DataConfig struct {
	Path            string `koanf:"path" toml:"path"`
	File            string `koanf:"file" toml:"file"`
	PopulateOnStart bool   `koanf:"populate_on_start" toml:"populate_on_start"`
}

// Default returns the configuration used when no file is present.
func Default() MainConfig {
	return MainConfig{
		General: GeneralConfig{
			LogLevel:     "info",
			DBLogLevel:   "info",
			LogFile:      "./logs/catalog.log",
			LogFileSize:  10,
			LogFileCount: 5,
			TimeFormat:   "rfc3339",
		},
		Database: DatabaseConfig{
			Driver:       DriverSqlite,
			Path:         "./databases/catalog.db",
			MaxOpenConns: 5,
			MaxIdleConns: 15,
		},
		Data: DataConfig{
			Path:            "./data",
			File:            "Data1000MoviesWithImage.csv",
			PopulateOnStart: true,
		},
	}
}

// DatasetPath returns the full path of the movie dataset.
func (c *DataConfig) DatasetPath() string {
	return filepath.Join(c.Path, c.File)
}

// DebugQueries reports whether database queries should be logged.
func (c *GeneralConfig) DebugQueries() bool {
	return strings.EqualFold(c.DBLogLevel, "debug")
}

// Load reads the configuration from path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*MainConfig, error) {
	cfg := Default()
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "load_config", "failed to parse config", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "load_config", "failed to open config", path, err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassConfig, "load_config_env", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassConfig, "load_config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings which cannot fall back to a default.
func (c *MainConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSqlite:
		if c.Database.Path == "" {
			return apperrors.New(apperrors.ErrClassConfig, "validate_config", "database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return apperrors.New(apperrors.ErrClassConfig, "validate_config", "database.dsn is required for postgres")
		}
	default:
		return apperrors.NewWithContext(apperrors.ErrClassConfig, "validate_config", "unknown database driver",
			map[string]any{"driver": c.Database.Driver})
	}
	if c.Data.File == "" {
		return apperrors.New(apperrors.ErrClassConfig, "validate_config", "data.file is required")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return apperrors.New(apperrors.ErrClassConfig, "validate_config", "connection limits must not be negative")
	}
	return nil
}

// WriteDefault writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	cnt, err := toml2.Marshal(Default())
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrClassConfig, "write_config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "write_config", "failed to create config dir", path, err)
	}
	if err := os.WriteFile(path, cnt, 0o644); err != nil {
		return false, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "write_config", "failed to write config", path, err)
	}
	return true, nil
}
