package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, filepath.Join("./data", "Data1000MoviesWithImage.csv"), cfg.Data.DatasetPath())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
log_level = "debug"
db_log_level = "debug"

[database]
path = "/tmp/movies.db"
max_open_conns = 1

[data]
path = "/srv/data"
file = "movies.csv"
populate_on_start = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.True(t, cfg.General.DebugQueries())
	assert.Equal(t, DriverSqlite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/movies.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, 15, cfg.Database.MaxIdleConns)
	assert.Equal(t, "/srv/data/movies.csv", cfg.Data.DatasetPath())
	assert.False(t, cfg.Data.PopulateOnStart)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CATALOG_DATABASE__PATH", "/env/catalog.db")
	t.Setenv("CATALOG_DATA__FILE", "env.csv")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "/env/catalog.db", cfg.Database.Path)
	assert.Equal(t, "env.csv", cfg.Data.File)
}

func TestLoadInvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\nlog_level="), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrClassConfig, apperrors.GetClass(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MainConfig)
		ok     bool
	}{
		{"defaults", func(*MainConfig) {}, true},
		{"unknown driver", func(c *MainConfig) { c.Database.Driver = "mysql" }, false},
		{"postgres without dsn", func(c *MainConfig) { c.Database.Driver = DriverPostgres }, false},
		{"postgres with dsn", func(c *MainConfig) {
			c.Database.Driver = DriverPostgres
			c.Database.DSN = "postgres://localhost/catalog"
		}, true},
		{"empty sqlite path", func(c *MainConfig) { c.Database.Path = "" }, false},
		{"empty dataset file", func(c *MainConfig) { c.Data.File = "" }, false},
		{"negative conns", func(c *MainConfig) { c.Database.MaxOpenConns = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, apperrors.ErrClassConfig, apperrors.GetClass(err))
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.toml")

	written, err := WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, written)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	written, err = WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, written)
}
