package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"ligapro/pkg/ledger"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "data/estadisticas_liga.csv", cfg.Store.Path)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 900, cfg.OCR.MinHeight)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ligapro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: sqlite
  path: /tmp/league.db
server:
  addr: ":9000"
watch:
  workers: 4
`), 0o644))
	t.Setenv("LIGAPRO_SERVER_ADDR", ":9100")
	t.Setenv("LIGAPRO_LOG_FORMAT", "json")

	cfg, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/league.db", cfg.Store.Path)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Watch.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:  StoreConfig{Driver: "csv", Path: "x.csv"},
			Upload: UploadConfig{MaxBytes: 1},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.Store.Driver = "mongo"
	assert.True(t, errors.Is(c.Validate(), ErrUnsupportedDriver))

	c = base()
	c.Store.Driver = "postgres"
	assert.Error(t, c.Validate())

	c = base()
	c.Log.Level = "loud"
	assert.Error(t, c.Validate())

	c = base()
	c.Log.Format = "xml"
	assert.Error(t, c.Validate())

	c = base()
	c.OCR.Threshold = 300
	assert.Error(t, c.Validate())
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	for _, cfg := range []StoreConfig{
		{Driver: "csv", Path: filepath.Join(dir, "a.csv")},
		{Driver: "sqlite", Path: filepath.Join(dir, "a.db")},
		{Driver: "memory"},
	} {
		store, closeFn, err := openStore(ctx, cfg, logger)
		require.NoError(t, err, cfg.Driver)
		l, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
		require.NoError(t, store.Save(ctx, ledger.FromEntries([]ledger.Entry{{Name: "A", Appearances: 1}})))
		require.NoError(t, closeFn())
	}

	_, closeFn, err := openStore(ctx, StoreConfig{Driver: "excel"}, logger)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
	assert.NoError(t, closeFn())
}
