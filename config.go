package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".ligapro"
	configType = "yaml"
	envPrefix  = "LIGAPRO"
)

// Config is the runtime configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Upload UploadConfig `mapstructure:"upload"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Log    LogConfig    `mapstructure:"log"`
}

type StoreConfig struct {
	// Driver is one of csv, sqlite, postgres or memory.
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type OCRConfig struct {
	Language    string `mapstructure:"language"`
	PageSegMode int    `mapstructure:"page_seg_mode"`
	MinHeight   int    `mapstructure:"min_height"`
	Threshold   int    `mapstructure:"threshold"`
}

type WatchConfig struct {
	Dir          string `mapstructure:"dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
	Workers      int    `mapstructure:"workers"`
	MaxBytes     int64  `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.path", "data/estadisticas_liga.csv")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("upload.max_bytes", 5*1024*1024)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.page_seg_mode", 0)
	v.SetDefault("ocr.min_height", 900)
	v.SetDefault("ocr.threshold", 0)
	v.SetDefault("watch.dir", "public/capturas")
	v.SetDefault("watch.processed_dir", "public/processed")
	v.SetDefault("watch.workers", 0)
	v.SetDefault("watch.max_bytes", 1_000_000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// loadConfig reads defaults, the optional config file and LIGAPRO_*
// environment variables. A missing config file is not an error.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	applyDefaults(v)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "csv", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for driver \"postgres\"")
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Store.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	if c.OCR.Threshold < 0 || c.OCR.Threshold > 255 {
		return errors.New("ocr.threshold must be within 0-255")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// newLogger builds the structured logger shared by every component.
func newLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	lvl, _ := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
