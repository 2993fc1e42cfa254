// Package config loads configuration from the config file and
// environment and constructs the application logger.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Message service connection
	ServerURL string
	Token     string
	UserID    string
	Timeout   time.Duration

	// Polling
	PollInterval time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the yaml shape of the config file. Durations are
// strings in time.ParseDuration format.
type fileConfig struct {
	ServerURL    string `yaml:"server_url"`
	Token        string `yaml:"token"`
	UserID       string `yaml:"user_id"`
	Timeout      string `yaml:"timeout"`
	PollInterval string `yaml:"poll_interval"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "courier", "config.yml")
}

// Load reads configuration in precedence order: defaults, then the
// yaml config file, then environment variables. A .env file in the
// working directory is loaded best-effort first. path selects the
// config file; empty means DefaultPath, whose absence is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServerURL:    "http://localhost:8000",
		Timeout:      30 * time.Second,
		PollInterval: 5 * time.Second,
		LogFile:      "/tmp/courier.log",
		LogLevel:     slog.LevelInfo,
	}

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var file fileConfig
			if err := yaml.Unmarshal(data, &file); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := applyFile(&cfg, file); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case explicit:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, file fileConfig) error {
	if file.ServerURL != "" {
		cfg.ServerURL = file.ServerURL
	}
	if file.Token != "" {
		cfg.Token = file.Token
	}
	if file.UserID != "" {
		cfg.UserID = file.UserID
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if file.PollInterval != "" {
		d, err := time.ParseDuration(file.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(file.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COURIER_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("COURIER_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("COURIER_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("COURIER_CLIENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("COURIER_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("COURIER_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("COURIER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
