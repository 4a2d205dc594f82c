package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config holds the client settings.
type Config struct {
	APIURL          string
	FilesURL        string
	CredentialsPath string
	LogFile         string
	LogLevel        logrus.Level
	Timeout         time.Duration
}

const (
	defaultConfigPath      = "~/.config/shelf/config.toml"
	defaultAPIURL          = "http://localhost:8080/api"
	defaultCredentialsPath = "~/.config/shelf/credentials.toml"
	defaultLogFile         = "~/.local/state/shelf/shelf.log"
	defaultLogLevel        = logrus.InfoLevel
	defaultTimeout         = 30 * time.Second

	// EnvAPIURL overrides api_url.
	EnvAPIURL = "SHELF_API_URL"
	// EnvLogLevel overrides log_level.
	EnvLogLevel = "SHELF_LOG_LEVEL"
	// EnvConfig names an alternate config file.
	EnvConfig = "SHELF_CONFIG"
)

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		return env
	}
	return defaultConfigPath
}

// Load reads the config file at path, falling back to defaults when it is
// missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		FilesURL        string `toml:"files_url"`
		CredentialsPath string `toml:"credentials_path"`
		LogFile         string `toml:"log_file"`
		LogLevel        string `toml:"log_level"`
		TimeoutSeconds  int    `toml:"timeout_seconds"`
	}

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		raw.APIURL = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvLogLevel)); env != "" {
		raw.LogLevel = env
	}

	cfg := Config{
		APIURL:          strings.TrimRight(orDefault(raw.APIURL, defaultAPIURL), "/"),
		CredentialsPath: mustExpand(orDefault(raw.CredentialsPath, defaultCredentialsPath)),
		LogFile:         mustExpand(orDefault(raw.LogFile, defaultLogFile)),
		LogLevel:        defaultLogLevel,
		Timeout:         defaultTimeout,
	}
	cfg.FilesURL = strings.TrimRight(orDefault(raw.FilesURL, cfg.APIURL), "/")

	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: log_level: %w", err)
		}
		cfg.LogLevel = parsed
	}
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}

	return cfg, nil
}

// LogDir returns the directory holding the client log.
func (c Config) LogDir() string {
	return filepath.Dir(c.LogFile)
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultPath())
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
