package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/existflow/vibetrack/internal/model"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	MaxPollInterval = time.Second
)

// Config holds user preferences
type Config struct {
	Backend      string        `yaml:"backend" json:"backend"`             // local or remote
	ServerURL    string        `yaml:"server_url" json:"server_url"`       // vibetrack-server base URL
	DBPath       string        `yaml:"db_path" json:"db_path"`             // local store database
	SessionPath  string        `yaml:"session_path" json:"session_path"`   // signed-in principal
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"` // change notification poll
	ExportDir    string        `yaml:"export_dir" json:"export_dir"`       // CSV export target
	Platforms    []string      `yaml:"platforms" json:"platforms"`         // editor platform options

	// Command that prints a Google ID token for federated sign-in
	IDTokenCommand string `yaml:"id_token_command" json:"id_token_command"`

	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns ~/.vibetrack
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vibetrack")
}

// Path returns the config file location
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()
	exportDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		exportDir = home
	}

	return &Config{
		Backend:       BackendLocal,
		DBPath:        filepath.Join(dir, "projects.db"),
		SessionPath:   filepath.Join(dir, "session.json"),
		PollInterval:  500 * time.Millisecond,
		ExportDir:     exportDir,
		Platforms:     append([]string(nil), model.DefaultPlatforms...),
		ConfirmDelete: true,
		LogLevel:      "INFO",
		LogFile:       filepath.Join(dir, "logs", "vibe.log"),
		LogConsole:    false,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv overrides settings from VIBETRACK_* variables
func (c *Config) applyEnv() {
	c.Backend = getEnv("VIBETRACK_BACKEND", c.Backend)
	c.ServerURL = getEnv("VIBETRACK_SERVER_URL", c.ServerURL)
	c.DBPath = getEnv("VIBETRACK_DB_PATH", c.DBPath)
	c.SessionPath = getEnv("VIBETRACK_SESSION_PATH", c.SessionPath)
	c.ExportDir = getEnv("VIBETRACK_EXPORT_DIR", c.ExportDir)
	c.IDTokenCommand = getEnv("VIBETRACK_ID_TOKEN_COMMAND", c.IDTokenCommand)
	c.LogLevel = getEnv("VIBETRACK_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("VIBETRACK_LOG_FILE", c.LogFile)
	if v := os.Getenv("VIBETRACK_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
	if v := os.Getenv("VIBETRACK_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PollInterval = d
		}
	}
}

// Load loads config from ~/.vibetrack/config.yaml
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads config from path, falling back to defaults when the file
// does not exist. Environment overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save saves config to ~/.vibetrack/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config as YAML to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate reports every problem with the settings at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendLocal:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db_path is required for the local backend"))
		}
	case BackendRemote:
		if c.ServerURL == "" {
			errs = append(errs, errors.New("server_url is required for the remote backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendLocal, BackendRemote, c.Backend))
	}

	if c.SessionPath == "" {
		errs = append(errs, errors.New("session_path is required"))
	}
	if c.PollInterval <= 0 || c.PollInterval > MaxPollInterval {
		errs = append(errs, fmt.Errorf("poll_interval must be between 1ms and %s, got %s", MaxPollInterval, c.PollInterval))
	}
	if len(c.Platforms) == 0 {
		errs = append(errs, errors.New("platforms must list at least one option"))
	}

	return errors.Join(errs...)
}

// Keys lists the settings accepted by Set
var Keys = []string{
	"backend", "server_url", "db_path", "session_path", "poll_interval",
	"export_dir", "platforms", "id_token_command", "confirm_delete",
	"log_level", "log_file", "log_console",
}

// Set changes a single setting by its YAML key
func (c *Config) Set(key, value string) error {
	switch key {
	case "backend":
		c.Backend = value
	case "server_url":
		c.ServerURL = strings.TrimRight(value, "/")
	case "db_path":
		c.DBPath = value
	case "session_path":
		c.SessionPath = value
	case "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		c.PollInterval = d
	case "export_dir":
		c.ExportDir = value
	case "platforms":
		var platforms []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				platforms = append(platforms, p)
			}
		}
		c.Platforms = platforms
	case "id_token_command":
		c.IDTokenCommand = value
	case "confirm_delete":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("confirm_delete: %w", err)
		}
		c.ConfirmDelete = b
	case "log_level":
		c.LogLevel = strings.ToUpper(value)
	case "log_file":
		c.LogFile = value
	case "log_console":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log_console: %w", err)
		}
		c.LogConsole = b
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}
