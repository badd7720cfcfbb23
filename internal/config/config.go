package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ServerURL      string        `yaml:"server_url" json:"server_url"`           // Remote API base URL
	DefaultProject int64         `yaml:"default_project" json:"default_project"` // Selected project, 0 = none
	RevertDelay    time.Duration `yaml:"revert_delay" json:"revert_delay"`       // How long a failed move shows the restored board
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"` // Per-request HTTP timeout
	ConfirmDelete  bool          `yaml:"confirm_delete" json:"confirm_delete"`   // Require confirmation for delete
	StatePath      string        `yaml:"state_path" json:"state_path"`           // sqlite file holding the session

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the ironboard home directory. IRONBOARD_HOME overrides ~/.ironboard.
func Dir() (string, error) {
	if dir := os.Getenv("IRONBOARD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ironboard"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath, statePath := "", ""
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "ironboard.log")
		statePath = filepath.Join(dir, "state.db")
	}

	return &Config{
		ServerURL:      getEnv("IRONBOARD_SERVER", "http://localhost:5000"),
		DefaultProject: getEnvInt("IRONBOARD_PROJECT", 0),
		RevertDelay:    getEnvDuration("IRONBOARD_REVERT_DELAY", time.Second),
		RequestTimeout: getEnvDuration("IRONBOARD_REQUEST_TIMEOUT", 30*time.Second),
		ConfirmDelete:  true,
		StatePath:      getEnv("IRONBOARD_STATE", statePath),
		LogLevel:       getEnv("IRONBOARD_LOG_LEVEL", "INFO"),
		LogFile:        getEnv("IRONBOARD_LOG_FILE", logPath),
		LogConsole:     getEnv("IRONBOARD_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

// loadDotEnv loads .env from the working directory without
// overriding variables that are already set
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from <Dir>/config.yaml, falling back to defaults
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	if c.RevertDelay < 0 {
		return fmt.Errorf("revert_delay must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// Save saves config to <Dir>/config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
