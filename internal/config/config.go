package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	History  HistoryConfig  `yaml:"history"`
	Polling  PollingConfig  `yaml:"polling"`
	Progress ProgressConfig `yaml:"progress"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`
}

// BackendConfig points at the research agent API.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of 0 leaves requests unbounded.
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig selects where the query history is kept.
type HistoryConfig struct {
	Driver     string `yaml:"driver"` // "file" or "sqlite"
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// PollingConfig sets the background refresh cadence.
type PollingConfig struct {
	HealthInterval time.Duration `yaml:"health_interval"`
	AdminInterval  time.Duration `yaml:"admin_interval"`
}

// ProgressConfig tunes the optimistic progress animation.
type ProgressConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Limit       time.Duration `yaml:"limit"`
	Ceiling     float64       `yaml:"ceiling"`
	MaxStep     float64       `yaml:"max_step"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// ExportConfig controls where downloads land.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// UIConfig holds presentation defaults.
type UIConfig struct {
	ToastDuration  time.Duration `yaml:"toast_duration"`
	HistoryPreview int           `yaml:"history_preview"`
	LogLines       int           `yaml:"log_lines"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8001",
		},
		History: HistoryConfig{
			Driver:     "file",
			Path:       expandHome("~/.research-dash/history.json"),
			MaxEntries: 10,
		},
		Polling: PollingConfig{
			HealthInterval: 30 * time.Second,
			AdminInterval:  30 * time.Second,
		},
		Progress: ProgressConfig{
			Interval:    800 * time.Millisecond,
			Limit:       30 * time.Second,
			Ceiling:     90,
			MaxStep:     15,
			SettleDelay: time.Second,
		},
		Export: ExportConfig{
			Dir: expandHome("~/Downloads"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  expandHome("~/.research-dash/research-dash.log"),
		},
		UI: UIConfig{
			ToastDuration:  5 * time.Second,
			HistoryPreview: 80,
			LogLines:       100,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists) and RESEARCH_DASH_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(expandHome(path))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	return cfg, nil
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return expandHome("~/.research-dash/config.yaml")
}

func (c *Config) applyEnvOverrides() {
	if v := GetEnv("RESEARCH_DASH_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := GetEnv("RESEARCH_DASH_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.Timeout = d
		}
	}
	if v := GetEnv("RESEARCH_DASH_HISTORY_DRIVER"); v != "" {
		c.History.Driver = strings.ToLower(v)
	}
	if v := GetEnv("RESEARCH_DASH_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := GetEnv("RESEARCH_DASH_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := GetEnv("RESEARCH_DASH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := GetEnv("RESEARCH_DASH_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := GetEnv("RESEARCH_DASH_HISTORY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.History.MaxEntries = n
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL %q is not an absolute URL", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout cannot be negative")
	}
	switch c.History.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("history driver must be \"file\" or \"sqlite\", got %q", c.History.Driver)
	}
	if c.History.Path == "" {
		return fmt.Errorf("history path cannot be empty")
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history max entries must be at least 1")
	}
	if c.Polling.HealthInterval <= 0 || c.Polling.AdminInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if c.Progress.Interval <= 0 || c.Progress.Limit <= 0 {
		return fmt.Errorf("progress interval and limit must be positive")
	}
	if c.Progress.Ceiling <= 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("progress ceiling must be between 0 and 100")
	}
	if c.Progress.MaxStep <= 0 {
		return fmt.Errorf("progress max step must be positive")
	}
	if c.UI.ToastDuration <= 0 {
		return fmt.Errorf("toast duration must be positive")
	}
	return nil
}

// BackendPort returns the port the backend is expected on, used in
// connection hints.
func (c *Config) BackendPort() string {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return ""
	}
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
