package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Session    SessionConfig
	Storage    StorageConfig
	Directory  DirectoryConfig
	Viewport   ViewportConfig
	Automation AutomationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// Empty allows any origin
	AllowedOrigins []string `envconfig:"CORS_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SessionConfig holds session persistence configuration.
type SessionConfig struct {
	Key          string        `envconfig:"SESSION_KEY" default:"/session.json"`
	Debounce     time.Duration `envconfig:"SESSION_DEBOUNCE" default:"250ms"`
	Compress     bool          `envconfig:"SESSION_COMPRESS" default:"false"`
	Theme        string        `envconfig:"DEFAULT_THEME" default:"WestOS"`
	Wallpaper    string        `envconfig:"DEFAULT_WALLPAPER" default:""`
	WallpaperFit string        `envconfig:"DEFAULT_WALLPAPER_FIT" default:"fill"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string        `envconfig:"STORAGE_BACKEND" default:"memory"`
	Root    string        `envconfig:"STORAGE_ROOT" default:"./data"`
	URL     string        `envconfig:"STORAGE_URL" default:""`
	Timeout time.Duration `envconfig:"STORAGE_TIMEOUT" default:"10s"`
}

// DirectoryConfig holds application manifest configuration.
type DirectoryConfig struct {
	AppsDir string `envconfig:"APPS_DIR" default:""`
	Watch   bool   `envconfig:"APPS_WATCH" default:"false"`
}

// ViewportConfig is the desktop area assumed until a client reports its own.
type ViewportConfig struct {
	Width         int `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	Height        int `envconfig:"VIEWPORT_HEIGHT" default:"800"`
	TaskbarHeight int `envconfig:"TASKBAR_HEIGHT" default:"30"`
}

// AutomationConfig holds browser-automation pool configuration.
type AutomationConfig struct {
	IdleTimeout   time.Duration `envconfig:"AUTOMATION_IDLE_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `envconfig:"AUTOMATION_SWEEP_INTERVAL" default:"1m"`
	ScriptTimeout time.Duration `envconfig:"AUTOMATION_SCRIPT_TIMEOUT" default:"5s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Root == "" {
			return fmt.Errorf("STORAGE_ROOT is required for the file backend")
		}
	case "http":
		if c.Storage.URL == "" {
			return fmt.Errorf("STORAGE_URL is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Session.Debounce < 0 {
		return fmt.Errorf("SESSION_DEBOUNCE must not be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Session: SessionConfig{
			Key:          "/session.json",
			Debounce:     250 * time.Millisecond,
			Theme:        "WestOS",
			WallpaperFit: "fill",
		},
		Storage: StorageConfig{
			Backend: "memory",
			Root:    "./data",
			Timeout: 10 * time.Second,
		},
		Viewport: ViewportConfig{
			Width:         1280,
			Height:        800,
			TaskbarHeight: 30,
		},
		Automation: AutomationConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
			ScriptTimeout: 5 * time.Second,
		},
	}
}
