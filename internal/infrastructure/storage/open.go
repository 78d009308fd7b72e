package storage

import (
	"fmt"
	"time"
)

// Config selects and configures a backend
type Config struct {
	Backend string // "memory", "file" or "http"
	Root    string
	URL     string
	Timeout time.Duration
	Guard   GuardSettings
}

// Open builds the configured backend. Remote and file backends are wrapped
// in a circuit breaker.
func Open(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		if cfg.Root == "" {
			return nil, fmt.Errorf("file storage requires a root directory")
		}
		file, err := NewFile(cfg.Root)
		if err != nil {
			return nil, err
		}
		return NewGuarded(file, cfg.Guard), nil
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("http storage requires a base URL")
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return NewGuarded(NewHTTP(cfg.URL, timeout), cfg.Guard), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
