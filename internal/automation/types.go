package automation

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPoolClosed      = errors.New("automation pool is closed")
	ErrSessionNotFound = errors.New("automation session not found")
	ErrPageClosed      = errors.New("automation page is closed")
)

// Config defines pool behavior
type Config struct {
	IdleTimeout   time.Duration // Sessions idle longer than this are closed
	SweepInterval time.Duration // How often idle sessions are looked for
	ScriptTimeout time.Duration // Per-evaluation limit for script pages
	Viewport      Viewport
	UserAgent     string
}

// Viewport is the emulated page size
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultConfig returns the stock pool configuration
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   30 * time.Minute,
		SweepInterval: time.Minute,
		ScriptTimeout: 5 * time.Second,
		Viewport:      Viewport{Width: 1280, Height: 720},
		UserAgent:     "WesternOS/1.0 (AgenticSeek Agent)",
	}
}

// PageOptions are passed to a Launcher for every new page
type PageOptions struct {
	SessionID     string
	Viewport      Viewport
	UserAgent     string
	ScriptTimeout time.Duration
}

// Launcher creates isolated pages
type Launcher interface {
	Launch(ctx context.Context, opts PageOptions) (Page, error)
}

// Page is one isolated browsing context
type Page interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string) (*Result, error)
	Close() error
}

// Result holds an evaluation result
type Result struct {
	Value    interface{}   `json:"value"`
	Console  []LogEntry    `json:"console"`
	Duration time.Duration `json:"duration"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
