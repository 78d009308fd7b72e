package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a failing backend is being rested
var ErrCircuitOpen = errors.New("storage circuit breaker is open")

// GuardSettings configures Guarded
type GuardSettings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit
	MaxFailures int
	// Cooldown is how long the circuit stays open before a probe is allowed
	Cooldown time.Duration
	// OnStateChange is called with the new state ("open", "half-open", "closed")
	OnStateChange func(state string)
}

// Guarded wraps a backend with a circuit breaker so an unreachable store
// fails fast instead of stalling every persistence attempt.
type Guarded struct {
	backend  Backend
	settings GuardSettings
	now      func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
	probing  bool
}

// NewGuarded creates a circuit-broken backend
func NewGuarded(backend Backend, settings GuardSettings) *Guarded {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Guarded{backend: backend, settings: settings, now: time.Now}
}

// State returns the breaker state
func (g *Guarded) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Guarded) stateLocked() string {
	switch {
	case !g.open:
		return "closed"
	case g.probing || g.now().Sub(g.openedAt) >= g.settings.Cooldown:
		return "half-open"
	default:
		return "open"
	}
}

func (g *Guarded) before() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open {
		return nil
	}
	if g.probing || g.now().Sub(g.openedAt) < g.settings.Cooldown {
		return ErrCircuitOpen
	}
	g.probing = true
	g.notify("half-open")
	return nil
}

func (g *Guarded) after(err error) {
	// Missing or conflicting blobs are answers, not outages
	failed := err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExists)

	g.mu.Lock()
	defer g.mu.Unlock()

	wasOpen := g.open
	g.probing = false
	if !failed {
		g.failures = 0
		g.open = false
		if wasOpen {
			g.notify("closed")
		}
		return
	}

	g.failures++
	if wasOpen || g.failures >= g.settings.MaxFailures {
		g.open = true
		g.openedAt = g.now()
		g.notify("open")
	}
}

func (g *Guarded) notify(state string) {
	if g.settings.OnStateChange != nil {
		g.settings.OnStateChange(state)
	}
}

// Exists reports whether key holds a blob
func (g *Guarded) Exists(ctx context.Context, key string) (bool, error) {
	if err := g.before(); err != nil {
		return false, err
	}
	ok, err := g.backend.Exists(ctx, key)
	g.after(err)
	return ok, err
}

// Read returns the blob stored under key
func (g *Guarded) Read(ctx context.Context, key string) ([]byte, error) {
	if err := g.before(); err != nil {
		return nil, err
	}
	data, err := g.backend.Read(ctx, key)
	g.after(err)
	return data, err
}

// Write stores data under key
func (g *Guarded) Write(ctx context.Context, key string, data []byte, overwrite bool) error {
	if err := g.before(); err != nil {
		return err
	}
	err := g.backend.Write(ctx, key, data, overwrite)
	g.after(err)
	return err
}
