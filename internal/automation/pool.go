package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
)

// Session is one automation page bound to a caller-chosen id
type Session struct {
	ID   string
	page Page

	mu         sync.Mutex
	lastActive time.Time
	goal       string
	now        func() time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Navigate points the session's page at url
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.touch()
	return s.page.Navigate(ctx, url)
}

// Evaluate runs script in the session's page
func (s *Session) Evaluate(ctx context.Context, script string) (*Result, error) {
	s.touch()
	return s.page.Evaluate(ctx, script)
}

// Pool keeps one page per session id and evicts idle ones
type Pool struct {
	launcher Launcher
	config   Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewPool creates a pool launching pages with launcher
func NewPool(launcher Launcher, config Config, logger *zap.Logger) *Pool {
	def := DefaultConfig()
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = def.IdleTimeout
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.ScriptTimeout <= 0 {
		config.ScriptTimeout = def.ScriptTimeout
	}
	if config.Viewport.Width <= 0 || config.Viewport.Height <= 0 {
		config.Viewport = def.Viewport
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		launcher: launcher,
		config:   config,
		logger:   logger.Named("automation"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithMetrics adds metrics tracking to the pool
func (p *Pool) WithMetrics(metrics *monitoring.Metrics) *Pool {
	p.metrics = metrics
	return p
}

// CreateOrReuse returns the session for id, launching a page when none
// exists yet. Reuse refreshes the session's activity time.
func (p *Pool) CreateOrReuse(ctx context.Context, id string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if s, ok := p.sessions[id]; ok {
		s.touch()
		return s, nil
	}

	page, err := p.launcher.Launch(ctx, PageOptions{
		SessionID:     id,
		Viewport:      p.config.Viewport,
		UserAgent:     p.config.UserAgent,
		ScriptTimeout: p.config.ScriptTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch page for %s: %w", id, err)
	}

	s := &Session{ID: id, page: page, lastActive: p.now(), now: p.now}
	p.sessions[id] = s
	p.metrics.SetAutomationSessions(len(p.sessions))
	p.logger.Info("Automation session created", zap.String("session_id", id))
	return s, nil
}

// Lookup returns the session for id without launching one
func (p *Pool) Lookup(id string) (*Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	return s, ok
}

// SetGoal records the caller's current goal on a session
func (p *Pool) SetGoal(id, goal string) error {
	s, ok := p.Lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	s.goal = goal
	s.lastActive = p.now()
	s.mu.Unlock()
	return nil
}

// Goal returns the goal recorded on a session
func (p *Pool) Goal(id string) (string, bool) {
	s, ok := p.Lookup(id)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal, true
}

// Close closes and forgets the session for id. Unknown ids are ignored.
func (p *Pool) Close(id string) error {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
	}
	count := len(p.sessions)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	p.metrics.SetAutomationSessions(count)
	if err := s.page.Close(); err != nil {
		p.logger.Warn("Failed to close automation page", zap.String("session_id", id), zap.Error(err))
		return err
	}
	p.logger.Info("Automation session closed", zap.String("session_id", id))
	return nil
}

// Count returns the number of live sessions
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Sweep closes every session idle for longer than the idle timeout and
// returns how many were closed
func (p *Pool) Sweep() int {
	cutoff := p.now().Add(-p.config.IdleTimeout)

	p.mu.Lock()
	candidates := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		candidates = append(candidates, id)
	}
	p.mu.Unlock()

	evicted := 0
	for _, id := range candidates {
		if p.closeIfIdle(id, cutoff) {
			evicted++
		}
	}
	if evicted > 0 {
		p.logger.Info("Evicted idle automation sessions", zap.Int("count", evicted))
	}
	return evicted
}

// closeIfIdle removes the session for id when it has been idle since
// before cutoff. The idle check and the removal share one critical section
// so a session reused concurrently is never evicted.
func (p *Pool) closeIfIdle(id string, cutoff time.Time) bool {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if !ok || !s.LastActive().Before(cutoff) {
		p.mu.Unlock()
		return false
	}
	delete(p.sessions, id)
	count := len(p.sessions)
	p.mu.Unlock()

	p.metrics.SetAutomationSessions(count)
	p.metrics.IncAutomationEvictions()
	if err := s.page.Close(); err != nil {
		p.logger.Warn("Failed to close automation page", zap.String("session_id", id), zap.Error(err))
	}
	return true
}

// Run sweeps idle sessions until ctx is cancelled
func (p *Pool) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// Shutdown closes every session and rejects new ones
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	sessions := p.sessions
	p.sessions = make(map[string]*Session)
	p.mu.Unlock()

	p.metrics.SetAutomationSessions(0)
	for id, s := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.page.Close(); err != nil {
			p.logger.Warn("Failed to close automation page", zap.String("session_id", id), zap.Error(err))
		}
	}
	p.logger.Info("Automation pool shut down", zap.Int("sessions", len(sessions)))
	return nil
}
