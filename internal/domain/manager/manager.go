package manager

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/geometry"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/stack"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ErrUnknownApplication is reported when opening a type the directory lacks
var ErrUnknownApplication = errors.New("unknown application type")

// Directory resolves application types
type Directory interface {
	Lookup(appType string) (types.Application, bool)
}

// Session is the durable state the manager reads at startup and writes
// through on every change. *session.Store implements it.
type Session interface {
	geometry.StateStore
	Load(ctx context.Context)
	Ready() <-chan struct{}
	Snapshot() types.SessionSnapshot
	SetStackOrder(order []string)
	UpsertOpened(id string, rec types.OpenedProcess)
	SetOpenedArgument(id, key string, value interface{})
	DeleteOpened(id string)
}

type pendingOpen struct {
	appType string
	args    types.Arguments
	icon    string
}

// Manager owns the live process table. It is the only writer of the table
// and of the stack order, and updates both in one critical section.
type Manager struct {
	directory Directory
	session   Session
	geometry  *geometry.Store
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu         sync.Mutex
	table      process.Table
	order      stack.Order
	foreground string
	ready      bool
	queue      []pendingOpen
	readyCh    chan struct{}
	started    bool

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a manager. Call Start to hydrate from the session.
func New(directory Directory, session Session, viewport types.Viewport, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		directory: directory,
		session:   session,
		geometry:  geometry.NewStore(session, viewport),
		logger:    logger.Named("manager"),
		table:     process.Table{},
		order:     stack.Order{},
		readyCh:   make(chan struct{}),
		subs:      make(map[int]chan Event),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Start begins loading the session. Once it is loaded the persisted
// processes are replayed, the stack order restored and queued opens
// drained, in that order.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.session.Load(ctx)
	go func() {
		select {
		case <-m.session.Ready():
			m.hydrate()
		case <-ctx.Done():
		}
	}()
}

// Ready reports whether hydration has completed
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Wait blocks until hydration completes or ctx ends
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) hydrate() {
	m.mu.Lock()
	events := m.replayLocked()

	// Stack order survives reload; ids it does not know go to the back
	snapshot := m.session.Snapshot()
	order := stack.Order(snapshot.StackOrder).Retain(m.table.Has)
	var missing []string
	for id := range m.table {
		if !order.Contains(id) {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	m.order = append(order, missing...)
	m.foreground = m.nextVisibleLocked("")

	m.ready = true
	close(m.readyCh)
	events = append(events, Event{Type: EventReady})

	queued := m.queue
	m.queue = nil
	for _, open := range queued {
		result, evs := m.openLocked(open.appType, open.args, open.icon)
		m.logger.Debug("Drained queued open", zap.String("type", open.appType), zap.String("status", string(result.Status)))
		events = append(events, evs...)
	}

	m.session.SetStackOrder(m.order.Strings())
	count, foreground := len(m.table), m.foreground
	m.mu.Unlock()

	m.metrics.SetProcessesOpen(count)
	m.logger.Info("Desktop hydrated",
		zap.Int("processes", count),
		zap.Int("drained_opens", len(queued)),
		zap.String("foreground", foreground),
	)
	m.publish(events...)
}

// Replay reopens every persisted process that is not in the live table.
// Membership is checked per record, so calling it again is harmless.
func (m *Manager) Replay() {
	m.mu.Lock()
	if !m.ready {
		m.mu.Unlock()
		return
	}
	events := m.replayLocked()
	for _, ev := range events {
		if !m.order.Contains(ev.ProcessID) {
			m.order = append(m.order, ev.ProcessID)
		}
	}
	if len(events) > 0 {
		m.session.SetStackOrder(m.order.Strings())
	}
	count := len(m.table)
	m.mu.Unlock()

	m.metrics.SetProcessesOpen(count)
	m.publish(events...)
}

func (m *Manager) replayLocked() []Event {
	opened := m.session.Snapshot().OpenedProcesses
	ids := make([]string, 0, len(opened))
	for id := range opened {
		ids = append(ids, id)
	}
	// Records keyed as instances of their own type keep their ids; the rest
	// are re-keyed afterwards so they cannot claim an id another record owns
	sort.Slice(ids, func(i, j int) bool {
		owned := func(id string) bool { return process.BelongsTo(id, opened[id].ApplicationType) }
		if oi, oj := owned(ids[i]), owned(ids[j]); oi != oj {
			return oi
		}
		return ids[i] < ids[j]
	})

	var events []Event
	for _, id := range ids {
		if m.table.Has(id) {
			continue
		}
		rec := opened[id]
		app, ok := m.directory.Lookup(rec.ApplicationType)
		if !ok {
			m.logger.Warn("Dropping persisted process of unknown type",
				zap.String("id", id),
				zap.String("type", rec.ApplicationType),
			)
			m.session.DeleteOpened(id)
			m.metrics.RecordOperation("replay", "skipped")
			continue
		}

		next, outcome := process.Restore(m.table, id, app, rec.Arguments, rec.Icon)
		if outcome.ID != id {
			// Record is a duplicate singleton or had a foreign id shape
			m.session.DeleteOpened(id)
			if outcome.AlreadyOpen {
				continue
			}
			m.session.UpsertOpened(outcome.ID, rec)
		}
		m.table = next
		m.geometry.Place(outcome.ID, app)
		m.metrics.RecordOperation("replay", "restored")
		events = append(events, Event{Type: EventOpened, ProcessID: outcome.ID})
	}
	return events
}

// nextVisibleLocked returns the most recently focused visible process
// other than exclude
func (m *Manager) nextVisibleLocked(exclude string) string {
	for _, id := range m.order {
		if id == exclude {
			continue
		}
		if p, ok := m.table[id]; ok && !p.Minimized {
			return id
		}
	}
	return ""
}
