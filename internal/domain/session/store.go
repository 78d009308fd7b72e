package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ErrClosed is returned by Flush after Close
var ErrClosed = errors.New("session store is closed")

// Defaults are applied when no snapshot exists or a field is missing
type Defaults struct {
	ThemeName      string
	WallpaperImage string
	WallpaperFit   types.WallpaperFit
}

// Options configures a Store
type Options struct {
	Key          string        // backend key of the snapshot blob
	Debounce     time.Duration // coalescing window for writes
	WriteTimeout time.Duration
	Compress     bool
	Defaults     Defaults
}

// DefaultOptions returns the shell's stock settings
func DefaultOptions() Options {
	return Options{
		Key:          "/session.json",
		Debounce:     250 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Defaults: Defaults{
			ThemeName:    "WestOS",
			WallpaperFit: types.FitFill,
		},
	}
}

// Store owns the durable session snapshot and is the only component that
// talks to the persistence backend.
type Store struct {
	backend storage.Backend
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu       sync.RWMutex
	status   types.SessionStatus
	snapshot types.SessionSnapshot
	pending  []func(*types.SessionSnapshot) // mutations made while loading
	version  uint64                         // bumped on every committed mutation
	closed   bool
	ready    chan struct{}

	dirty    chan struct{}
	flushReq chan chan error
	stop     chan struct{}
	done     chan struct{}
	running  bool
}

// NewStore creates an unloaded session store
func NewStore(backend storage.Backend, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Key == "" {
		opts.Key = DefaultOptions().Key
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultOptions().WriteTimeout
	}
	if !opts.Defaults.WallpaperFit.Valid() {
		opts.Defaults.WallpaperFit = types.FitFill
	}

	s := &Store{
		backend:  backend,
		opts:     opts,
		logger:   logger.Named("session"),
		status:   types.SessionUnloaded,
		ready:    make(chan struct{}),
		dirty:    make(chan struct{}, 1),
		flushReq: make(chan chan error),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.snapshot = s.defaults()
	return s
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

func (s *Store) defaults() types.SessionSnapshot {
	return types.SessionSnapshot{
		Version:         types.SnapshotVersion,
		WindowStates:    map[string]types.WindowState{},
		ThemeName:       s.opts.Defaults.ThemeName,
		WallpaperImage:  s.opts.Defaults.WallpaperImage,
		WallpaperFit:    s.opts.Defaults.WallpaperFit,
		StackOrder:      []string{},
		OpenedProcesses: map[string]types.OpenedProcess{},
	}
}

// withDefaults fills every missing field of a decoded snapshot
func (s *Store) withDefaults(snapshot types.SessionSnapshot) types.SessionSnapshot {
	def := s.defaults()
	if snapshot.WindowStates == nil {
		snapshot.WindowStates = def.WindowStates
	}
	if snapshot.ThemeName == "" {
		snapshot.ThemeName = def.ThemeName
	}
	if snapshot.WallpaperImage == "" {
		snapshot.WallpaperImage = def.WallpaperImage
	}
	if !snapshot.WallpaperFit.Valid() {
		snapshot.WallpaperFit = def.WallpaperFit
	}
	if snapshot.StackOrder == nil {
		snapshot.StackOrder = def.StackOrder
	}
	if snapshot.OpenedProcesses == nil {
		snapshot.OpenedProcesses = def.OpenedProcesses
	}
	snapshot.Version = types.SnapshotVersion
	return snapshot
}

// Load starts hydrating the store from the backend. Only the first call
// has any effect; wait on Ready for completion.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	if s.status != types.SessionUnloaded {
		s.mu.Unlock()
		return
	}
	s.status = types.SessionLoading
	s.mu.Unlock()

	go s.load(ctx)
}

func (s *Store) load(ctx context.Context) {
	snapshot, outcome := s.read(ctx)
	s.metrics.RecordSessionLoad(outcome)

	s.mu.Lock()
	s.snapshot = snapshot
	for _, mutate := range s.pending {
		mutate(&s.snapshot)
	}
	replayed := len(s.pending)
	opened := len(s.snapshot.OpenedProcesses)
	s.pending = nil
	if replayed > 0 {
		s.version++
	}
	s.status = types.SessionLoaded
	start := !s.closed
	s.running = start
	close(s.ready)
	s.mu.Unlock()

	s.logger.Info("Session loaded",
		zap.String("outcome", outcome),
		zap.Int("opened_processes", opened),
		zap.Int("replayed_mutations", replayed),
	)

	if start {
		go s.run()
		if replayed > 0 {
			s.markDirty()
		}
	} else {
		close(s.done)
	}
}

// read fetches and decodes the snapshot, degrading to defaults on any failure
func (s *Store) read(ctx context.Context) (types.SessionSnapshot, string) {
	exists, err := s.backend.Exists(ctx, s.opts.Key)
	if err != nil {
		s.logger.Warn("Session lookup failed, using defaults", zap.Error(err))
		return s.defaults(), "error"
	}
	if !exists {
		return s.defaults(), "empty"
	}

	data, err := s.backend.Read(ctx, s.opts.Key)
	if err != nil {
		s.logger.Warn("Session read failed, using defaults", zap.Error(err))
		return s.defaults(), "error"
	}

	snapshot, err := Decode(data)
	if err != nil {
		s.logger.Warn("Session snapshot is malformed, using defaults", zap.Error(err))
		return s.defaults(), "corrupt"
	}
	return s.withDefaults(snapshot), "restored"
}

// Status returns the hydration state
func (s *Store) Status() types.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Ready is closed once the store is loaded
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() types.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// WindowState returns the stored geometry of id
func (s *Store) WindowState(id string) (types.WindowState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.snapshot.WindowStates[id]
	return ws.Clone(), ok
}

// OpenedProcesses returns a copy of the persisted opened-process records
func (s *Store) OpenedProcesses() map[string]types.OpenedProcess {
	return s.Snapshot().OpenedProcesses
}

// mutate applies fn to the live snapshot and schedules a write. While the
// store is loading, fn is also kept so it can be replayed on top of the
// hydrated snapshot.
func (s *Store) mutate(fn func(*types.SessionSnapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	if s.status != types.SessionLoaded {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return
	}
	s.version++
	s.mu.Unlock()

	s.markDirty()
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// SetTheme records the active theme name
func (s *Store) SetTheme(name string) {
	s.mutate(func(snap *types.SessionSnapshot) { snap.ThemeName = name })
}

// SetWallpaper records the wallpaper; an empty fit keeps the current one
func (s *Store) SetWallpaper(image string, fit types.WallpaperFit) {
	s.mutate(func(snap *types.SessionSnapshot) {
		snap.WallpaperImage = image
		if fit.Valid() {
			snap.WallpaperFit = fit
		}
	})
}

// SetStackOrder records focus recency
func (s *Store) SetStackOrder(order []string) {
	order = append([]string{}, order...)
	s.mutate(func(snap *types.SessionSnapshot) { snap.StackOrder = order })
}

// SetWindowState merges geometry for id
func (s *Store) SetWindowState(id string, ws types.WindowState) {
	ws = ws.Clone()
	s.mutate(func(snap *types.SessionSnapshot) {
		snap.WindowStates[id] = snap.WindowStates[id].Merge(ws)
	})
}

// UpsertOpened records a process that should be reopened on next load
func (s *Store) UpsertOpened(id string, rec types.OpenedProcess) {
	rec.Arguments = rec.Arguments.Clone()
	s.mutate(func(snap *types.SessionSnapshot) { snap.OpenedProcesses[id] = rec })
}

// SetOpenedArgument updates one argument of an existing record
func (s *Store) SetOpenedArgument(id, key string, value interface{}) {
	s.mutate(func(snap *types.SessionSnapshot) {
		rec, ok := snap.OpenedProcesses[id]
		if !ok {
			return
		}
		rec.Arguments = rec.Arguments.Clone()
		rec.Arguments[key] = value
		snap.OpenedProcesses[id] = rec
	})
}

// DeleteOpened forgets a process record
func (s *Store) DeleteOpened(id string) {
	s.mutate(func(snap *types.SessionSnapshot) { delete(snap.OpenedProcesses, id) })
}

// run is the single writer. Dirty signals are coalesced for the debounce
// window and every write encodes the state current at write time.
func (s *Store) run() {
	defer close(s.done)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		written uint64
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timerC = nil
	}
	writeLatest := func() error {
		version, err := s.write()
		if err == nil {
			written = version
		}
		return err
	}

	for {
		select {
		case <-s.dirty:
			if s.opts.Debounce <= 0 {
				writeLatest()
				continue
			}
			if timerC == nil {
				timer = time.NewTimer(s.opts.Debounce)
				timerC = timer.C
			}
		case <-timerC:
			timerC = nil
			writeLatest()
		case reply := <-s.flushReq:
			stopTimer()
			reply <- writeLatest()
		case <-s.stop:
			stopTimer()
			s.mu.RLock()
			stale := s.version != written
			s.mu.RUnlock()
			if stale {
				writeLatest()
			}
			return
		}
	}
}

// write persists the current snapshot and returns the version it carried
func (s *Store) write() (uint64, error) {
	s.mu.RLock()
	snapshot := s.snapshot.Clone()
	version := s.version
	s.mu.RUnlock()

	timer := monitoring.NewTimer(s.metrics)
	data, err := Encode(snapshot, s.opts.Compress)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		err = s.backend.Write(ctx, s.opts.Key, data, true)
		cancel()
	}

	if err != nil {
		timer.Stop("error")
		s.logger.Warn("Session write failed", zap.Error(err), zap.Uint64("version", version))
		return version, err
	}
	duration := timer.Stop("ok")
	s.logger.Debug("Session written",
		zap.Uint64("version", version),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", duration),
	)
	return version, nil
}

// Flush writes the current state now and waits for the result. Before the
// store is loaded there is nothing safe to write and Flush returns nil.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	running, closed := s.running, s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !running {
		return nil
	}

	reply := make(chan error, 1)
	select {
	case s.flushReq <- reply:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any unsaved state and stops the writer
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	running := s.running
	s.mu.Unlock()

	if !running {
		return nil
	}
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
