package geometry

import (
	"sync"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

const (
	// CascadeStep is the offset between successive windows of one type
	CascadeStep = 30
	// CascadeLimit is the number of steps before the cascade wraps around
	CascadeLimit = 10
)

var (
	// DefaultOrigin is where the first window of a type opens
	DefaultOrigin = types.Position{X: 50, Y: 50}
	// DefaultSize applies to applications that declare no size
	DefaultSize = types.Size{Width: 400, Height: 300}
)

// StateStore persists window geometry. The session store implements it.
type StateStore interface {
	WindowState(id string) (types.WindowState, bool)
	SetWindowState(id string, ws types.WindowState)
}

// Store resolves the geometry a window should be drawn with
type Store struct {
	mu       sync.Mutex
	states   StateStore
	viewport types.Viewport
	slots    map[string]int // process id -> cascade slot
	next     map[string]int // application type -> next slot
}

// NewStore creates a geometry store writing through to states
func NewStore(states StateStore, viewport types.Viewport) *Store {
	return &Store{
		states:   states,
		viewport: viewport,
		slots:    make(map[string]int),
		next:     make(map[string]int),
	}
}

// Place assigns id the next cascade slot for its application type. Ids
// that already hold a slot keep it.
func (s *Store) Place(id string, app types.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; ok {
		return
	}
	s.slots[id] = s.next[app.Type] % CascadeLimit
	s.next[app.Type]++
}

// Forget releases the cascade slot of id. Stored geometry is kept so a
// reopened process lands where it was.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
}

// Get returns stored geometry with any missing half filled from defaults
func (s *Store) Get(id string, app types.Application) types.WindowState {
	s.mu.Lock()
	slot := s.slots[id]
	s.mu.Unlock()

	size := app.DefaultSize
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	pos := types.Position{
		X: DefaultOrigin.X + slot*CascadeStep,
		Y: DefaultOrigin.Y + slot*CascadeStep,
	}
	defaults := types.WindowState{Position: &pos, Size: &size}

	if stored, ok := s.states.WindowState(id); ok {
		return defaults.Merge(stored)
	}
	return defaults
}

// Set records a partial geometry update from a drag-stop or resize-stop
func (s *Store) Set(id string, pos *types.Position, size *types.Size) bool {
	if pos == nil && size == nil {
		return false
	}
	current, _ := s.states.WindowState(id)
	s.states.SetWindowState(id, current.Merge(types.WindowState{Position: pos, Size: size}))
	return true
}

// Maximized returns the geometry of a maximized window: the full viewport
// minus the taskbar.
func (s *Store) Maximized() types.WindowState {
	s.mu.Lock()
	vp := s.viewport
	s.mu.Unlock()

	height := vp.Height - vp.TaskbarHeight
	if height < 0 {
		height = 0
	}
	return types.WindowState{
		Position: &types.Position{},
		Size:     &types.Size{Width: vp.Width, Height: height},
	}
}

// Display returns the geometry chrome should render for a window
func (s *Store) Display(id string, app types.Application, maximized bool) types.WindowState {
	if maximized {
		return s.Maximized()
	}
	return s.Get(id, app)
}

// SetViewport updates the visible desktop area
func (s *Store) SetViewport(vp types.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
}

// Viewport returns the visible desktop area
func (s *Store) Viewport() types.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}
