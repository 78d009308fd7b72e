package manager

import (
	"sort"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Processes returns a copy of the live table
func (m *Manager) Processes() process.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Clone()
}

// Get returns a copy of one process
func (m *Manager) Get(id string) (types.Process, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.table[id]
	if !ok {
		return types.Process{}, false
	}
	return p.Clone(), true
}

// StackOrder returns process ids by focus recency
func (m *Manager) StackOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Strings()
}

// ForegroundID returns the focused process, or "" when none is
func (m *Manager) ForegroundID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

// SetViewport updates the area maximized windows fill
func (m *Manager) SetViewport(vp types.Viewport) {
	m.geometry.SetViewport(vp)
}

// Viewport returns the area maximized windows fill
func (m *Manager) Viewport() types.Viewport {
	return m.geometry.Viewport()
}

// Views derives what the window-hosting layer renders, topmost first.
// A non-zero viewport replaces the current one before geometry is derived.
func (m *Manager) Views(vp types.Viewport) []types.ProcessView {
	if vp.Width > 0 && vp.Height > 0 {
		m.geometry.SetViewport(vp)
	}

	m.mu.Lock()
	table, order, foreground := m.table, m.order, m.foreground
	m.mu.Unlock()

	views := make([]types.ProcessView, 0, len(table))
	for id, p := range table {
		app, ok := m.directory.Lookup(p.Type)
		if !ok {
			app = types.Application{Type: p.Type, Title: p.Title}
		}
		views = append(views, types.ProcessView{
			ID:         id,
			Type:       p.Type,
			Title:      p.Title,
			Icon:       p.Icon,
			Minimized:  p.Minimized,
			Maximized:  p.Maximized,
			Foreground: id == foreground,
			ZIndex:     order.ZIndex(id, p.Minimized),
			Geometry:   m.geometry.Display(id, app, p.Maximized),
		})
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].ZIndex != views[j].ZIndex {
			return views[i].ZIndex > views[j].ZIndex
		}
		return views[i].ID < views[j].ID
	})
	return views
}
