package manager

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Status describes what an Open call did
type Status string

const (
	StatusOpened   Status = "opened"
	StatusFocused  Status = "focused"
	StatusQueued   Status = "queued"
	StatusRejected Status = "rejected"
)

// OpenResult reports the id an Open call settled on
type OpenResult struct {
	ID     string `json:"id,omitempty"`
	Status Status `json:"status"`
	Err    error  `json:"-"`
}

// Open starts a new instance of appType. Before hydration completes the
// request is queued and applied, in order, once the session is loaded.
// A singleton that is already open is focused instead.
func (m *Manager) Open(appType string, args types.Arguments, icon string) OpenResult {
	m.mu.Lock()
	if _, ok := m.directory.Lookup(appType); !ok {
		m.mu.Unlock()
		m.metrics.RecordOperation("open", string(StatusRejected))
		return OpenResult{Status: StatusRejected, Err: ErrUnknownApplication}
	}
	if !m.ready {
		m.queue = append(m.queue, pendingOpen{appType: appType, args: args.Clone(), icon: icon})
		m.mu.Unlock()
		m.metrics.RecordOperation("open", string(StatusQueued))
		return OpenResult{Status: StatusQueued}
	}

	result, events := m.openLocked(appType, args, icon)
	count := len(m.table)
	m.mu.Unlock()

	m.metrics.SetProcessesOpen(count)
	m.publish(events...)
	return result
}

func (m *Manager) openLocked(appType string, args types.Arguments, icon string) (OpenResult, []Event) {
	app, ok := m.directory.Lookup(appType)
	if !ok {
		m.metrics.RecordOperation("open", string(StatusRejected))
		return OpenResult{Status: StatusRejected, Err: ErrUnknownApplication}, nil
	}

	next, outcome := process.Open(m.table, app, args, icon)
	if outcome.AlreadyOpen {
		m.metrics.RecordOperation("open", string(StatusFocused))
		return OpenResult{ID: outcome.ID, Status: StatusFocused}, m.focusLocked(outcome.ID)
	}

	m.table = next
	m.order = m.order.Prepend(outcome.ID)
	m.foreground = outcome.ID
	m.geometry.Place(outcome.ID, app)
	m.session.UpsertOpened(outcome.ID, types.OpenedProcess{
		ApplicationType: app.Type,
		Arguments:       args.Clone(),
		Icon:            icon,
	})
	m.session.SetStackOrder(m.order.Strings())

	m.logger.Debug("Process opened", zap.String("id", outcome.ID), zap.String("type", app.Type))
	m.metrics.RecordOperation("open", string(StatusOpened))
	return OpenResult{ID: outcome.ID, Status: StatusOpened}, []Event{{Type: EventOpened, ProcessID: outcome.ID}}
}

// Close removes id from the table and the stack in one step. Unless
// restoreInternal is set, the persisted record is deleted too so the
// process does not come back on reload.
func (m *Manager) Close(id string, restoreInternal bool) {
	m.mu.Lock()
	if !m.table.Has(id) {
		m.mu.Unlock()
		return
	}

	m.table = process.Close(m.table, id)
	m.order = m.order.Remove(id)
	m.geometry.Forget(id)
	if !restoreInternal {
		m.session.DeleteOpened(id)
	}
	m.session.SetStackOrder(m.order.Strings())

	events := []Event{{Type: EventClosed, ProcessID: id}}
	if m.foreground == id {
		m.foreground = m.nextVisibleLocked(id)
		if m.foreground != "" {
			events = append(events, Event{Type: EventFocused, ProcessID: m.foreground})
		}
	}
	count := len(m.table)
	m.mu.Unlock()

	m.logger.Debug("Process closed", zap.String("id", id), zap.Bool("restore_internal", restoreInternal))
	m.metrics.RecordOperation("close", "ok")
	m.metrics.SetProcessesOpen(count)
	m.publish(events...)
}

// Minimize toggles id's minimized flag. Minimizing the foreground process
// hands the foreground to the next visible one; restoring focuses id.
func (m *Manager) Minimize(id string) {
	m.mu.Lock()
	if !m.table.Has(id) {
		m.mu.Unlock()
		return
	}

	m.table = process.Minimize(m.table, id)
	events := []Event{{Type: EventMinimized, ProcessID: id}}
	if m.table[id].Minimized {
		if m.foreground == id {
			m.foreground = m.nextVisibleLocked(id)
			if m.foreground != "" {
				events = append(events, Event{Type: EventFocused, ProcessID: m.foreground})
			}
		}
	} else {
		events = append(events, m.focusLocked(id)...)
	}
	m.mu.Unlock()

	m.metrics.RecordOperation("minimize", "ok")
	m.publish(events...)
}

// Maximize toggles id's maximized flag. Maximizing restores a minimized
// window and focuses it.
func (m *Manager) Maximize(id string) {
	m.mu.Lock()
	if !m.table.Has(id) {
		m.mu.Unlock()
		return
	}

	m.table = process.Maximize(m.table, id)
	events := []Event{{Type: EventMaximized, ProcessID: id}}
	if m.table[id].Maximized {
		events = append(events, m.focusLocked(id)...)
	}
	m.mu.Unlock()

	m.metrics.RecordOperation("maximize", "ok")
	m.publish(events...)
}

// SetArgument merges one launch argument and keeps the persisted record
// in step
func (m *Manager) SetArgument(id, key string, value interface{}) {
	m.mu.Lock()
	if !m.table.Has(id) {
		m.mu.Unlock()
		return
	}
	m.table = process.SetArgument(m.table, id, key, value)
	m.session.SetOpenedArgument(id, key, value)
	m.mu.Unlock()

	m.metrics.RecordOperation("set_argument", "ok")
	m.publish(Event{Type: EventArgument, ProcessID: id})
}

// LinkElement attaches a transient UI handle. Handles are never persisted.
func (m *Manager) LinkElement(id string, slot types.ElementSlot, handle interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = process.SetElement(m.table, id, slot, handle)
}

// Focus brings id to the front of the stack and makes it the foreground
// process, restoring it first when minimized
func (m *Manager) Focus(id string) {
	m.mu.Lock()
	if !m.table.Has(id) {
		m.mu.Unlock()
		return
	}
	events := m.focusLocked(id)
	m.mu.Unlock()

	m.metrics.RecordOperation("focus", "ok")
	m.publish(events...)
}

func (m *Manager) focusLocked(id string) []Event {
	var events []Event
	if m.table[id].Minimized {
		m.table = process.Minimize(m.table, id)
		events = append(events, Event{Type: EventMinimized, ProcessID: id})
	}
	m.order = m.order.Prepend(id)
	m.foreground = id
	m.session.SetStackOrder(m.order.Strings())
	return append(events, Event{Type: EventFocused, ProcessID: id})
}

// SetGeometry records a drag-stop or resize-stop. It reports false for
// unknown ids or empty updates.
func (m *Manager) SetGeometry(id string, pos *types.Position, size *types.Size) bool {
	m.mu.Lock()
	known := m.table.Has(id)
	m.mu.Unlock()
	if !known || !m.geometry.Set(id, pos, size) {
		return false
	}

	m.metrics.RecordOperation("set_geometry", "ok")
	m.publish(Event{Type: EventGeometry, ProcessID: id})
	return true
}
