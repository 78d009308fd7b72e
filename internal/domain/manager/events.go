package manager

// EventType names a change to the live table
type EventType string

const (
	EventReady     EventType = "ready"
	EventOpened    EventType = "opened"
	EventClosed    EventType = "closed"
	EventFocused   EventType = "focused"
	EventMinimized EventType = "minimized"
	EventMaximized EventType = "maximized"
	EventArgument  EventType = "argument"
	EventGeometry  EventType = "geometry"
)

// subscriberBuffer bounds how far a subscriber may lag before events drop
const subscriberBuffer = 64

// Event is published after every state change
type Event struct {
	Type      EventType `json:"type"`
	ProcessID string    `json:"process_id,omitempty"`
}

// Subscribe returns a channel of change events and a cancel func. Slow
// subscribers lose events rather than block the manager.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	cancel := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (m *Manager) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
