package types

// ElementSlot names a transient on-screen handle attached to a process
type ElementSlot string

const (
	ElementComponentWindow ElementSlot = "componentWindow"
	ElementTaskbarEntry    ElementSlot = "taskbarEntry"
	ElementPeek            ElementSlot = "peekElement"
)

// Arguments are launch parameters for a process (target path, URL, ...)
type Arguments map[string]interface{}

// Clone returns a shallow copy of the argument map
func (a Arguments) Clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Process is one open application instance
type Process struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon"`
	Arguments Arguments `json:"arguments"`
	Minimized bool      `json:"minimized"`
	Maximized bool      `json:"maximized"`

	// Elements are UI back-references used for focus and measurement only
	Elements map[ElementSlot]interface{} `json:"-"`
}

// Clone returns a copy that shares no maps with p
func (p Process) Clone() Process {
	p.Arguments = p.Arguments.Clone()
	if p.Elements != nil {
		elements := make(map[ElementSlot]interface{}, len(p.Elements))
		for k, v := range p.Elements {
			elements[k] = v
		}
		p.Elements = elements
	}
	return p
}
