package types

// Position is a window's top-left corner relative to the desktop
type Position struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
}

// Size is a window's outer dimensions
type Size struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// WindowState is the remembered geometry of a window. Either half may be
// absent, in which case defaults apply.
type WindowState struct {
	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
}

// Merge overlays the non-nil halves of update onto w
func (w WindowState) Merge(update WindowState) WindowState {
	if update.Position != nil {
		pos := *update.Position
		w.Position = &pos
	}
	if update.Size != nil {
		size := *update.Size
		w.Size = &size
	}
	return w
}

// Clone returns a copy with no shared pointers
func (w WindowState) Clone() WindowState {
	return WindowState{}.Merge(w)
}

// Viewport is the visible desktop area
type Viewport struct {
	Width         int `json:"width" yaml:"width" toml:"width"`
	Height        int `json:"height" yaml:"height" toml:"height"`
	TaskbarHeight int `json:"taskbar_height"`
}
