package types

// SnapshotVersion identifies the persisted session schema
const SnapshotVersion = 1

// SessionStatus tracks session hydration
type SessionStatus string

const (
	SessionUnloaded SessionStatus = "unloaded"
	SessionLoading  SessionStatus = "loading"
	SessionLoaded   SessionStatus = "loaded"
)

// WallpaperFit describes how the wallpaper image is laid out
type WallpaperFit string

const (
	FitCenter  WallpaperFit = "center"
	FitFill    WallpaperFit = "fill"
	FitScale   WallpaperFit = "fit"
	FitStretch WallpaperFit = "stretch"
	FitTile    WallpaperFit = "tile"
)

// Valid reports whether f is a known fit mode
func (f WallpaperFit) Valid() bool {
	switch f {
	case FitCenter, FitFill, FitScale, FitStretch, FitTile:
		return true
	}
	return false
}

// OpenedProcess is the persisted record needed to reopen a process
type OpenedProcess struct {
	ApplicationType string    `json:"applicationType"`
	Arguments       Arguments `json:"arguments,omitempty"`
	Icon            string    `json:"icon,omitempty"`
}

// SessionSnapshot is the durable projection of desktop state
type SessionSnapshot struct {
	Version         int                      `json:"version"`
	WindowStates    map[string]WindowState   `json:"windowStates"`
	ThemeName       string                   `json:"themeName"`
	WallpaperImage  string                   `json:"wallpaperImage"`
	WallpaperFit    WallpaperFit             `json:"wallpaperFit"`
	StackOrder      []string                 `json:"stackOrder"`
	OpenedProcesses map[string]OpenedProcess `json:"openedProcesses"`
}

// Clone returns a deep copy of the snapshot
func (s SessionSnapshot) Clone() SessionSnapshot {
	out := s
	out.WindowStates = make(map[string]WindowState, len(s.WindowStates))
	for id, ws := range s.WindowStates {
		out.WindowStates[id] = ws.Clone()
	}
	out.StackOrder = append([]string{}, s.StackOrder...)
	out.OpenedProcesses = make(map[string]OpenedProcess, len(s.OpenedProcesses))
	for id, rec := range s.OpenedProcesses {
		rec.Arguments = rec.Arguments.Clone()
		out.OpenedProcesses[id] = rec
	}
	return out
}

// ProcessView is what a window-hosting layer needs to render chrome
type ProcessView struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Icon       string      `json:"icon"`
	Minimized  bool        `json:"minimized"`
	Maximized  bool        `json:"maximized"`
	Foreground bool        `json:"foreground"`
	ZIndex     int         `json:"z_index"`
	Geometry   WindowState `json:"geometry"`
}
