package process

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// suffixSeparator joins an application type and its instance number
const suffixSeparator = "__"

// Table is an immutable view of the live process table. Transforms in this
// package never mutate their input; they return a fresh table.
type Table map[string]types.Process

// Outcome describes what Open did
type Outcome struct {
	ID          string
	AlreadyOpen bool
}

// Clone returns a deep copy of t
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, p := range t {
		out[id] = p.Clone()
	}
	return out
}

// Has reports whether id is in the table
func (t Table) Has(id string) bool {
	_, ok := t[id]
	return ok
}

// Instances returns the ids of every process of the given type
func (t Table) Instances(appType string) []string {
	var ids []string
	for id, p := range t {
		if p.Type == appType {
			ids = append(ids, id)
		}
	}
	return ids
}

// with returns a shallow copy of t with id replaced by p
func (t Table) with(id string, p types.Process) Table {
	out := make(Table, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[id] = p
	return out
}

// NextID picks the id a new instance of appType would receive: the type
// itself when free, otherwise type__N for the smallest free N >= 1.
func NextID(t Table, appType string) string {
	if !t.Has(appType) {
		return appType
	}
	for n := 1; ; n++ {
		candidate := appType + suffixSeparator + strconv.Itoa(n)
		if !t.Has(candidate) {
			return candidate
		}
	}
}

// BelongsTo reports whether id is a well-formed instance id for appType
func BelongsTo(id, appType string) bool {
	if id == appType {
		return true
	}
	suffix, ok := strings.CutPrefix(id, appType+suffixSeparator)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(suffix)
	return err == nil && n >= 1 && strconv.Itoa(n) == suffix
}

// Open adds a new instance of app. Singleton types that are already open
// leave the table unchanged and report AlreadyOpen.
func Open(t Table, app types.Application, args types.Arguments, icon string) (Table, Outcome) {
	if app.Singleton {
		if ids := t.Instances(app.Type); len(ids) > 0 {
			return t, Outcome{ID: ids[0], AlreadyOpen: true}
		}
	}
	id := NextID(t, app.Type)
	return t.with(id, newProcess(id, app, args, icon)), Outcome{ID: id}
}

// Restore reopens a persisted process under its recorded id when that id
// is still free and shaped like an instance of app. Otherwise it behaves
// like Open.
func Restore(t Table, id string, app types.Application, args types.Arguments, icon string) (Table, Outcome) {
	if t.Has(id) {
		return t, Outcome{ID: id, AlreadyOpen: true}
	}
	if !BelongsTo(id, app.Type) {
		return Open(t, app, args, icon)
	}
	if app.Singleton {
		if ids := t.Instances(app.Type); len(ids) > 0 {
			return t, Outcome{ID: ids[0], AlreadyOpen: true}
		}
	}
	return t.with(id, newProcess(id, app, args, icon)), Outcome{ID: id}
}

func newProcess(id string, app types.Application, args types.Arguments, icon string) types.Process {
	if icon == "" {
		icon = app.Icon
	}
	return types.Process{
		ID:        id,
		Type:      app.Type,
		Title:     app.Title,
		Icon:      icon,
		Arguments: args.Clone(),
	}
}

// Close removes id. Unknown ids leave the table unchanged.
func Close(t Table, id string) Table {
	if !t.Has(id) {
		return t
	}
	out := make(Table, len(t)-1)
	for k, v := range t {
		if k != id {
			out[k] = v
		}
	}
	return out
}

// Minimize toggles the minimized flag. A minimized maximized window keeps
// its maximized flag and restores to maximized.
func Minimize(t Table, id string) Table {
	p, ok := t[id]
	if !ok {
		return t
	}
	p.Minimized = !p.Minimized
	return t.with(id, p)
}

// Maximize toggles the maximized flag; maximizing also un-minimizes
func Maximize(t Table, id string) Table {
	p, ok := t[id]
	if !ok {
		return t
	}
	p.Maximized = !p.Maximized
	if p.Maximized {
		p.Minimized = false
	}
	return t.with(id, p)
}

// SetArgument merges one key into the process's arguments
func SetArgument(t Table, id, key string, value interface{}) Table {
	p, ok := t[id]
	if !ok {
		return t
	}
	p.Arguments = p.Arguments.Clone()
	p.Arguments[key] = value
	return t.with(id, p)
}

// SetElement attaches a transient UI handle to the process
func SetElement(t Table, id string, slot types.ElementSlot, handle interface{}) Table {
	p, ok := t[id]
	if !ok {
		return t
	}
	elements := make(map[types.ElementSlot]interface{}, len(p.Elements)+1)
	for k, v := range p.Elements {
		elements[k] = v
	}
	elements[slot] = handle
	p.Elements = elements
	return t.with(id, p)
}
