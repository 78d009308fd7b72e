package stack

// MinimizedZIndex is the paint order of every minimized (or untracked)
// window. Visible windows always paint at 2 or above.
const MinimizedZIndex = 1

// Order lists process ids by focus recency, most recent first. Methods
// return new slices and leave the receiver untouched.
type Order []string

// IndexOf returns the position of id, or -1
func (o Order) IndexOf(id string) int {
	for i, stackID := range o {
		if stackID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is in the order
func (o Order) Contains(id string) bool {
	return o.IndexOf(id) >= 0
}

// Prepend moves id to the front, dropping any earlier occurrence
func (o Order) Prepend(id string) Order {
	out := make(Order, 0, len(o)+1)
	out = append(out, id)
	for _, stackID := range o {
		if stackID != id {
			out = append(out, stackID)
		}
	}
	return out
}

// Remove filters id out of the order
func (o Order) Remove(id string) Order {
	out := make(Order, 0, len(o))
	for _, stackID := range o {
		if stackID != id {
			out = append(out, stackID)
		}
	}
	return out
}

// Retain keeps ids accepted by keep, deduplicated, in their current order
func (o Order) Retain(keep func(id string) bool) Order {
	out := make(Order, 0, len(o))
	seen := make(map[string]struct{}, len(o))
	for _, stackID := range o {
		if _, dup := seen[stackID]; dup || !keep(stackID) {
			continue
		}
		seen[stackID] = struct{}{}
		out = append(out, stackID)
	}
	return out
}

// ZIndex derives the paint order of id: (len - index) + 1 for visible
// windows, MinimizedZIndex for minimized ones.
func (o Order) ZIndex(id string, minimized bool) int {
	if minimized {
		return MinimizedZIndex
	}
	idx := o.IndexOf(id)
	if idx < 0 {
		return MinimizedZIndex
	}
	return len(o) - idx + 1
}

// Strings returns a copy as a plain slice
func (o Order) Strings() []string {
	return append([]string{}, o...)
}
