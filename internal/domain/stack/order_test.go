package stack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepend(t *testing.T) {
	order := Order{}.Prepend("a").Prepend("b").Prepend("c")
	assert.Equal(t, Order{"c", "b", "a"}, order)

	order = order.Prepend("a")
	assert.Equal(t, Order{"a", "c", "b"}, order)
}

func TestPrependDoesNotMutate(t *testing.T) {
	base := Order{"a", "b"}
	_ = base.Prepend("b")
	assert.Equal(t, Order{"a", "b"}, base)
}

func TestRemove(t *testing.T) {
	order := Order{"a", "b", "c"}

	assert.Equal(t, Order{"a", "c"}, order.Remove("b"))
	assert.Equal(t, Order{"a", "b", "c"}, order.Remove("missing"))
}

func TestRetain(t *testing.T) {
	order := Order{"a", "stale", "b", "a"}
	live := map[string]bool{"a": true, "b": true}

	got := order.Retain(func(id string) bool { return live[id] })
	assert.Equal(t, Order{"a", "b"}, got)
}

func TestZIndex(t *testing.T) {
	order := Order{"front", "middle", "back"}

	assert.Equal(t, 4, order.ZIndex("front", false))
	assert.Equal(t, 3, order.ZIndex("middle", false))
	assert.Equal(t, 2, order.ZIndex("back", false))
	assert.Equal(t, MinimizedZIndex, order.ZIndex("front", true))
	assert.Equal(t, MinimizedZIndex, order.ZIndex("missing", false))
}

func TestZIndexOrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e", "f"}
	order := Order{}
	minimized := map[string]bool{}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(4) {
		case 0:
			order = order.Remove(id)
		case 1:
			minimized[id] = !minimized[id]
		default:
			order = order.Prepend(id)
		}

		for i, a := range order {
			for _, b := range order[i+1:] {
				za, zb := order.ZIndex(a, minimized[a]), order.ZIndex(b, minimized[b])
				switch {
				case !minimized[a] && !minimized[b]:
					require.Greater(t, za, zb, "more recent window must paint above")
				case minimized[a] && !minimized[b]:
					require.Less(t, za, zb)
				case !minimized[a] && minimized[b]:
					require.Greater(t, za, zb)
				}
			}
		}

		seen := map[string]bool{}
		for _, id := range order {
			require.False(t, seen[id], "duplicate id in stack")
			seen[id] = true
		}
	}
}
