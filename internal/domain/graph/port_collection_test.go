package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func namedPorts(names ...string) []*Port {
	out := make([]*Port, len(names))
	for i, n := range names {
		out[i] = &Port{uniqueName: n, direction: DirectionInput}
	}
	return out
}

func collectionOf(t *testing.T, names ...string) (*OrderedPortCollection, *int) {
	t.Helper()
	changes := 0
	c := NewOrderedPortCollection(DirectionInput, func() { changes++ })
	for _, p := range namedPorts(names...) {
		require.NoError(t, c.Add(p))
	}
	changes = 0
	return c, &changes
}

func requireConsistent(t require.TestingT, c *OrderedPortCollection) {
	require.Len(t, c.byName, len(c.seq))
	require.Len(t, c.order, len(c.seq))
	for i, p := range c.seq {
		require.Equal(t, i, c.order[p.uniqueName], "order of %s", p.uniqueName)
		require.Same(t, p, c.byName[p.uniqueName])
	}
}

func TestOrderedPortCollection_Add(t *testing.T) {
	c, changes := collectionOf(t, "a", "b")

	require.NoError(t, c.Add(&Port{uniqueName: "c"}))
	require.Equal(t, []string{"a", "b", "c"}, c.Names())
	require.Equal(t, 1, *changes)

	err := c.Add(&Port{uniqueName: "b"})
	require.ErrorIs(t, err, ErrDuplicatePortName)
	require.Equal(t, 3, c.Len())
	requireConsistent(t, c)
}

func TestOrderedPortCollection_InsertRange(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{name: "front", index: 0, want: []string{"x", "y", "a", "b", "c"}},
		{name: "middle", index: 1, want: []string{"a", "x", "y", "b", "c"}},
		{name: "end", index: 3, want: []string{"a", "b", "c", "x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := collectionOf(t, "a", "b", "c")
			require.NoError(t, c.InsertRange(tt.index, namedPorts("x", "y")))
			require.Equal(t, tt.want, c.Names())
			requireConsistent(t, c)
		})
	}
}

func TestOrderedPortCollection_InsertRange_Rejects(t *testing.T) {
	c, changes := collectionOf(t, "a", "b")

	require.ErrorIs(t, c.InsertRange(3, namedPorts("x")), ErrInvalidIndex)
	require.ErrorIs(t, c.InsertRange(-1, namedPorts("x")), ErrInvalidIndex)
	require.ErrorIs(t, c.InsertRange(1, namedPorts("x", "a")), ErrDuplicatePortName)
	require.ErrorIs(t, c.InsertRange(1, namedPorts("x", "x")), ErrDuplicatePortName)

	require.Equal(t, []string{"a", "b"}, c.Names(), "rejected inserts change nothing")
	require.Zero(t, *changes)
}

func TestOrderedPortCollection_Remove_Compacts(t *testing.T) {
	c, _ := collectionOf(t, "a", "b", "c", "d")
	b, _ := c.Get("b")

	require.True(t, c.Remove(b))
	require.Equal(t, 3, c.Len())
	idx, ok := c.IndexOf("c")
	require.True(t, ok)
	require.Equal(t, 1, idx)
	idx, _ = c.IndexOf("d")
	require.Equal(t, 2, idx)
	require.False(t, c.Remove(b), "second remove reports absence")
	requireConsistent(t, c)
}

func TestOrderedPortCollection_Remove_IgnoresImpostor(t *testing.T) {
	c, _ := collectionOf(t, "a")
	require.False(t, c.Remove(&Port{uniqueName: "a"}))
	require.Equal(t, 1, c.Len())
}

func TestOrderedPortCollection_SwapOrder(t *testing.T) {
	c, _ := collectionOf(t, "a", "b", "c")
	a, _ := c.Get("a")
	cc, _ := c.Get("c")

	require.NoError(t, c.SwapOrder(a, cc))
	require.Equal(t, []string{"c", "b", "a"}, c.Names())
	requireConsistent(t, c)

	require.ErrorIs(t, c.SwapOrder(a, &Port{uniqueName: "zz"}), ErrInvalidIndex)
}

func TestOrderedPortCollection_ChangeName(t *testing.T) {
	c, _ := collectionOf(t, "a", "b", "c")
	b, _ := c.Get("b")

	b.uniqueName = "renamed"
	require.NoError(t, c.ChangeName(b, "b"))
	require.Equal(t, []string{"a", "renamed", "c"}, c.Names())
	_, ok := c.Get("b")
	require.False(t, ok)
	got, ok := c.Get("renamed")
	require.True(t, ok)
	require.Same(t, b, got)
	requireConsistent(t, c)

	a, _ := c.Get("a")
	a.uniqueName = "c"
	require.ErrorIs(t, c.ChangeName(a, "a"), ErrDuplicatePortName)
	a.uniqueName = "a"

	require.ErrorIs(t, c.ChangeName(b, "missing"), ErrPortNotOnNode)
}

func TestOrderedPortCollection_At(t *testing.T) {
	c, _ := collectionOf(t, "a", "b")
	require.Equal(t, "b", c.At(1).UniqueName())
	require.PanicsWithError(t, fmt.Errorf("%w: port 2 of 2", ErrInvalidIndex).Error(), func() { c.At(2) })
}

func TestOrderedPortCollection_Visible(t *testing.T) {
	c, _ := collectionOf(t, "a")
	require.NoError(t, c.Add(&Port{uniqueName: "$opt", options: PortOptionHidden | PortOptionNodeOption}))
	require.NoError(t, c.Add(&Port{uniqueName: "b"}))

	var names []string
	for _, p := range c.Visible() {
		names = append(names, p.UniqueName())
	}
	require.Equal(t, []string{"a", "b"}, names)
}

func TestOrderedPortCollection_Clear(t *testing.T) {
	c, changes := collectionOf(t, "a", "b")
	c.Clear()
	require.Zero(t, c.Len())
	require.Equal(t, 1, *changes)
	c.Clear()
	require.Equal(t, 1, *changes, "clearing an empty collection is silent")
}

// Removing any port shortens the collection by one and shifts every later port
// down by exactly one position.
func TestOrderedPortCollection_RemoveCompactionProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(r, "n")
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("p%d", i)
		}
		c := NewOrderedPortCollection(DirectionOutput, nil)
		for _, p := range namedPorts(names...) {
			require.NoError(r, c.Add(p))
		}
		removals := rapid.IntRange(1, n).Draw(r, "removals")
		for i := 0; i < removals; i++ {
			victim := c.At(rapid.IntRange(0, c.Len()-1).Draw(r, "victim"))
			before := make(map[string]int, c.Len())
			for _, name := range c.Names() {
				before[name], _ = c.IndexOf(name)
			}
			removedAt := before[victim.UniqueName()]
			length := c.Len()

			require.True(r, c.Remove(victim))
			require.Equal(r, length-1, c.Len())
			for name, old := range before {
				if name == victim.UniqueName() {
					continue
				}
				now, ok := c.IndexOf(name)
				require.True(r, ok)
				if old > removedAt {
					require.Equal(r, old-1, now, "port %s", name)
				} else {
					require.Equal(r, old, now, "port %s", name)
				}
			}
			requireConsistent(r, c)
		}
	})
}
