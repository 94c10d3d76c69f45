package types

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSet(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		set := NewSet[int]()
		assert.Zero(t, set.Len())
	})

	t.Run("duplicate elements collapse", func(t *testing.T) {
		set := NewSet(1, 2, 2, 3, 3, 3)
		assert.Equal(t, 3, set.Len())
	})
}

func TestSet_AddDelete(t *testing.T) {
	t.Run("add then delete", func(t *testing.T) {
		set := NewSet[string]()
		set.Add("a", "b")

		assert.True(t, set.Has("a"))
		assert.True(t, set.Has("b"))

		set.Delete("a")
		assert.False(t, set.Has("a"))
		assert.True(t, set.Has("b"))
	})

	t.Run("delete missing element is a no-op", func(t *testing.T) {
		set := NewSet(1)
		set.Delete(2)
		assert.Equal(t, 1, set.Len())
	})
}

func TestSet_ToSlice(t *testing.T) {
	t.Run("contains every element", func(t *testing.T) {
		set := NewSet(3, 1, 2)

		elements := set.ToSlice()
		slices.Sort(elements)
		assert.Equal(t, []int{1, 2, 3}, elements)
	})
}

func TestSet_ToIter(t *testing.T) {
	t.Run("yields every element", func(t *testing.T) {
		set := NewSet("x", "y")

		var collected []string
		for value := range set.ToIter() {
			collected = append(collected, value)
		}
		slices.Sort(collected)
		assert.Equal(t, []string{"x", "y"}, collected)
	})
}
