package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPriorityHeap(t *testing.T) {
	mk := func(n int) []*Node {
		nodes := make([]*Node, n)
		for i := range nodes {
			nodes[i] = &Node{id: uuid.New()}
		}
		return nodes
	}

	t.Run("drains by rank, fifo within a rank", func(t *testing.T) {
		h := NewHeap()
		n := mk(4)

		h.Insert(n[0], 2)
		h.Insert(n[1], 0)
		h.Insert(n[2], 2)
		h.Insert(n[3], 1)

		var order []*Node
		h.Drain(func(node *Node) { order = append(order, node) })

		assert.Equal(t, []*Node{n[1], n[3], n[0], n[2]}, order)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("ignores duplicates", func(t *testing.T) {
		h := NewHeap()
		n := mk(1)

		h.Insert(n[0], 3)
		h.Insert(n[0], 3)

		assert.Equal(t, 1, h.Len())
	})

	t.Run("removes from the middle of a bucket", func(t *testing.T) {
		h := NewHeap()
		n := mk(3)

		h.Insert(n[0], 1)
		h.Insert(n[1], 1)
		h.Insert(n[2], 1)
		h.Remove(n[1])

		var order []*Node
		h.Drain(func(node *Node) { order = append(order, node) })

		assert.Equal(t, []*Node{n[0], n[2]}, order)
	})

	t.Run("drains entries inserted while draining", func(t *testing.T) {
		h := NewHeap()
		n := mk(3)

		h.Insert(n[0], 1)

		var order []*Node
		h.Drain(func(node *Node) {
			order = append(order, node)

			switch node {
			case n[0]:
				h.Insert(n[1], 3)
				// below the cursor, lowers it
				h.Insert(n[2], 0)
			}
		})

		assert.Equal(t, []*Node{n[0], n[2], n[1]}, order)
	})

	t.Run("clear", func(t *testing.T) {
		h := NewHeap()
		n := mk(2)

		h.Insert(n[0], 0)
		h.Insert(n[1], 5)
		h.Clear()

		assert.Equal(t, 0, h.Len())
		assert.False(t, h.Contains(n[0]))
	})
}
