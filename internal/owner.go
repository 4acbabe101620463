package internal

import (
	"iter"
)

// Owner is a lifetime scope. Graphs own one, embedded graphs hang theirs under
// the parent's so disposing a document tears the whole tree down.
type Owner struct {
	// cleanup functions to be called when the owner is disposed
	cleanups []func()

	disposed bool

	parent       *Owner
	prevSibling  *Owner
	nextSibling  *Owner
	childrenHead *Owner
}

func NewOwner() *Owner {
	return &Owner{
		cleanups: make([]func(), 0),
	}
}

func (parent *Owner) AddChild(child *Owner) {
	child.parent = parent
	child.prevSibling = nil
	child.nextSibling = parent.childrenHead

	if parent.childrenHead != nil {
		parent.childrenHead.prevSibling = child
	}

	parent.childrenHead = child
}

// Detach unlinks the owner from its parent without disposing it.
func (n *Owner) Detach() {
	if n.parent == nil {
		return
	}

	if n.prevSibling != nil {
		n.prevSibling.nextSibling = n.nextSibling
	} else {
		n.parent.childrenHead = n.nextSibling
	}
	if n.nextSibling != nil {
		n.nextSibling.prevSibling = n.prevSibling
	}

	n.parent = nil
	n.prevSibling = nil
	n.nextSibling = nil
}

func (n *Owner) Children() iter.Seq[*Owner] {
	return func(yield func(*Owner) bool) {
		child := n.childrenHead

		for child != nil {
			// read ahead, the child may detach itself while disposing
			next := child.nextSibling
			if !yield(child) {
				return
			}

			child = next
		}
	}
}

func (n *Owner) Disposed() bool { return n.disposed }

func (n *Owner) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true

	n.DisposeChildren()

	for i := 0; i < len(n.cleanups); i++ {
		n.cleanups[i]()
	}
	n.cleanups = nil
}

func (n *Owner) DisposeChildren() {
	for child := range n.Children() {
		child.Dispose()
	}
	n.childrenHead = nil
}

func (n *Owner) OnCleanup(fn func()) {
	n.cleanups = append(n.cleanups, fn)
}
