package internal

// Batcher defers seeds while a batch is open and hands them back, deduplicated
// and in arrival order, once the outermost batch completes.
type Batcher struct {
	// each nested batch increases the depth by 1
	depth int

	pending []NodeID
	queued  map[NodeID]bool
}

func NewBatcher() *Batcher {
	return &Batcher{
		depth:  0,
		queued: make(map[NodeID]bool),
	}
}

func (b *Batcher) IsBatching() bool {
	return b.depth > 0
}

// Enqueue records seeds for the next pass. A seed queued twice runs once.
func (b *Batcher) Enqueue(ids ...NodeID) {
	for _, id := range ids {
		if !b.queued[id] {
			b.queued[id] = true
			b.pending = append(b.pending, id)
		}
	}
}

// Take empties the queue.
func (b *Batcher) Take() []NodeID {
	seeds := b.pending
	b.pending = nil
	clear(b.queued)
	return seeds
}

func (b *Batcher) Pending() int { return len(b.pending) }

func (b *Batcher) Batch(fn, onComplete func()) {
	b.depth++
	defer func() {
		b.depth--
		if b.depth == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}

// Batch runs fn and evaluates every seed it produced in a single pass once the
// outermost batch returns.
func (g *Graph) Batch(fn func()) {
	g.batcher.Batch(fn, g.flush)
}
