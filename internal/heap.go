package internal

// PriorityHeap holds the work set of a pass, bucketed by rank and FIFO inside
// a bucket.
type PriorityHeap struct {
	min  int
	max  int
	size int

	buckets []*heapNode // [rank]head

	lookup map[*Node]*heapNode // for O(1) removal
}

type heapNode struct {
	node *Node
	rank int

	next *heapNode
	prev *heapNode
}

func NewHeap() *PriorityHeap {
	return &PriorityHeap{
		buckets: make([]*heapNode, 0, 64),
		lookup:  make(map[*Node]*heapNode),
	}
}

func (h *PriorityHeap) Len() int { return h.size }

func (h *PriorityHeap) Contains(node *Node) bool {
	_, ok := h.lookup[node]
	return ok
}

func (h *PriorityHeap) Insert(node *Node, rank int) {
	if h.Contains(node) {
		return
	}

	entry := &heapNode{node: node, rank: rank}
	h.lookup[node] = entry

	for len(h.buckets) <= rank {
		h.buckets = append(h.buckets, nil)
	}

	if h.buckets[rank] == nil {
		h.buckets[rank] = entry
		entry.prev = entry // loop to self
		entry.next = nil
	} else {
		head := h.buckets[rank]
		tail := head.prev

		tail.next = entry
		entry.prev = tail
		entry.next = nil
		head.prev = entry
	}

	// a back edge may land below the drain cursor, lower it so the entry is still visited
	if h.size == 0 || rank < h.min {
		h.min = rank
	}
	if h.size == 0 || rank > h.max {
		h.max = rank
	}
	h.size++
}

func (h *PriorityHeap) Remove(node *Node) {
	entry, ok := h.lookup[node]
	if !ok {
		return
	}
	delete(h.lookup, node)
	h.size--

	rank := entry.rank

	// single node
	if entry.prev == entry {
		h.buckets[rank] = nil
		entry.prev = entry
		entry.next = nil
		return
	}

	// multiple nodes
	head := h.buckets[rank]
	if entry == head {
		h.buckets[rank] = entry.next
	} else {
		entry.prev.next = entry.next
	}

	next := entry.next
	if next == nil {
		next = h.buckets[rank]
	}
	next.prev = entry.prev

	entry.prev = entry
	entry.next = nil
}

// Drain processes each entry in rank order with the `process` function leaving the heap empty.
// Entries inserted by `process` are drained in the same call.
func (h *PriorityHeap) Drain(process func(*Node)) {
	for ; h.size > 0 && h.min <= h.max; h.min++ {
		for entry := h.buckets[h.min]; entry != nil; entry = h.buckets[h.min] {
			h.Remove(entry.node)
			process(entry.node)
		}
	}

	h.min = 0
	h.max = 0
}

// Clear drops every entry, e.g. after a pass aborted by a panic.
func (h *PriorityHeap) Clear() {
	clear(h.buckets)
	clear(h.lookup)
	h.size = 0
	h.min = 0
	h.max = 0
}
