// Package queue provides the bounded k-best queue used by knn search.
package queue

import (
	"cmp"
	"slices"
)

// Item is one scored candidate.
type Item struct {
	Node     uint32
	Distance float64
	// Seq is the push order; it breaks distance ties.
	Seq uint64
}

func compare(a, b Item) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// Bounded keeps the k best (smallest-distance) items pushed so far.
//
// Items are ranked by (Distance, Seq). The retained set is a max-heap with the
// worst item on top, so an overflowing push evicts exactly one item: the last
// in that order. Among equally distant items the earliest pushed survive.
type Bounded struct {
	k     int
	items []Item
	seq   uint64
}

// NewBounded creates a queue holding at most k items.
func NewBounded(k int) *Bounded {
	return &Bounded{k: k, items: make([]Item, 0, k+1)}
}

// Push offers a candidate.
func (b *Bounded) Push(node uint32, distance float64) {
	it := Item{Node: node, Distance: distance, Seq: b.seq}
	b.seq++

	if len(b.items) < b.k {
		b.items = append(b.items, it)
		b.up(len(b.items) - 1)
		return
	}
	// Full: it can only enter by replacing a worse top.
	if b.k == 0 || compare(it, b.items[0]) >= 0 {
		return
	}
	b.items[0] = it
	b.down(0)
}

// Worst returns the item that the next better push would evict.
func (b *Bounded) Worst() (Item, bool) {
	if len(b.items) == 0 {
		return Item{}, false
	}
	return b.items[0], true
}

// Len returns the number of retained items.
func (b *Bounded) Len() int { return len(b.items) }

// Sorted returns a copy of the retained items in ascending (Distance, Seq)
// order.
func (b *Bounded) Sorted() []Item {
	out := slices.Clone(b.items)
	slices.SortFunc(out, compare)
	return out
}

// worse reports whether items[i] ranks after items[j].
func (b *Bounded) worse(i, j int) bool {
	return compare(b.items[i], b.items[j]) > 0
}

func (b *Bounded) up(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !b.worse(i, p) {
			return
		}
		b.items[i], b.items[p] = b.items[p], b.items[i]
		i = p
	}
}

func (b *Bounded) down(i int) {
	n := len(b.items)
	for {
		top := i
		if l := 2*i + 1; l < n && b.worse(l, top) {
			top = l
		}
		if r := 2*i + 2; r < n && b.worse(r, top) {
			top = r
		}
		if top == i {
			return
		}
		b.items[i], b.items[top] = b.items[top], b.items[i]
		i = top
	}
}
