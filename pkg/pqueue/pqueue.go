// Package pqueue provides an array-backed binary min-heap. It is used to rank
// query results by score and to restore discovery order for documents that
// were fetched concurrently.
//
// A MinHeap is not safe for concurrent use.
package pqueue

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
)

// Lesser is implemented by element types that carry their own total order.
type Lesser[T any] interface {
	Less(other T) bool
}

// MinHeap keeps the smallest element at index 0. Children of i live at
// 2i+1 and 2i+2, the parent of i at (i-1)/2.
type MinHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

// New returns an empty heap ordered by the element's Less method.
func New[T Lesser[T]]() *MinHeap[T] {
	return NewFunc(func(a, b T) bool { return a.Less(b) })
}

// NewFunc returns an empty heap ordered by less.
func NewFunc[T any](less func(a, b T) bool) *MinHeap[T] {
	return &MinHeap[T]{less: less}
}

// BuildFrom bulk-loads items in O(n). The input slice is copied.
func BuildFrom[T Lesser[T]](items []T) *MinHeap[T] {
	return BuildFromFunc(items, func(a, b T) bool { return a.Less(b) })
}

// BuildFromFunc bulk-loads items in O(n) using less. The input slice is copied.
func BuildFromFunc[T any](items []T, less func(a, b T) bool) *MinHeap[T] {
	h := &MinHeap[T]{
		items: make([]T, len(items)),
		less:  less,
	}
	copy(h.items, items)
	for i := len(h.items)/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
	return h
}

// Len returns the number of queued elements.
func (h *MinHeap[T]) Len() int {
	return len(h.items)
}

// Insert adds value in O(log n).
func (h *MinHeap[T]) Insert(value T) {
	h.items = append(h.items, value)
	hole := len(h.items) - 1
	for hole > 0 {
		parent := (hole - 1) / 2
		if !h.less(value, h.items[parent]) {
			break
		}
		h.items[hole] = h.items[parent]
		hole = parent
	}
	h.items[hole] = value
}

// Peek returns the minimum without removing it.
func (h *MinHeap[T]) Peek() (T, error) {
	if len(h.items) == 0 {
		var zero T
		return zero, apperrors.ErrEmptyQueue
	}
	return h.items[0], nil
}

// ExtractMin removes and returns the minimum element. It returns
// ErrEmptyQueue once the heap is drained.
func (h *MinHeap[T]) ExtractMin() (T, error) {
	var zero T
	n := len(h.items)
	if n == 0 {
		return zero, apperrors.ErrEmptyQueue
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = zero
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, nil
}

func (h *MinHeap[T]) siftDown(hole int) {
	n := len(h.items)
	value := h.items[hole]
	for {
		child := 2*hole + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.less(h.items[right], h.items[child]) {
			child = right
		}
		if !h.less(h.items[child], value) {
			break
		}
		h.items[hole] = h.items[child]
		hole = child
	}
	h.items[hole] = value
}
