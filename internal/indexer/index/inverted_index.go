// Package index implements the inverted index: an open-addressed hash table
// with quadratic probing that maps normalized words to their KeywordEntry.
//
// Capacities are always prime and the table grows before it becomes half
// full, which guarantees that the probe sequence home+i² reaches a free
// slot. An InvertedIndex is not safe for concurrent use.
package index

import (
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
)

const (
	DefaultCapacity      = 101
	DefaultMaxLoadFactor = 0.5
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot struct {
	state slotState
	word  string
	entry *KeywordEntry
}

// InvertedIndex maps normalized words to KeywordEntry values.
type InvertedIndex struct {
	slots         []slot
	occupied      int
	tombstones    int
	maxLoadFactor float64
	grows         int
}

// New returns an empty index. The capacity is rounded up to a prime and the
// load factor is clamped to (0, 0.5] so quadratic probing stays complete.
func New(capacity int, maxLoadFactor float64) *InvertedIndex {
	if capacity < 3 {
		capacity = DefaultCapacity
	}
	if maxLoadFactor <= 0 || maxLoadFactor > DefaultMaxLoadFactor {
		maxLoadFactor = DefaultMaxLoadFactor
	}
	return &InvertedIndex{
		slots:         make([]slot, nextPrime(capacity)),
		maxLoadFactor: maxLoadFactor,
	}
}

// Insert stores entry under its word. Inserting a word that is already
// present is a caller error and returns ErrDuplicateKey; use Find and mutate
// the existing entry instead.
func (ix *InvertedIndex) Insert(entry *KeywordEntry) error {
	if float64(ix.occupied+ix.tombstones+1) > ix.maxLoadFactor*float64(len(ix.slots)) {
		ix.grow()
	}
	idx, found := ix.probe(entry.word)
	if found {
		return fmt.Errorf("inserting %q: %w", entry.word, apperrors.ErrDuplicateKey)
	}
	if idx < 0 {
		// Unreachable while the load factor stays at or below one half.
		ix.grow()
		return ix.Insert(entry)
	}
	if ix.slots[idx].state == slotTombstone {
		ix.tombstones--
	}
	ix.slots[idx] = slot{state: slotOccupied, word: entry.word, entry: entry}
	ix.occupied++
	return nil
}

// Contains reports whether word (in any casing) is indexed.
func (ix *InvertedIndex) Contains(word string) bool {
	_, found := ix.probe(tokenizer.Normalize(word))
	return found
}

// Find returns the entry for word. A miss returns an error wrapping
// ErrNotFound.
func (ix *InvertedIndex) Find(word string) (*KeywordEntry, error) {
	normalized := tokenizer.Normalize(word)
	idx, found := ix.probe(normalized)
	if !found {
		return nil, fmt.Errorf("finding %q: %w", normalized, apperrors.ErrNotFound)
	}
	return ix.slots[idx].entry, nil
}

// Remove replaces the entry for word with a tombstone so that later probe
// sequences passing through the slot are not cut short.
func (ix *InvertedIndex) Remove(word string) error {
	normalized := tokenizer.Normalize(word)
	idx, found := ix.probe(normalized)
	if !found {
		return fmt.Errorf("removing %q: %w", normalized, apperrors.ErrNotFound)
	}
	ix.slots[idx] = slot{state: slotTombstone}
	ix.occupied--
	ix.tombstones++
	return nil
}

// Len returns the number of indexed words.
func (ix *InvertedIndex) Len() int {
	return ix.occupied
}

// Capacity returns the current number of slots.
func (ix *InvertedIndex) Capacity() int {
	return len(ix.slots)
}

// Grows returns how many times the table has been resized.
func (ix *InvertedIndex) Grows() int {
	return ix.grows
}

// LoadFactor returns the share of slots that are occupied or tombstoned.
func (ix *InvertedIndex) LoadFactor() float64 {
	return float64(ix.occupied+ix.tombstones) / float64(len(ix.slots))
}

// Entries yields every stored entry in slot order.
func (ix *InvertedIndex) Entries() iter.Seq[*KeywordEntry] {
	return func(yield func(*KeywordEntry) bool) {
		for i := range ix.slots {
			if ix.slots[i].state != slotOccupied {
				continue
			}
			if !yield(ix.slots[i].entry) {
				return
			}
		}
	}
}

// probe walks home, home+1², home+2², ... and returns the slot holding word
// (found=true) or the first reusable slot for it (found=false). Tombstones do
// not stop the walk; the first one seen is remembered for reuse. idx is -1
// when the whole sequence was exhausted without a free slot.
func (ix *InvertedIndex) probe(word string) (idx int, found bool) {
	capacity := uint64(len(ix.slots))
	home := xxhash.Sum64String(word) % capacity
	firstTombstone := -1
	for i := uint64(0); i < capacity; i++ {
		pos := int((home + i*i) % capacity)
		s := &ix.slots[pos]
		switch s.state {
		case slotEmpty:
			if firstTombstone >= 0 {
				return firstTombstone, false
			}
			return pos, false
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = pos
			}
		case slotOccupied:
			if s.word == word {
				return pos, true
			}
		}
	}
	return firstTombstone, false
}

func (ix *InvertedIndex) grow() {
	old := ix.slots
	ix.slots = make([]slot, nextPrime(2*len(old)))
	ix.occupied = 0
	ix.tombstones = 0
	ix.grows++
	for i := range old {
		if old[i].state != slotOccupied {
			continue
		}
		idx, _ := ix.probe(old[i].word)
		ix.slots[idx] = old[i]
		ix.occupied++
	}
}

func nextPrime(n int) int {
	if n <= 2 {
		return 2
	}
	if n%2 == 0 {
		n++
	}
	for !isPrime(n) {
		n += 2
	}
	return n
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
