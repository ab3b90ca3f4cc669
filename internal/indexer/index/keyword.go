package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/tokenizer"
)

// KeywordEntry is the posting list for one normalized word: every document
// the word appears in and the token positions it was seen at.
type KeywordEntry struct {
	word     string
	postings map[string][]int
}

// NewKeywordEntry creates an entry for word seeded with a single posting.
func NewKeywordEntry(word string, docID string, position int) *KeywordEntry {
	return &KeywordEntry{
		word: tokenizer.Normalize(word),
		postings: map[string][]int{
			docID: {position},
		},
	}
}

// Word returns the normalized word.
func (k *KeywordEntry) Word() string {
	return k.word
}

// Add records position for docID, appending to any existing positions.
func (k *KeywordEntry) Add(docID string, position int) {
	k.postings[docID] = append(k.postings[docID], position)
}

// Locations returns the positions recorded for docID in encounter order, or
// an empty slice. Callers must not modify the returned slice.
func (k *KeywordEntry) Locations(docID string) []int {
	positions, ok := k.postings[docID]
	if !ok {
		return []int{}
	}
	return positions
}

// Documents returns the ids of every document containing the word, sorted.
func (k *KeywordEntry) Documents() []string {
	docs := make([]string, 0, len(k.postings))
	for docID := range k.postings {
		docs = append(docs, docID)
	}
	sort.Strings(docs)
	return docs
}

// Contains reports whether docID has at least one posting.
func (k *KeywordEntry) Contains(docID string) bool {
	_, ok := k.postings[docID]
	return ok
}

// DocumentCount returns the number of distinct documents for the word.
func (k *KeywordEntry) DocumentCount() int {
	return len(k.postings)
}

// Less orders entries by normalized word.
func (k *KeywordEntry) Less(other *KeywordEntry) bool {
	return k.word < other.word
}
