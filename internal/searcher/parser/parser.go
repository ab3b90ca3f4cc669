// Package parser turns free-form query text into the term pair the engine
// ranks.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
)

// Pair is a two-term query. Terms are normalized.
type Pair struct {
	One string `json:"one"`
	Two string `json:"two"`
}

// Same reports whether both terms are the same word.
func (p Pair) Same() bool {
	return p.One == p.Two
}

// String renders the pair in the form ParsePair accepts.
func (p Pair) String() string {
	if p.Same() {
		return p.One
	}
	return p.One + " " + p.Two
}

// ParsePair splits query into at most two words. A single word is paired
// with itself, so "apple" asks for documents ranked by apple alone.
func ParsePair(query string) (Pair, error) {
	words := tokenizer.Words(query)
	switch len(words) {
	case 0:
		return Pair{}, fmt.Errorf("%w: query has no terms", apperrors.ErrInvalidInput)
	case 1:
		term := tokenizer.Normalize(words[0])
		return Pair{One: term, Two: term}, nil
	case 2:
		return NewPair(words[0], words[1])
	default:
		return Pair{}, fmt.Errorf("%w: query has %d terms, at most 2 allowed", apperrors.ErrInvalidInput, len(words))
	}
}

// NewPair builds a pair from two separately supplied terms. Each must be a
// single word.
func NewPair(one, two string) (Pair, error) {
	a, err := singleTerm(one)
	if err != nil {
		return Pair{}, err
	}
	b, err := singleTerm(two)
	if err != nil {
		return Pair{}, err
	}
	return Pair{One: a, Two: b}, nil
}

func singleTerm(raw string) (string, error) {
	words := tokenizer.Words(strings.TrimSpace(raw))
	if len(words) != 1 {
		return "", fmt.Errorf("%w: %q is not a single word", apperrors.ErrInvalidInput, raw)
	}
	return tokenizer.Normalize(words[0]), nil
}
