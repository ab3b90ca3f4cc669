// Package tokenizer splits harvested text into raw words and decides which of
// them are worth indexing. Words keep their raw position so that proximity
// scoring reflects the true distance in the page.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinWordLength is the shortest word, in runes, that gets indexed.
const DefaultMinWordLength = 4

// Token is an indexable word and its offset in the raw word sequence.
type Token struct {
	Term     string
	Position int
}

// Words breaks text into runs of letters, digits and underscores.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

// Normalize maps a word to its canonical indexed form. Casing never affects
// equality or hashing.
func Normalize(word string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(word))
}

// Indexable reports whether a raw word passes the ingestion filter: purely
// alphabetic and at least minLen runes long.
func Indexable(word string, minLen int) bool {
	if word == "" || utf8.RuneCountInString(word) < minLen {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Tokenize filters a raw word sequence down to normalized Tokens. Position is
// the index into words, so skipped words still count toward distance.
func Tokenize(words []string, minLen int) []Token {
	tokens := make([]Token, 0, len(words)/2)
	for pos, word := range words {
		if !Indexable(word, minLen) {
			continue
		}
		tokens = append(tokens, Token{
			Term:     Normalize(word),
			Position: pos,
		})
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
