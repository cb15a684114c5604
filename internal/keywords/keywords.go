// Package keywords extracts short topical phrases from review text.
//
// Phrase boundaries come from a Segmenter, which splits text into noun-phrase
// chunks of flagged tokens. The Extractor keeps only the alphabetic,
// non-stop-word tokens of each chunk, so "the login error" becomes
// "login error" and a chunk made only of stop words yields nothing. Phrases
// that still have more than the configured number of words are discarded.
//
// Output keeps extraction order and duplicates.
package keywords

import (
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxPhraseWords is the longest phrase kept after stripping.
const DefaultMaxPhraseWords = 3

// Token is a single word of a chunk with its linguistic flags.
type Token struct {
	Text    string
	IsStop  bool
	IsAlpha bool
}

// Chunk is a contiguous noun-phrase span.
type Chunk []Token

// Segmenter splits text into noun-phrase chunks.
type Segmenter interface {
	Segment(text string) ([]Chunk, error)
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(text string) ([]Chunk, error)

func (f SegmenterFunc) Segment(text string) ([]Chunk, error) { return f(text) }

// Extractor turns review text into keyword phrases.
type Extractor struct {
	segmenter Segmenter
	maxWords  int
}

// NewExtractor creates an extractor. maxWords < 1 selects DefaultMaxPhraseWords.
func NewExtractor(segmenter Segmenter, maxWords int) *Extractor {
	if maxWords < 1 {
		maxWords = DefaultMaxPhraseWords
	}
	return &Extractor{segmenter: segmenter, maxWords: maxWords}
}

// Extract lower-cases text, segments it and returns the stripped phrases.
// The result may be empty.
func (e *Extractor) Extract(text string) ([]string, error) {
	lower := cases.Lower(language.English).String(text)

	chunks, err := e.segmenter.Segment(lower)
	if err != nil {
		return nil, errors.Wrap(err, "segmenting text")
	}

	phrases := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if phrase, ok := e.phrase(chunk); ok {
			phrases = append(phrases, phrase)
		}
	}
	return phrases, nil
}

func (e *Extractor) phrase(chunk Chunk) (string, bool) {
	words := make([]string, 0, len(chunk))
	for _, tok := range chunk {
		if tok.IsAlpha && !tok.IsStop {
			words = append(words, tok.Text)
		}
	}
	if len(words) == 0 || len(words) > e.maxWords {
		return "", false
	}
	return strings.Join(words, " "), true
}
