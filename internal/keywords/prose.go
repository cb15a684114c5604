package keywords

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/jdkato/prose/v2"
)

// ProseSegmenter chunks text into noun phrases using prose part-of-speech tags.
//
// A chunk is a maximal run of determiners, possessives, numbers, adjectives
// and nouns that ends in a noun; trailing modifiers after the last noun are
// cut off. Personal pronouns form single-token chunks.
type ProseSegmenter struct {
	once  sync.Once
	model *prose.Model
	err   error
}

// NewProseSegmenter creates a segmenter. The tagging model is loaded on first use.
func NewProseSegmenter() *ProseSegmenter {
	return &ProseSegmenter{}
}

// nounPhraseTags may appear inside a noun phrase.
var nounPhraseTags = map[string]struct{}{
	"DT": {}, "PDT": {}, "PRP$": {}, "CD": {}, "POS": {},
	"JJ": {}, "JJR": {}, "JJS": {},
	"NN": {}, "NNS": {}, "NNP": {}, "NNPS": {},
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

// Segment tags text and returns its noun-phrase chunks.
func (s *ProseSegmenter) Segment(text string) (chunks []Chunk, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	model, err := s.loadModel()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, errors.Newf("prose tagger panicked: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.UsingModel(model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(err, "tagging text")
	}
	return chunkTokens(doc.Tokens()), nil
}

func (s *ProseSegmenter) loadModel() (*prose.Model, error) {
	s.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.err = errors.Newf("loading prose model: %v", r)
			}
		}()
		doc, err := prose.NewDocument("warm up", prose.WithSegmentation(false), prose.WithExtraction(false))
		if err != nil {
			s.err = errors.Wrap(err, "loading prose model")
			return
		}
		s.model = doc.Model
	})
	return s.model, s.err
}

func chunkTokens(tokens []prose.Token) []Chunk {
	var chunks []Chunk
	var run []prose.Token

	flush := func() {
		last := -1
		for i, tok := range run {
			if isNoun(tok.Tag) {
				last = i
			}
		}
		if last >= 0 {
			chunks = append(chunks, toChunk(run[:last+1]))
		}
		run = run[:0]
	}

	for _, tok := range tokens {
		if tok.Tag == "PRP" {
			flush()
			chunks = append(chunks, toChunk([]prose.Token{tok}))
			continue
		}
		if _, ok := nounPhraseTags[tok.Tag]; ok {
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()
	return chunks
}

func toChunk(tokens []prose.Token) Chunk {
	chunk := make(Chunk, len(tokens))
	for i, tok := range tokens {
		word := strings.ToLower(tok.Text)
		chunk[i] = Token{
			Text:    word,
			IsStop:  IsStopWord(word),
			IsAlpha: isAlpha(word),
		}
	}
	return chunk
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// String renders a chunk for debugging, e.g. [the* login error].
func (c Chunk) String() string {
	parts := make([]string, len(c))
	for i, tok := range c {
		mark := ""
		if tok.IsStop {
			mark = "*"
		}
		if !tok.IsAlpha {
			mark += "#"
		}
		parts[i] = tok.Text + mark
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
