package keywords

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tok(text string) Token {
	return Token{Text: text, IsStop: IsStopWord(text), IsAlpha: isAlpha(text)}
}

func chunk(words ...string) Chunk {
	c := make(Chunk, len(words))
	for i, w := range words {
		c[i] = tok(w)
	}
	return c
}

func stubSegmenter(chunks ...Chunk) Segmenter {
	return SegmenterFunc(func(string) ([]Chunk, error) { return chunks, nil })
}

func TestExtractStripsStopWordsAndNonAlpha(t *testing.T) {
	seg := stubSegmenter(
		chunk("the", "login", "error"),
		chunk("it"),
		chunk("my", "2", "accounts"),
		chunk("the", "new", "fingerprint", "login", "option"),
		chunk("login", "error"),
	)

	got, err := NewExtractor(seg, 3).Extract("ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"login error", "accounts", "login error"}, got)
}

func TestExtractLowercasesBeforeSegmenting(t *testing.T) {
	var seen string
	seg := SegmenterFunc(func(text string) ([]Chunk, error) {
		seen = text
		return nil, nil
	})

	got, err := NewExtractor(seg, 3).Extract("The LOGIN Error")
	require.NoError(t, err)
	assert.Equal(t, "the login error", seen)
	assert.Empty(t, got)
}

func TestExtractMaxWords(t *testing.T) {
	seg := stubSegmenter(chunk("mobile", "banking", "app"), chunk("customer", "service"))

	got, err := NewExtractor(seg, 2).Extract("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer service"}, got)

	got, err = NewExtractor(seg, 0).Extract("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"mobile banking app", "customer service"}, got)
}

func TestExtractPropagatesSegmenterError(t *testing.T) {
	boom := errors.New("segmenter down")
	seg := SegmenterFunc(func(string) ([]Chunk, error) { return nil, boom })

	_, err := NewExtractor(seg, 3).Extract("x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"the", "is", "it", "my", "and"} {
		assert.True(t, IsStopWord(w), w)
	}
	for _, w := range []string{"login", "transfer", "app", "support"} {
		assert.False(t, IsStopWord(w), w)
	}
}

func TestIsAlpha(t *testing.T) {
	assert.True(t, isAlpha("login"))
	assert.True(t, isAlpha("ቴሌብር"))
	assert.False(t, isAlpha(""))
	assert.False(t, isAlpha("2fa"))
	assert.False(t, isAlpha("n't"))
}

func TestChunkString(t *testing.T) {
	assert.Equal(t, "[the* login error 2#]", chunk("the", "login", "error", "2").String())
}
