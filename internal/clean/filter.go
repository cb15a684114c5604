package clean

import (
	"math"
	"strings"
	"unicode"

	"github.com/hashicorp/go-set/v2"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// Reason explains a keep/drop decision.
type Reason string

const (
	ReasonKept             Reason = "kept"
	ReasonDuplicate        Reason = "duplicate"
	ReasonIncomplete       Reason = "incomplete"
	ReasonInvalidDate      Reason = "invalid_date"
	ReasonRatingOutOfRange Reason = "rating_out_of_range"
	ReasonTooShort         Reason = "too_short"
	ReasonNonInformative   Reason = "non_informative"
)

// DropReasons lists the drop reasons in the order the checks run.
var DropReasons = []Reason{
	ReasonDuplicate,
	ReasonIncomplete,
	ReasonInvalidDate,
	ReasonRatingOutOfRange,
	ReasonTooShort,
	ReasonNonInformative,
}

// Decision is the outcome of evaluating a single raw review.
// Review is only set when Keep is true.
type Decision struct {
	Keep   bool
	Reason Reason
	Review review.CleanedReview
}

type dupKey struct {
	text string
	bank string
}

// Filter applies the quality checks to reviews of one batch.
// It remembers every (text, bank) pair it has seen, so a Filter must not be
// shared between batches.
type Filter struct {
	minTokens int
	seen      *set.Set[dupKey]
}

// NewFilter creates a Filter with an empty duplicate set.
func NewFilter(cfg config.Cleaning) *Filter {
	// min_chars is compared against the token count, not the rune count.
	minTokens := max(cfg.MinWords, cfg.MinChars, 1)
	return &Filter{
		minTokens: minTokens,
		seen:      set.New[dupKey](0),
	}
}

// Evaluate runs the checks in order and returns the first failing reason.
// The duplicate key is recorded even when a later check drops the review.
func (f *Filter) Evaluate(r review.RawReview) Decision {
	if !f.seen.Insert(dupKey{text: r.Text, bank: r.Bank}) {
		return drop(ReasonDuplicate)
	}

	if r.Text == "" || r.Rating == nil {
		return drop(ReasonIncomplete)
	}

	date, ok := NormalizeDate(r.Date)
	if !ok {
		return drop(ReasonInvalidDate)
	}

	rating, ok := CoerceRating(*r.Rating)
	if !ok {
		return drop(ReasonRatingOutOfRange)
	}

	tokens := strings.Fields(r.Text)
	if len(tokens) < f.minTokens {
		return drop(ReasonTooShort)
	}

	if IsNonInformative(r.Text) {
		return drop(ReasonNonInformative)
	}

	return Decision{
		Keep:   true,
		Reason: ReasonKept,
		Review: review.CleanedReview{
			Text:   r.Text,
			Rating: rating,
			Date:   date,
			Bank:   r.Bank,
			Source: r.Source,
		},
	}
}

func drop(reason Reason) Decision {
	return Decision{Reason: reason}
}

// CoerceRating accepts integral ratings in 1..5.
func CoerceRating(v float64) (int, bool) {
	if math.IsNaN(v) || v != math.Trunc(v) || v < 1 || v > 5 {
		return 0, false
	}
	return int(v), true
}

// IsNonInformative reports whether text is spam-like: a single character
// repeated 3+ times, 3+ punctuation marks with nothing else but whitespace
// (so "! ! !" counts), or 3+ tokens drawn from at most 2 distinct lowercase
// words.
func IsNonInformative(text string) bool {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)

	if len(runes) >= 3 && sameRune(runes) {
		return true
	}
	if punctuationOnly(runes) >= 3 {
		return true
	}

	tokens := strings.Fields(trimmed)
	if len(tokens) < 3 {
		return false
	}
	distinct := set.New[string](len(tokens))
	for _, tok := range tokens {
		distinct.Insert(strings.ToLower(tok))
	}
	return distinct.Size() <= 2
}

func sameRune(runes []rune) bool {
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

// punctuationOnly returns the number of punctuation runes when the text holds
// nothing but punctuation and whitespace, and 0 otherwise.
func punctuationOnly(runes []rune) int {
	n := 0
	for _, r := range runes {
		switch {
		case unicode.IsSpace(r):
		case unicode.IsPunct(r) || (unicode.IsSymbol(r) && r < unicode.MaxASCII):
			n++
		default:
			return 0
		}
	}
	return n
}
