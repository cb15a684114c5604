// Package review defines the records that flow through the cleaning and
// analysis pipeline.
package review

// Source name used for reviews collected from the App Store feed.
const SourceAppStore = "App Store"

// RawReview is a review as delivered by the ingestion source.
// An empty Text or a nil Rating means the value is absent.
type RawReview struct {
	Text   string
	Rating *float64
	Date   string
	Bank   string
	Source string
}

// CleanedReview is a RawReview that passed every quality check.
// Date is YYYY-MM-DD and Rating is in 1..5.
type CleanedReview struct {
	Text   string
	Rating int
	Date   string
	Bank   string
	Source string
}

// Raw converts a cleaned review back into its raw shape.
func (c CleanedReview) Raw() RawReview {
	rating := float64(c.Rating)
	return RawReview{
		Text:   c.Text,
		Rating: &rating,
		Date:   c.Date,
		Bank:   c.Bank,
		Source: c.Source,
	}
}

// Label is a discrete sentiment class.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Labels lists every label in reporting order.
var Labels = []Label{Positive, Neutral, Negative}

// Sentiment pairs a compound score with the label derived from it.
type Sentiment struct {
	Label Label
	Score float64
}

// ThemeOther is assigned when no theme rule matches.
const ThemeOther = "Other"

// AnalyzedReview is a CleanedReview enriched with sentiment, keywords and themes.
// Sentiment is nil when the scorer failed for this review.
type AnalyzedReview struct {
	CleanedReview
	Sentiment *Sentiment
	Keywords  []string
	Themes    []string
}

// Label returns the sentiment label or "" when sentiment is unavailable.
func (a AnalyzedReview) Label() Label {
	if a.Sentiment == nil {
		return ""
	}
	return a.Sentiment.Label
}

// Ptr returns a pointer to a rating value.
func Ptr(v float64) *float64 { return &v }
