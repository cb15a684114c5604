// Package report renders the insights report as markdown.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/ReviewPulse/internal/analyze"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// Build renders the report for one analysis result.
func Build(summary analyze.Summary, reviews []review.AnalyzedReview, generated time.Time) string {
	sections := []string{
		header(summary, reviews, generated),
		overview(summary),
	}
	for _, b := range summary.Banks {
		sections = append(sections, bankSection(b))
	}
	sections = append(sections,
		comparison(summary.Banks),
		ratingDistribution(summary.Banks),
		monthlyTrend(summary.Banks, reviews),
	)
	return strings.Join(sections, "\n\n---\n\n") + "\n"
}

func header(summary analyze.Summary, reviews []review.AnalyzedReview, generated time.Time) string {
	var b strings.Builder
	b.WriteString("# Bank App Review Insights\n\n")
	fmt.Fprintf(&b, "Generated %s from %s reviews across %d banks.",
		generated.UTC().Format("Jan 02, 2006 15:04 MST"),
		humanize.Comma(int64(len(reviews))),
		len(summary.Banks),
	)
	if f := summary.Failures; f.Sentiment > 0 || f.Keywords > 0 {
		fmt.Fprintf(&b, "\n\n> %d reviews have no sentiment and %d have no keywords because enrichment failed.",
			f.Sentiment, f.Keywords)
	}
	return b.String()
}

func overview(summary analyze.Summary) string {
	var b strings.Builder
	b.WriteString("## Overview\n\n")
	if len(summary.Banks) == 0 {
		b.WriteString("No reviews were analyzed.")
		return b.String()
	}
	b.WriteString("| Bank | Reviews | Positive | Neutral | Negative |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, s := range summary.Banks {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			s.Bank, humanize.Comma(int64(s.Total)),
			percent(s.Share[review.Positive]), percent(s.Share[review.Neutral]), percent(s.Share[review.Negative]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func bankSection(s analyze.BankSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.Bank)
	b.WriteString("### Drivers\n\n")
	writeFrequencies(&b, "Keywords", s.TopPositiveKeywords)
	writeFrequencies(&b, "Themes", s.TopPositiveThemes)
	b.WriteString("\n### Pain Points\n\n")
	writeFrequencies(&b, "Keywords", s.TopNegativeKeywords)
	writeFrequencies(&b, "Themes", s.TopNegativeThemes)
	b.WriteString("\n### Most Mentioned\n\n")
	writeFrequencies(&b, "Keywords", s.TopKeywords)
	writeFrequencies(&b, "Themes", s.TopThemes)
	return strings.TrimRight(b.String(), "\n")
}

func writeFrequencies(b *strings.Builder, title string, freqs []analyze.Frequency) {
	if len(freqs) == 0 {
		fmt.Fprintf(b, "- **%s:** none\n", title)
		return
	}
	items := make([]string, len(freqs))
	for i, f := range freqs {
		items[i] = fmt.Sprintf("%s (%d)", f.Term, f.Count)
	}
	fmt.Fprintf(b, "- **%s:** %s\n", title, strings.Join(items, ", "))
}

// comparison compares the sentiment shares of every pair of banks.
func comparison(banks []analyze.BankSummary) string {
	var b strings.Builder
	b.WriteString("## Sentiment Comparison\n\n")
	if len(banks) < 2 {
		b.WriteString("At least two banks are needed for a comparison.")
		return b.String()
	}
	for i := 0; i < len(banks); i++ {
		for j := i + 1; j < len(banks); j++ {
			x, y := banks[i], banks[j]
			fmt.Fprintf(&b, "**%s vs. %s**\n\n", x.Bank, y.Bank)
			for _, label := range review.Labels {
				diff := x.Share[label] - y.Share[label]
				fmt.Fprintf(&b, "- %s: %s vs. %s (%+.1f pts)\n",
					label, percent(x.Share[label]), percent(y.Share[label]), diff)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func ratingDistribution(banks []analyze.BankSummary) string {
	var b strings.Builder
	b.WriteString("## Rating Distribution\n\n")
	b.WriteString("| Bank | 1 | 2 | 3 | 4 | 5 |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, s := range banks {
		fmt.Fprintf(&b, "| %s |", s.Bank)
		for rating := 1; rating <= 5; rating++ {
			fmt.Fprintf(&b, " %d |", s.Ratings[rating])
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type monthCounts struct {
	labels map[review.Label]int
	sum    float64
	scored int
}

// monthlyTrend counts labels per bank and month, newest month first.
func monthlyTrend(banks []analyze.BankSummary, reviews []review.AnalyzedReview) string {
	byMonth := make(map[string]map[string]*monthCounts)
	for _, r := range reviews {
		if r.Sentiment == nil || len(r.Date) < 7 {
			continue
		}
		month := r.Date[:7]
		if byMonth[month] == nil {
			byMonth[month] = make(map[string]*monthCounts)
		}
		mc := byMonth[month][r.Bank]
		if mc == nil {
			mc = &monthCounts{labels: make(map[review.Label]int)}
			byMonth[month][r.Bank] = mc
		}
		mc.labels[r.Sentiment.Label]++
		mc.sum += r.Sentiment.Score
		mc.scored++
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	var b strings.Builder
	b.WriteString("## Monthly Sentiment Trend\n\n")
	if len(months) == 0 {
		b.WriteString("No dated sentiment available.")
		return b.String()
	}
	b.WriteString("| Month | Bank | Positive | Neutral | Negative | Avg Score |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, m := range months {
		for _, s := range banks {
			mc, ok := byMonth[m][s.Bank]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %.3f |\n",
				m, s.Bank, mc.labels[review.Positive], mc.labels[review.Neutral], mc.labels[review.Negative],
				mc.sum/float64(mc.scored))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
