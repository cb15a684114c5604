package collect

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// DefaultBaseURL is the App Store RSS host.
const DefaultBaseURL = "https://itunes.apple.com"

// maxPages is the deepest page the customer-review feed serves.
const maxPages = 10

// FeedEntry is one customer review parsed from the feed.
type FeedEntry struct {
	ID     string
	Text   string
	Rating *float64
	Date   string
	Author string
}

// FeedClient fetches App Store customer-review feeds.
type FeedClient struct {
	BaseURL string
	parser  *gofeed.Parser
}

// NewFeedClient creates a feed client. An empty baseURL selects DefaultBaseURL.
func NewFeedClient(baseURL string, httpClient *http.Client) *FeedClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = httpClient
	p.UserAgent = "reviewpulse/1.0"
	return &FeedClient{BaseURL: strings.TrimRight(baseURL, "/"), parser: p}
}

// PageURL builds the feed URL for one page of an app's most recent reviews.
func (fc *FeedClient) PageURL(country, appID string, page int) string {
	return fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/xml",
		fc.BaseURL, country, page, appID)
}

// FetchPage fetches and parses one feed page.
func (fc *FeedClient) FetchPage(ctx context.Context, country, appID string, page int) ([]FeedEntry, error) {
	feed, err := fc.parser.ParseURLWithContext(fc.PageURL(country, appID, page), ctx)
	if err != nil {
		return nil, err
	}
	return parseEntries(feed), nil
}

func parseEntries(feed *gofeed.Feed) []FeedEntry {
	var entries []FeedEntry
	for _, item := range feed.Items {
		if entry := parseItem(item); entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// parseItem maps a feed item to a review. Items without an im:rating
// element describe the app itself and are skipped.
func parseItem(item *gofeed.Item) *FeedEntry {
	ratingText, ok := extensionValue(item, "im", "rating")
	if !ok {
		return nil
	}

	entry := &FeedEntry{ID: item.GUID}
	var rating float64
	if _, err := fmt.Sscan(ratingText, &rating); err == nil {
		entry.Rating = &rating
	}

	if item.Content != "" {
		entry.Text = stripHTML(item.Content)
	} else if item.Description != "" {
		entry.Text = stripHTML(item.Description)
	}

	if item.Updated != "" {
		entry.Date = item.Updated
	} else if item.Published != "" {
		entry.Date = item.Published
	}

	if item.Author != nil {
		entry.Author = item.Author.Name
	} else if len(item.Authors) > 0 {
		entry.Author = item.Authors[0].Name
	}
	return entry
}

func extensionValue(item *gofeed.Item, prefix, name string) (string, bool) {
	ns, ok := item.Extensions[prefix]
	if !ok {
		return "", false
	}
	values := ns[name]
	if len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0].Value), true
}

// toRaw converts a feed entry into the ingestion record for bank.
func (e FeedEntry) toRaw(bank string) review.RawReview {
	return review.RawReview{
		Text:   e.Text,
		Rating: e.Rating,
		Date:   e.Date,
		Bank:   bank,
		Source: review.SourceAppStore,
	}
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}
