package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/customerreviews.xml")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return string(data)
}

// feedServer serves the fixture for app 100 page 1, an empty feed for later
// pages and a 500 for any other app.
func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixture := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/id=100/") && strings.Contains(r.URL.Path, "/page=1/"):
			w.Write([]byte(fixture))
		case strings.Contains(r.URL.Path, "/id=100/"):
			w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseEntries(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(loadFixture(t))
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	entries := parseEntries(feed)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.ID != "900001" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Text != "Transfers are instant & the app never crashes." {
		t.Errorf("Text = %q", first.Text)
	}
	if first.Rating == nil || *first.Rating != 5 {
		t.Errorf("Rating = %v", first.Rating)
	}
	if first.Date != "2024-03-01T09:15:00-07:00" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Author != "alice" {
		t.Errorf("Author = %q", first.Author)
	}
	if *entries[1].Rating != 1 {
		t.Errorf("second rating = %v", *entries[1].Rating)
	}
}

func TestPageURL(t *testing.T) {
	fc := NewFeedClient("https://example.com/", nil)
	got := fc.PageURL("gb", "42", 3)
	want := "https://example.com/gb/rss/customerreviews/page=3/id=42/sortby=mostrecent/xml"
	if got != want {
		t.Errorf("PageURL = %q, want %q", got, want)
	}
	if NewFeedClient("", nil).BaseURL != DefaultBaseURL {
		t.Error("empty base URL should select the default")
	}
}

func TestCollect(t *testing.T) {
	srv := feedServer(t)
	apps := []config.App{
		{Bank: "Bank A", AppID: "100", Pages: 3},
		{Bank: "Bank B", AppID: "200", Country: "gb"},
	}
	c := NewCollector(apps, NewFeedClient(srv.URL, srv.Client()), zerolog.Nop())

	r := c.Collect(context.Background())

	if len(r.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(r.Reviews))
	}
	for _, rv := range r.Reviews {
		if rv.Bank != "Bank A" || rv.Source != review.SourceAppStore {
			t.Errorf("unexpected review %+v", rv)
		}
	}
	if r.PerBank["Bank A"] != 2 {
		t.Errorf("PerBank[Bank A] = %d", r.PerBank["Bank A"])
	}
	if len(r.Failed) != 1 || r.Failed[0] != "Bank B" {
		t.Errorf("Failed = %v", r.Failed)
	}
}

func TestCollectCancelled(t *testing.T) {
	srv := feedServer(t)
	c := NewCollector([]config.App{{Bank: "Bank A", AppID: "100"}}, NewFeedClient(srv.URL, srv.Client()), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := c.Collect(ctx)
	if len(r.Reviews) != 0 {
		t.Errorf("got %d reviews after cancel", len(r.Reviews))
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Great&nbsp;app</p>\n<b>fast</b> &quot;ok&quot;")
	if got != `Great app fast "ok"` {
		t.Errorf("stripHTML = %q", got)
	}
}
