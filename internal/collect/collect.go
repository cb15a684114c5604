// Package collect pulls customer reviews for the configured banking apps.
package collect

import (
	"context"

	"github.com/hashicorp/go-set/v2"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// Result holds the results of a collection run.
type Result struct {
	Reviews []review.RawReview
	PerBank map[string]int
	Failed  []string
}

// Collector gathers reviews app by app.
type Collector struct {
	client *FeedClient
	apps   []config.App
	logger zerolog.Logger
}

// NewCollector creates a new review collector.
func NewCollector(apps []config.App, client *FeedClient, logger zerolog.Logger) *Collector {
	return &Collector{client: client, apps: apps, logger: logger}
}

// Collect fetches every configured app. An app that fails contributes no
// reviews and is listed in Result.Failed; the others are still collected.
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{Reviews: []review.RawReview{}, PerBank: make(map[string]int)}

	for _, app := range c.apps {
		if err := ctx.Err(); err != nil {
			c.logger.Warn().Err(err).Msg("Collection cancelled")
			break
		}

		rows, err := c.collectApp(ctx, app)
		if err != nil {
			c.logger.Error().Err(err).Str("bank", app.Bank).Str("app_id", app.AppID).Msg("Failed to collect reviews")
			r.Failed = append(r.Failed, app.Bank)
			continue
		}
		r.Reviews = append(r.Reviews, rows...)
		r.PerBank[app.Bank] += len(rows)
		c.logger.Info().Str("bank", app.Bank).Int("reviews", len(rows)).Msg("Collected reviews")
	}

	c.logger.Info().Int("reviews", len(r.Reviews)).Int("failed_apps", len(r.Failed)).Msg("Collection complete")
	return r
}

func (c *Collector) collectApp(ctx context.Context, app config.App) ([]review.RawReview, error) {
	country := app.Country
	if country == "" {
		country = "us"
	}
	pages := app.Pages
	if pages < 1 {
		pages = 1
	}
	if pages > maxPages {
		pages = maxPages
	}

	seen := set.New[string](50 * pages)
	var rows []review.RawReview
	for page := 1; page <= pages; page++ {
		entries, err := c.client.FetchPage(ctx, country, app.AppID, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			if e.ID != "" && !seen.Insert(e.ID) {
				continue
			}
			rows = append(rows, e.toRaw(app.Bank))
		}
		c.logger.Debug().Str("bank", app.Bank).Int("page", page).Int("entries", len(entries)).Msg("Fetched page")
	}
	return rows, nil
}
