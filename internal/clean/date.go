package clean

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical calendar-date layout of cleaned reviews.
const DateLayout = "2006-01-02"

// NormalizeDate parses a free-form date string and returns it as YYYY-MM-DD.
// Slash dates are read month first; when that fails they are retried day
// first, so 31/12/2023 is accepted. ok is false for blank or unparseable
// input; it never returns an error.
func NormalizeDate(s string) (date string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// dateparse can panic on some malformed inputs.
	defer func() {
		if recover() != nil {
			date, ok = "", false
		}
	}()

	t, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}
