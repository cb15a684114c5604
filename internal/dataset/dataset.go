// Package dataset reads and writes the pipeline's CSV artifacts.
//
// Raw and cleaned files share the columns review,rating,date,bank,source.
// Analyzed files append sentiment_label,sentiment_score,keywords,themes with
// the two lists stored as JSON arrays.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

var (
	baseColumns     = []string{"review", "rating", "date", "bank", "source"}
	analyzedColumns = append(append([]string{}, baseColumns...), "sentiment_label", "sentiment_score", "keywords", "themes")
)

// CSVSource reads raw reviews from a CSV file.
type CSVSource struct {
	Path string
}

// Raw returns the file's rows. A missing or unreadable file yields
// review.ErrInputNotFound. An unparsable rating is treated as absent.
func (s CSVSource) Raw() ([]review.RawReview, error) {
	rows, err := readRows(s.Path, baseColumns)
	if err != nil {
		return nil, err
	}
	out := make([]review.RawReview, 0, len(rows))
	for _, row := range rows {
		r := review.RawReview{
			Text:   row.get("review"),
			Date:   row.get("date"),
			Bank:   row.get("bank"),
			Source: row.get("source"),
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row.get("rating")), 64); err == nil {
			r.Rating = &v
		}
		out = append(out, r)
	}
	return out, nil
}

// WriteRaw writes raw reviews, e.g. freshly collected ones.
func WriteRaw(path string, reviews []review.RawReview) error {
	records := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rating := ""
		if r.Rating != nil {
			rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
		}
		records = append(records, []string{r.Text, rating, r.Date, r.Bank, r.Source})
	}
	return writeRows(path, baseColumns, records)
}

// WriteCleaned writes cleaned reviews.
func WriteCleaned(path string, reviews []review.CleanedReview) error {
	records := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		records = append(records, cleanedRecord(r))
	}
	return writeRows(path, baseColumns, records)
}

// ReadCleaned reads a file written by WriteCleaned.
func ReadCleaned(path string) ([]review.CleanedReview, error) {
	rows, err := readRows(path, baseColumns)
	if err != nil {
		return nil, err
	}
	out := make([]review.CleanedReview, 0, len(rows))
	for _, row := range rows {
		c, err := row.cleaned()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteAnalyzed writes analyzed reviews. Sentiment cells are left empty for
// reviews without sentiment.
func WriteAnalyzed(path string, reviews []review.AnalyzedReview) error {
	records := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		label, score := "", ""
		if r.Sentiment != nil {
			label = string(r.Sentiment.Label)
			score = strconv.FormatFloat(r.Sentiment.Score, 'f', -1, 64)
		}
		kws, err := marshalList(r.Keywords)
		if err != nil {
			return err
		}
		themes, err := marshalList(r.Themes)
		if err != nil {
			return err
		}
		records = append(records, append(cleanedRecord(r.CleanedReview), label, score, kws, themes))
	}
	return writeRows(path, analyzedColumns, records)
}

// ReadAnalyzed reads a file written by WriteAnalyzed.
func ReadAnalyzed(path string) ([]review.AnalyzedReview, error) {
	rows, err := readRows(path, analyzedColumns)
	if err != nil {
		return nil, err
	}
	out := make([]review.AnalyzedReview, 0, len(rows))
	for _, row := range rows {
		c, err := row.cleaned()
		if err != nil {
			return nil, err
		}
		a := review.AnalyzedReview{CleanedReview: c}

		if label := row.get("sentiment_label"); label != "" {
			score, err := strconv.ParseFloat(row.get("sentiment_score"), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: sentiment_score", row.line)
			}
			a.Sentiment = &review.Sentiment{Label: review.Label(label), Score: score}
		}
		if a.Keywords, err = unmarshalList(row.get("keywords")); err != nil {
			return nil, errors.Wrapf(err, "line %d: keywords", row.line)
		}
		if a.Themes, err = unmarshalList(row.get("themes")); err != nil {
			return nil, errors.Wrapf(err, "line %d: themes", row.line)
		}
		out = append(out, a)
	}
	return out, nil
}

func cleanedRecord(r review.CleanedReview) []string {
	return []string{r.Text, strconv.Itoa(r.Rating), r.Date, r.Bank, r.Source}
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", errors.Wrap(err, "encoding list")
	}
	return string(b), nil
}

func unmarshalList(s string) ([]string, error) {
	out := []string{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// row is one CSV record addressed by header name.
type row struct {
	line   int
	cols   map[string]int
	fields []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r row) cleaned() (review.CleanedReview, error) {
	rating, err := strconv.Atoi(strings.TrimSpace(r.get("rating")))
	if err != nil {
		return review.CleanedReview{}, errors.Wrapf(err, "line %d: rating", r.line)
	}
	return review.CleanedReview{
		Text:   r.get("review"),
		Rating: rating,
		Date:   r.get("date"),
		Bank:   r.get("bank"),
		Source: r.get("source"),
	}, nil
}

func readRows(path string, required []string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(review.ErrInputNotFound, "%s: %v", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Newf("%s: missing header", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errors.Newf("%s: missing column %q", path, name)
		}
	}

	rows := []row{}
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		rows = append(rows, row{line: line, cols: cols, fields: fields})
	}
	return rows, nil
}

func writeRows(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
