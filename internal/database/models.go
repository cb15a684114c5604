package database

// Bank is a bank whose app reviews are stored.
type Bank struct {
	ID          int64
	Name        string
	AppID       *string
	ReviewCount int
	CreatedAt   *string
}

// StoredReview is an analyzed review as persisted.
type StoredReview struct {
	ID             int64
	Bank           string
	Text           string
	Rating         int
	Date           string
	Source         *string
	SentimentLabel *string
	SentimentScore *float64
	Keywords       []string
	Themes         []string
	RunID          *string
	InsertedAt     *string
}

// Run holds metadata about a pipeline run.
type Run struct {
	ID            string
	StartedAt     string
	FinishedAt    string
	RawCount      int
	CleanedCount  int
	AnalyzedCount int
	InsertedCount int
	LossPercent   float64
}

// SaveResult reports how many reviews a save inserted.
// Skipped rows already existed for the same bank and text.
type SaveResult struct {
	Inserted int
	Skipped  int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Banks   int
	Reviews int
	Labels  map[string]int
	PerBank map[string]int
	Runs    int
}
