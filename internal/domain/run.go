package domain

import "time"

// SourceResult is the per-source slice of a run summary.
type SourceResult struct {
	Source           Source `json:"source"`
	ArticlesFound    int    `json:"articlesFound"`
	ArticlesFiltered int    `json:"articlesFiltered"`
	Error            string `json:"error,omitempty"`

	// StorageFailed marks results where at least one insert hit the database error path.
	StorageFailed bool `json:"-"`
	// Admitted holds the articles inserted by this run, for digests.
	Admitted []Article `json:"-"`
}

// RunReport aggregates one ingestion invocation.
type RunReport struct {
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Results    []SourceResult `json:"results"`
}

// TotalFound sums articlesFound over all sources.
func (r RunReport) TotalFound() int {
	total := 0
	for _, res := range r.Results {
		total += res.ArticlesFound
	}
	return total
}

// TotalFiltered sums articlesFiltered over all sources.
func (r RunReport) TotalFiltered() int {
	total := 0
	for _, res := range r.Results {
		total += res.ArticlesFiltered
	}
	return total
}

// Result returns the entry for source, or a zero result when absent.
func (r RunReport) Result(source Source) SourceResult {
	for _, res := range r.Results {
		if res.Source == source {
			return res
		}
	}
	return SourceResult{Source: source}
}

// StorageFailed reports whether any source recorded a persistence error.
func (r RunReport) StorageFailed() bool {
	for _, res := range r.Results {
		if res.StorageFailed {
			return true
		}
	}
	return false
}
