package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies an upstream regulator feed.
type Source string

const (
	SourceFDA  Source = "FDA"
	SourceGACC Source = "GACC"
)

// AllSources lists every source the crawler knows, in report order.
var AllSources = []Source{SourceFDA, SourceGACC}

// ParseSource accepts a case-insensitive source name.
func ParseSource(value string) (Source, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(SourceFDA):
		return SourceFDA, nil
	case string(SourceGACC):
		return SourceGACC, nil
	default:
		return "", &ValidationError{Field: "source", Err: fmt.Errorf("%w: %q", ErrInvalidSource, value)}
	}
}

// Relevance is the coarse ordinal used for client-facing filtering.
type Relevance string

const (
	RelevanceLow    Relevance = "low"
	RelevanceMedium Relevance = "medium"
	RelevanceHigh   Relevance = "high"
)

// Level maps the tier onto its numeric ordinal (low=1 .. high=3, unknown=0).
func (r Relevance) Level() int {
	switch r {
	case RelevanceLow:
		return 1
	case RelevanceMedium:
		return 2
	case RelevanceHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known tiers.
func (r Relevance) Valid() bool {
	return r.Level() > 0
}

// RelevanceAtLeast returns every tier whose level is >= min.
func RelevanceAtLeast(min int) []Relevance {
	out := make([]Relevance, 0, 3)
	for _, r := range []Relevance{RelevanceLow, RelevanceMedium, RelevanceHigh} {
		if r.Level() >= min {
			out = append(out, r)
		}
	}
	return out
}

// ArticleStatus is the moderation lifecycle of a stored article.
type ArticleStatus string

const (
	StatusPending   ArticleStatus = "pending"
	StatusApproved  ArticleStatus = "approved"
	StatusRejected  ArticleStatus = "rejected"
	StatusPublished ArticleStatus = "published"
)

// ParseStatus accepts any lifecycle value; used by read filters.
func ParseStatus(value string) (ArticleStatus, error) {
	s := ArticleStatus(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return s, nil
	default:
		return "", &ValidationError{Field: "status", Err: fmt.Errorf("%w: %q", ErrInvalidStatus, value)}
	}
}

// ParseTargetStatus accepts only values an admin may move an article to.
func ParseTargetStatus(value string) (ArticleStatus, error) {
	s, err := ParseStatus(value)
	if err != nil {
		return "", err
	}
	if s == StatusPending {
		return "", &ValidationError{Field: "status", Err: fmt.Errorf("%w: %q", ErrInvalidStatus, value)}
	}
	return s, nil
}

// transitions lists the allowed predecessors for every target status.
var transitions = map[ArticleStatus][]ArticleStatus{
	StatusApproved:  {StatusPending},
	StatusRejected:  {StatusPending},
	StatusPublished: {StatusApproved},
}

// AllowedFrom returns the statuses an article may be in before moving to target.
func AllowedFrom(target ArticleStatus) []ArticleStatus {
	return transitions[target]
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to ArticleStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Article is a stored regulatory news item.
type Article struct {
	ID            string        `json:"id"`
	Source        Source        `json:"source"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary"`
	ArticleURL    string        `json:"articleUrl"`
	ContentHash   string        `json:"contentHash,omitempty"`
	PublishedDate *time.Time    `json:"publishedDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Relevance     Relevance     `json:"relevance"`
	Categories    []string      `json:"categories"`
	Status        ArticleStatus `json:"status"`
	AIAnalysis    string        `json:"aiAnalysis,omitempty"`
}

// Candidate is a parsed listing item before classification and dedup.
type Candidate struct {
	Source              Source
	Title               string
	ArticleURL          string
	PublishedDate       *time.Time
	RawSummary          string
	SourceCategoryHints []string
}

// Classification is the classifier output attached to a candidate.
type Classification struct {
	Relevance  Relevance `json:"relevance"`
	Categories []string  `json:"categories"`
	AIAnalysis string    `json:"aiAnalysis,omitempty"`
}

// DefaultClassification is applied whenever classification fails.
func DefaultClassification() Classification {
	return Classification{Relevance: RelevanceLow, Categories: []string{}}
}

// ArticleFilter narrows the admin listing.
type ArticleFilter struct {
	Source       Source
	Status       ArticleStatus
	MinRelevance int
	Limit        int
}
