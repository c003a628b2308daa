package ports

import (
	"context"
	"time"

	"RegulatoryScanner/internal/domain"
)

// CandidateSource pulls the most recent listing window of one regulator.
type CandidateSource interface {
	Fetch(ctx context.Context, source domain.Source) ([]domain.Candidate, error)
	Sources() []domain.Source
}

// Classifier labels a candidate with relevance and categories.
type Classifier interface {
	Classify(ctx context.Context, candidate domain.Candidate) (domain.Classification, error)
}

// Analyzer produces the optional aiAnalysis enrichment text.
type Analyzer interface {
	Analyze(ctx context.Context, candidate domain.Candidate, cls domain.Classification) (string, error)
}

// ArticleRepository persists articles and serves the admin and client read paths.
type ArticleRepository interface {
	KnownURLs(ctx context.Context, source domain.Source, urls []string) (map[string]bool, error)
	InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error)
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	TransitionStatus(ctx context.Context, id string, from []domain.ArticleStatus, to domain.ArticleStatus) error
	ListPublishedByCategories(ctx context.Context, categories []string, relevance []domain.Relevance, limit int) ([]domain.Article, error)
	UpdateClassification(ctx context.Context, id string, cls domain.Classification) error
}

// RegistrationRepository resolves the registration types held by a client.
type RegistrationRepository interface {
	RegistrationTypes(ctx context.Context, clientID string) ([]string, error)
}

// CategoryMapper turns client registration types into article categories.
type CategoryMapper interface {
	CategoriesForRegistrations(types []string) []string
}

// SessionResolver maps a client session token to a client id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RunLock guards against overlapping ingestion runs.
type RunLock interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// RunRecorder receives run-level measurements.
type RunRecorder interface {
	RecordRun(trigger string, report domain.RunReport, duration time.Duration, err error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
