package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

// Gate decides insert-or-skip for classified candidates; the storage constraint is authoritative.
type Gate struct {
	repo  ports.ArticleRepository
	now   func() time.Time
	newID func() string
}

// NewGate wires the repository used for both the pre-check and the insert.
func NewGate(repo ports.ArticleRepository) *Gate {
	return &Gate{repo: repo, now: time.Now, newID: uuid.NewString}
}

// NewArticle builds the pending row for candidate.
func (g *Gate) NewArticle(candidate domain.Candidate, cls domain.Classification) (domain.Article, error) {
	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return domain.Article{}, &domain.ValidationError{Field: "title", Err: domain.ErrMissingField}
	}
	canonical, err := domain.CanonicalURL(candidate.ArticleURL)
	if err != nil {
		return domain.Article{}, &domain.ValidationError{Field: "articleUrl", Err: err}
	}
	if !cls.Relevance.Valid() {
		cls = domain.DefaultClassification()
	}
	categories := cls.Categories
	if categories == nil {
		categories = []string{}
	}

	now := g.now().UTC()
	return domain.Article{
		ID:            g.newID(),
		Source:        candidate.Source,
		Title:         title,
		Summary:       strings.TrimSpace(candidate.RawSummary),
		ArticleURL:    canonical,
		ContentHash:   domain.ContentHash(title, canonical),
		PublishedDate: candidate.PublishedDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		Relevance:     cls.Relevance,
		Categories:    categories,
		Status:        domain.StatusPending,
		AIAnalysis:    cls.AIAnalysis,
	}, nil
}

// Admit inserts the candidate unless (source, articleUrl) is already stored.
// A duplicate returns inserted=false with a nil error.
func (g *Gate) Admit(ctx context.Context, candidate domain.Candidate, cls domain.Classification) (domain.Article, bool, error) {
	article, err := g.NewArticle(candidate, cls)
	if err != nil {
		return domain.Article{}, false, err
	}

	inserted, err := g.repo.InsertIfAbsent(ctx, article)
	if err != nil {
		return article, false, err
	}
	return article, inserted, nil
}

// Unseen drops candidates whose canonical URL is already stored for source.
// Candidates with unusable URLs are kept so Admit reports them.
func (g *Gate) Unseen(ctx context.Context, source domain.Source, candidates []domain.Candidate) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	canonical := make([]string, len(candidates))
	urls := make([]string, 0, len(candidates))
	for i, c := range candidates {
		u, err := domain.CanonicalURL(c.ArticleURL)
		if err != nil {
			continue
		}
		canonical[i] = u
		urls = append(urls, u)
	}

	known, err := g.repo.KnownURLs(ctx, source, urls)
	if err != nil {
		return candidates, err
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if canonical[i] != "" && known[canonical[i]] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
