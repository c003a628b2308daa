package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	RelevantNewsCap  = 50
)

// ArticleServiceDeps wires the query layer.
type ArticleServiceDeps struct {
	Repository    ports.ArticleRepository
	Registrations ports.RegistrationRepository
	Categories    ports.CategoryMapper
	Classifier    ports.Classifier
	Analyzer      ports.Analyzer
	Logger        *slog.Logger
}

// ArticleService serves admin listing and moderation plus the client news view.
type ArticleService struct {
	repo          ports.ArticleRepository
	registrations ports.RegistrationRepository
	categories    ports.CategoryMapper
	classifier    ports.Classifier
	analyzer      ports.Analyzer
	logger        *slog.Logger
}

// NewArticleService builds the query layer.
func NewArticleService(deps ArticleServiceDeps) *ArticleService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleService{
		repo:          deps.Repository,
		registrations: deps.Registrations,
		categories:    deps.Categories,
		classifier:    deps.Classifier,
		analyzer:      deps.Analyzer,
		logger:        logger,
	}
}

// ParseFilter validates raw query values. minRelevance accepts 1..3 or a tier name.
func ParseFilter(source, status, minRelevance, limit string) (domain.ArticleFilter, error) {
	var filter domain.ArticleFilter

	if strings.TrimSpace(source) != "" {
		s, err := domain.ParseSource(source)
		if err != nil {
			return filter, err
		}
		filter.Source = s
	}

	if strings.TrimSpace(status) != "" {
		s, err := domain.ParseStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = s
	}

	if v := strings.TrimSpace(minRelevance); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			level = domain.Relevance(strings.ToLower(v)).Level()
		}
		if level < 1 || level > 3 {
			return filter, &domain.ValidationError{Field: "minRelevance", Err: fmt.Errorf("%w: %q", domain.ErrInvalidRelevance, minRelevance)}
		}
		filter.MinRelevance = level
	}

	if v := strings.TrimSpace(limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, &domain.ValidationError{Field: "limit", Err: fmt.Errorf("%w: %q", domain.ErrInvalidLimit, limit)}
		}
		filter.Limit = n
	}

	return filter, nil
}

// List returns newest-first articles; limit defaults to 50 and is capped at 200.
func (s *ArticleService) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	if filter.MinRelevance < 0 || filter.MinRelevance > 3 {
		return nil, &domain.ValidationError{Field: "minRelevance", Err: domain.ErrInvalidRelevance}
	}
	return s.repo.List(ctx, filter)
}

// Get loads one article.
func (s *ArticleService) Get(ctx context.Context, id string) (domain.Article, error) {
	id, err := parseID(id)
	if err != nil {
		return domain.Article{}, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateStatus validates target and applies it only from an allowed predecessor.
func (s *ArticleService) UpdateStatus(ctx context.Context, id, status string) (domain.ArticleStatus, error) {
	id, err := parseID(id)
	if err != nil {
		return "", err
	}
	target, err := domain.ParseTargetStatus(status)
	if err != nil {
		return "", err
	}

	if err := s.repo.TransitionStatus(ctx, id, domain.AllowedFrom(target), target); err != nil {
		return "", err
	}
	s.logger.Info("article status updated", "id", id, "status", target)
	return target, nil
}

// RelevantNews lists published medium/high articles matching the client's registrations.
func (s *ArticleService) RelevantNews(ctx context.Context, clientID string) ([]domain.Article, error) {
	if s.registrations == nil || s.categories == nil {
		return []domain.Article{}, nil
	}

	types, err := s.registrations.RegistrationTypes(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.NewsForCategories(ctx, s.categories.CategoriesForRegistrations(types))
}

// NewsForCategories is RelevantNews once categories are known.
func (s *ArticleService) NewsForCategories(ctx context.Context, categories []string) ([]domain.Article, error) {
	if len(categories) == 0 {
		return []domain.Article{}, nil
	}
	return s.repo.ListPublishedByCategories(ctx, categories,
		[]domain.Relevance{domain.RelevanceMedium, domain.RelevanceHigh}, RelevantNewsCap)
}

// Reclassify reruns the classifier on a stored article and persists the new labels.
func (s *ArticleService) Reclassify(ctx context.Context, id string) (domain.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	if s.classifier == nil {
		return domain.Article{}, &domain.ClassificationError{Err: fmt.Errorf("no classifier configured")}
	}

	candidate := domain.Candidate{
		Source:        article.Source,
		Title:         article.Title,
		ArticleURL:    article.ArticleURL,
		PublishedDate: article.PublishedDate,
		RawSummary:    article.Summary,
	}
	cls, err := s.classifier.Classify(ctx, candidate)
	if err != nil {
		return domain.Article{}, err
	}

	if s.analyzer != nil && cls.AIAnalysis == "" && cls.Relevance != domain.RelevanceLow {
		if note, err := s.analyzer.Analyze(ctx, candidate, cls); err != nil {
			s.logger.Warn("ai analysis failed", "id", article.ID, "error", err)
		} else {
			cls.AIAnalysis = note
		}
	}

	if err := s.repo.UpdateClassification(ctx, article.ID, cls); err != nil {
		return domain.Article{}, err
	}
	s.logger.Info("article reclassified", "id", article.ID, "relevance", cls.Relevance, "categories", cls.Categories)
	return s.repo.Get(ctx, article.ID)
}

func parseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &domain.ValidationError{Field: "articleId", Err: domain.ErrMissingField}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", &domain.ValidationError{Field: "articleId", Err: fmt.Errorf("%w: %q", domain.ErrInvalidID, id)}
	}
	return parsed.String(), nil
}
