package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"RegulatoryScanner/internal/domain"
)

// memRepo mimics the Postgres constraints: unique (source, article_url) and guarded transitions.
type memRepo struct {
	mu       sync.Mutex
	articles map[string]domain.Article
	keys     map[string]string

	insertErr func(domain.Article) error
	knownErr  error
	inserts   int
	lastList  domain.ArticleFilter
}

func newMemRepo() *memRepo {
	return &memRepo{articles: map[string]domain.Article{}, keys: map[string]string{}}
}

func dedupKey(source domain.Source, url string) string { return string(source) + "|" + url }

func (m *memRepo) seed(articles ...domain.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range articles {
		m.articles[a.ID] = a
		m.keys[dedupKey(a.Source, a.ArticleURL)] = a.ID
	}
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articles)
}

func (m *memRepo) KnownURLs(_ context.Context, source domain.Source, urls []string) (map[string]bool, error) {
	if m.knownErr != nil {
		return nil, m.knownErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]bool{}
	for _, u := range urls {
		if _, ok := m.keys[dedupKey(source, u)]; ok {
			out[u] = true
		}
	}
	return out, nil
}

func (m *memRepo) InsertIfAbsent(_ context.Context, a domain.Article) (bool, error) {
	if m.insertErr != nil {
		if err := m.insertErr(a); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	key := dedupKey(a.Source, a.ArticleURL)
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = a.ID
	m.articles[a.ID] = a
	return true, nil
}

func (m *memRepo) List(_ context.Context, f domain.ArticleFilter) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f

	allowed := domain.RelevanceAtLeast(f.MinRelevance)
	var out []domain.Article
	for _, a := range m.articles {
		if f.Source != "" && a.Source != f.Source {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !slices.Contains(allowed, a.Relevance) {
			continue
		}
		out = append(out, a)
	}
	sortNewest(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return a, nil
}

func (m *memRepo) TransitionStatus(_ context.Context, id string, from []domain.ArticleStatus, to domain.ArticleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if !slices.Contains(from, a.Status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	m.articles[id] = a
	return nil
}

func (m *memRepo) ListPublishedByCategories(_ context.Context, categories []string, relevance []domain.Relevance, limit int) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Article
	for _, a := range m.articles {
		if a.Status != domain.StatusPublished || !slices.Contains(relevance, a.Relevance) {
			continue
		}
		if !overlaps(a.Categories, categories) {
			continue
		}
		out = append(out, a)
	}
	sortNewest(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateClassification(_ context.Context, id string, cls domain.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	a.Relevance = cls.Relevance
	a.Categories = cls.Categories
	a.AIAnalysis = cls.AIAnalysis
	m.articles[id] = a
	return nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

func sortNewest(articles []domain.Article) {
	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].CreatedAt.Equal(articles[j].CreatedAt) {
			return articles[i].CreatedAt.After(articles[j].CreatedAt)
		}
		return articles[i].ID > articles[j].ID
	})
}

type fetchFunc func(ctx context.Context) ([]domain.Candidate, error)

type stubSource struct {
	mu    sync.Mutex
	fetch map[domain.Source]fetchFunc
	calls map[domain.Source]int
}

func newStubSource(fetch map[domain.Source]fetchFunc) *stubSource {
	return &stubSource{fetch: fetch, calls: map[domain.Source]int{}}
}

func (s *stubSource) Sources() []domain.Source { return domain.AllSources }

func (s *stubSource) Fetch(ctx context.Context, source domain.Source) ([]domain.Candidate, error) {
	s.mu.Lock()
	s.calls[source]++
	fn, ok := s.fetch[source]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrUnknownSource
	}
	return fn(ctx)
}

func (s *stubSource) callCount(source domain.Source) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[source]
}

func static(candidates ...domain.Candidate) fetchFunc {
	return func(context.Context) ([]domain.Candidate, error) {
		return append([]domain.Candidate(nil), candidates...), nil
	}
}

type stubClassifier struct {
	cls domain.Classification
	err error
}

func (s stubClassifier) Classify(context.Context, domain.Candidate) (domain.Classification, error) {
	return s.cls, s.err
}

type stubAnalyzer struct {
	note string
	err  error
}

func (s stubAnalyzer) Analyze(context.Context, domain.Candidate, domain.Classification) (string, error) {
	return s.note, s.err
}

type stubLock struct {
	err      error
	released int
	mu       sync.Mutex
}

func (l *stubLock) TryAcquire(context.Context) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return nil
}

type recordingRecorder struct {
	mu       sync.Mutex
	triggers []string
	errs     []error
}

func (r *recordingRecorder) RecordRun(trigger string, _ domain.RunReport, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	r.errs = append(r.errs, err)
}

type stubRegistrations struct {
	types []string
	err   error
}

func (s stubRegistrations) RegistrationTypes(context.Context, string) ([]string, error) {
	return s.types, s.err
}
