package parser

import (
	"context"
	"fmt"
	"log/slog"

	"RegulatoryScanner/internal/config"
	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
	"RegulatoryScanner/internal/scanner"
)

// StrategySource implements CandidateSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.CandidateSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// Sources lists configured sources that map onto a known domain source.
func (s *StrategySource) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(s.sources))
	for _, src := range s.sources {
		if parsed, err := domain.ParseSource(src.Name); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}

// Fetch runs the scanner configured for source and stamps the source on every candidate.
func (s *StrategySource) Fetch(ctx context.Context, source domain.Source) ([]domain.Candidate, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	site, ok := s.lookup(source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
	}

	s.debug("process source", "source", source, "scanner", site.Scanner, "url", site.URL)
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: source, Err: err}
	}

	req := scanner.Request{
		Source:            source,
		URL:               site.URL,
		MaxItems:          site.MaxItems,
		Pages:             site.Pages,
		Options:           site.Options,
		RequestsPerSecond: site.RequestsPerSecond,
	}

	results, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: source, Err: err}
	}

	for i := range results {
		results[i].Source = source
	}
	s.debug("source produced candidates", "source", source, "count", len(results))
	return results, nil
}

func (s *StrategySource) lookup(source domain.Source) (config.SourceConfig, bool) {
	for _, site := range s.sources {
		if parsed, err := domain.ParseSource(site.Name); err == nil && parsed == source {
			return site, true
		}
	}
	return config.SourceConfig{}, false
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
