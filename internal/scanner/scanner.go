package scanner

import (
	"context"
	"fmt"

	"RegulatoryScanner/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	Source   domain.Source
	URL      string
	MaxItems int
	Pages    int
	Options  map[string]string

	// RequestsPerSecond paces page fetches within one scan; <= 0 means unpaced.
	RequestsPerSecond float64
}

// Scanner captures a single listing strategy (FDA RSS, GACC HTML, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Limit trims candidates to req.MaxItems when a positive cap is set.
func Limit(candidates []domain.Candidate, max int) []domain.Candidate {
	if max > 0 && len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}
