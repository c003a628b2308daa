package scanner

import (
	"context"
	"testing"

	"RegulatoryScanner/internal/domain"
)

type stubScanner struct{ name string }

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(context.Context, Request) ([]domain.Candidate, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubScanner{name: "fda"})

	if _, err := reg.Resolve("fda"); err != nil {
		t.Fatalf("expected fda scanner, got %v", err)
	}
	if _, err := reg.Resolve("ema"); err == nil {
		t.Fatalf("expected error for unregistered scanner")
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	items := make([]domain.Candidate, 5)
	if got := Limit(items, 3); len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got := Limit(items, 0); len(got) != 5 {
		t.Fatalf("expected untouched slice, got %d", len(got))
	}
}
