package domain

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to ArticleStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusPublished, true},
		{StatusRejected, StatusPublished, false},
		{StatusPending, StatusPublished, false},
		{StatusPublished, StatusApproved, false},
		{StatusApproved, StatusApproved, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseTargetStatus(t *testing.T) {
	t.Parallel()

	if s, err := ParseTargetStatus(" Approved "); err != nil || s != StatusApproved {
		t.Fatalf("expected approved, got %q (%v)", s, err)
	}

	for _, bad := range []string{"invalid", "pending", ""} {
		_, err := ParseTargetStatus(bad)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("ParseTargetStatus(%q): expected ErrInvalidStatus, got %v", bad, err)
		}
		if !IsValidation(err) {
			t.Fatalf("ParseTargetStatus(%q): expected validation error", bad)
		}
	}
}

func TestRelevanceAtLeast(t *testing.T) {
	t.Parallel()

	got := RelevanceAtLeast(2)
	if len(got) != 2 || got[0] != RelevanceMedium || got[1] != RelevanceHigh {
		t.Fatalf("unexpected tiers: %v", got)
	}
	if len(RelevanceAtLeast(0)) != 3 {
		t.Fatalf("min 0 should include every tier")
	}
	if len(RelevanceAtLeast(4)) != 0 {
		t.Fatalf("min 4 should include nothing")
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	if s, err := ParseSource("gacc"); err != nil || s != SourceGACC {
		t.Fatalf("expected GACC, got %q (%v)", s, err)
	}
	if _, err := ParseSource("EMA"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	got, err := CanonicalURL("HTTPS://WWW.FDA.gov/news-events/press/?utm_source=rss&id=7#top")
	if err != nil {
		t.Fatalf("CanonicalURL error: %v", err)
	}
	want := "https://www.fda.gov/news-events/press?id=7"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := CanonicalURL("/relative/path"); err == nil {
		t.Fatalf("expected error for relative url")
	}
	if _, err := CanonicalURL("  "); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestContentHashIgnoresWhitespaceAndCase(t *testing.T) {
	t.Parallel()

	a := ContentHash("FDA Warns  About Recall", "https://fda.gov/a")
	b := ContentHash("fda warns about recall ", "https://fda.gov/a")
	if a != b {
		t.Fatalf("expected equal hashes")
	}
	if a == ContentHash("fda warns about recall", "https://fda.gov/b") {
		t.Fatalf("expected url to change the hash")
	}
}

func TestRunReportTotals(t *testing.T) {
	t.Parallel()

	r := RunReport{Results: []SourceResult{
		{Source: SourceFDA, ArticlesFound: 4, ArticlesFiltered: 1},
		{Source: SourceGACC, ArticlesFound: 3, ArticlesFiltered: 2, StorageFailed: true},
	}}
	if r.TotalFound() != 7 || r.TotalFiltered() != 3 {
		t.Fatalf("unexpected totals %d/%d", r.TotalFound(), r.TotalFiltered())
	}
	if !r.StorageFailed() {
		t.Fatalf("expected storage failure flag")
	}
	if r.Result(SourceGACC).ArticlesFound != 3 {
		t.Fatalf("unexpected GACC result")
	}
}
