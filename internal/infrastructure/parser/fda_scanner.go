package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/scanner"
)

// FDAScanner reads the FDA press-release feed (RSS or Atom).
type FDAScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewFDAScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewFDAScanner(client *http.Client, userAgent string, logger *slog.Logger) *FDAScanner {
	return &FDAScanner{client: client, userAgent: userAgent, logger: logger}
}

// Name identifies the strategy inside the registry.
func (f *FDAScanner) Name() string {
	return "fda"
}

// Scan downloads the feed once and converts its items into candidates.
func (f *FDAScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no feed url configured for %s", req.Source)
	}

	fetcher := newPageFetcher(f.client, f.userAgent, req.RequestsPerSecond)
	body, err := fetcher.get(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	seen := map[string]struct{}{}
	results := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		candidate, ok := parseFeedItem(item, req.Source)
		if !ok {
			f.debug("skip feed item", "title", item.Title)
			continue
		}
		if _, dup := seen[candidate.ArticleURL]; dup {
			continue
		}
		seen[candidate.ArticleURL] = struct{}{}
		results = append(results, candidate)
	}

	f.debug("fda feed parsed", "type", feed.FeedType, "items", len(feed.Items), "candidates", len(results))
	return scanner.Limit(results, req.MaxItems), nil
}

func parseFeedItem(item *gofeed.Item, source domain.Source) (domain.Candidate, bool) {
	if item == nil {
		return domain.Candidate{}, false
	}
	title := collapseSpace(item.Title)
	link := itemLink(item)
	if title == "" || link == "" {
		return domain.Candidate{}, false
	}

	hints := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c = collapseSpace(c); c != "" {
			hints = append(hints, c)
		}
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	return domain.Candidate{
		Source:              source,
		Title:               title,
		ArticleURL:          link,
		PublishedDate:       itemDate(item),
		RawSummary:          htmlToText(summary),
		SourceCategoryHints: hints,
	}, true
}

// itemLink prefers the explicit link and falls back to a GUID that looks like a URL.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, "http") {
		return guid
	}
	return ""
}

func itemDate(item *gofeed.Item) *time.Time {
	parsed := item.PublishedParsed
	if parsed == nil {
		parsed = item.UpdatedParsed
	}
	if parsed == nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// htmlToText flattens an HTML fragment to its visible text.
func htmlToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (f *FDAScanner) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
