package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/scanner"
)

const defaultGACCItemSelector = ".conList_ull li"

var (
	gaccDateExpr = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`)
	beijingTime  = time.FixedZone("CST", 8*60*60)
)

// GACCScanner walks customs.gov.cn announcement listings.
type GACCScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewGACCScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewGACCScanner(client *http.Client, userAgent string, logger *slog.Logger) *GACCScanner {
	return &GACCScanner{client: client, userAgent: userAgent, logger: logger}
}

// Name identifies the strategy inside the registry.
func (g *GACCScanner) Name() string {
	return "gacc"
}

// Scan reads up to req.Pages listing pages and stops once MaxItems candidates are collected.
func (g *GACCScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no listing url configured for %s", req.Source)
	}

	pages := req.Pages
	if pages <= 0 {
		pages = 1
	}
	selector := defaultGACCItemSelector
	if s := strings.TrimSpace(req.Options["itemSelector"]); s != "" {
		selector = s
	}

	fetcher := newPageFetcher(g.client, g.userAgent, req.RequestsPerSecond)
	seen := map[string]struct{}{}
	results := make([]domain.Candidate, 0)

	for page := 1; page <= pages; page++ {
		pageURL, err := buildListingPageURL(req.URL, page)
		if err != nil {
			return nil, err
		}

		doc, err := g.fetchDocument(ctx, fetcher, pageURL)
		if err != nil {
			if page > 1 && len(results) > 0 {
				g.debug("stop paging", "page", page, "error", err)
				break
			}
			return nil, err
		}

		base, _ := url.Parse(pageURL)
		pageItems := extractListing(doc, selector, base, req.Source)
		g.debug("gacc page parsed", "page", page, "items", len(pageItems))
		if len(pageItems) == 0 {
			break
		}

		for _, c := range pageItems {
			if _, ok := seen[c.ArticleURL]; ok {
				continue
			}
			seen[c.ArticleURL] = struct{}{}
			results = append(results, c)
		}

		if req.MaxItems > 0 && len(results) >= req.MaxItems {
			break
		}
	}

	return scanner.Limit(results, req.MaxItems), nil
}

func (g *GACCScanner) fetchDocument(ctx context.Context, fetcher *pageFetcher, pageURL string) (*goquery.Document, error) {
	body, err := fetcher.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func extractListing(doc *goquery.Document, selector string, base *url.URL, source domain.Source) []domain.Candidate {
	var collected []domain.Candidate

	doc.Find(selector).Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || strings.HasPrefix(strings.TrimSpace(href), "javascript:") {
			return
		}

		title := collapseSpace(link.AttrOr("title", ""))
		if title == "" {
			title = collapseSpace(link.Text())
		}
		if title == "" {
			return
		}

		resolved := strings.TrimSpace(href)
		if base != nil {
			if ref, err := url.Parse(resolved); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}

		var hints []string
		if column := collapseSpace(li.Find(".column, .lm").First().Text()); column != "" {
			hints = append(hints, column)
		}

		collected = append(collected, domain.Candidate{
			Source:              source,
			Title:               title,
			ArticleURL:          resolved,
			PublishedDate:       parseGACCDate(li.Find("span").Last().Text()),
			RawSummary:          title,
			SourceCategoryHints: hints,
		})
	})

	return collected
}

func parseGACCDate(text string) *time.Time {
	match := gaccDateExpr.FindString(text)
	if match == "" {
		return nil
	}
	parsed, err := time.ParseInLocation("2006-1-2", match, beijingTime)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// buildListingPageURL maps page N onto the index_N.html naming used by the listing.
func buildListingPageURL(base string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}
	if page <= 1 {
		return parsed.String(), nil
	}

	suffix := "_" + strconv.Itoa(page-1)
	switch {
	case strings.HasSuffix(parsed.Path, "/index.html"):
		parsed.Path = strings.TrimSuffix(parsed.Path, ".html") + suffix + ".html"
	case strings.HasSuffix(parsed.Path, "/"):
		parsed.Path += "index" + suffix + ".html"
	default:
		query := parsed.Query()
		query.Set("page", strconv.Itoa(page))
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (g *GACCScanner) debug(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
