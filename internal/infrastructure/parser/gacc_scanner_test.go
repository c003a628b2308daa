package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/scanner"
)

const gaccPageOne = `
<html><body>
<div class="conList_ul">
  <ul class="conList_ull">
    <li><a href="/customs/302249/302274/6001/index.html" title="关于进口食品境外生产企业注册的公告">关于进口食品...</a><span>2024-10-08</span></li>
    <li><a href="http://www.customs.gov.cn/customs/302249/302274/6002/index.html">海关总署关于化妆品检验的通知</a><span>[2024-10-07]</span></li>
    <li><a href="javascript:void(0)">ignored</a><span>2024-10-06</span></li>
  </ul>
</div>
</body></html>`

const gaccPageTwo = `
<html><body>
<ul class="conList_ull">
  <li><a href="/customs/302249/302274/6003/index.html" title="医疗器械进口监管">医疗器械进口监管</a><span>2024-10-01</span></li>
  <li><a href="/customs/302249/302274/6001/index.html" title="duplicate">duplicate</a><span>2024-10-08</span></li>
</ul>
</body></html>`

func TestBuildListingPageURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base string
		page int
		want string
	}{
		{"http://www.customs.gov.cn/list/index.html", 1, "http://www.customs.gov.cn/list/index.html"},
		{"http://www.customs.gov.cn/list/index.html", 2, "http://www.customs.gov.cn/list/index_1.html"},
		{"http://www.customs.gov.cn/list/", 3, "http://www.customs.gov.cn/list/index_2.html"},
		{"http://www.customs.gov.cn/list", 2, "http://www.customs.gov.cn/list?page=2"},
	}

	for _, tc := range cases {
		got, err := buildListingPageURL(tc.base, tc.page)
		if err != nil {
			t.Fatalf("buildListingPageURL(%s, %d) error: %v", tc.base, tc.page, err)
		}
		if got != tc.want {
			t.Fatalf("buildListingPageURL(%s, %d) = %s, want %s", tc.base, tc.page, got, tc.want)
		}
	}
}

func TestExtractListing(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(gaccPageOne))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	items := extractListing(doc, defaultGACCItemSelector, mustParseURL(t, "http://www.customs.gov.cn/list/index.html"), domain.SourceGACC)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0].Title != "关于进口食品境外生产企业注册的公告" {
		t.Fatalf("expected title attribute to win, got %q", items[0].Title)
	}
	if items[0].ArticleURL != "http://www.customs.gov.cn/customs/302249/302274/6001/index.html" {
		t.Fatalf("unexpected resolved url: %s", items[0].ArticleURL)
	}

	want := time.Date(2024, time.October, 7, 16, 0, 0, 0, time.UTC)
	if items[0].PublishedDate == nil || !items[0].PublishedDate.Equal(want) {
		t.Fatalf("unexpected date: %v", items[0].PublishedDate)
	}
	if items[1].PublishedDate == nil {
		t.Fatalf("expected bracketed date to parse")
	}
}

func TestGACCScannerScanPages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/list/index.html":
			_, _ = w.Write([]byte(gaccPageOne))
		case "/list/index_1.html":
			_, _ = w.Write([]byte(gaccPageTwo))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	sc := NewGACCScanner(server.Client(), "", nil)
	candidates, err := sc.Scan(context.Background(), scanner.Request{
		Source: domain.SourceGACC,
		URL:    server.URL + "/list/index.html",
		Pages:  3,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(candidates))
	}
	if !strings.HasSuffix(candidates[2].ArticleURL, "/customs/302249/302274/6003/index.html") {
		t.Fatalf("unexpected third url: %s", candidates[2].ArticleURL)
	}
}

func TestGACCScannerFirstPageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	sc := NewGACCScanner(server.Client(), "", nil)
	if _, err := sc.Scan(context.Background(), scanner.Request{Source: domain.SourceGACC, URL: server.URL + "/index.html"}); err == nil {
		t.Fatalf("expected error for blocked first page")
	}
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url %s: %v", raw, err)
	}
	return u
}
