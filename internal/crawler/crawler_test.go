package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCrawlerConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		UserAgent:      "minisearch-test",
		RequestTimeout: 2 * time.Second,
		Concurrency:    4,
		RetryAttempts:  0,
	}
}

// newSite serves a small link graph:
//
//	/  -> /a, /b
//	/a -> /, /c
//	/b -> /a, /d
//	/c -> /e
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/":  `<a href="/a">alpha</a><a href="/b#top">bravo</a>`,
		"/a": `<p>first page</p><a href="/">home</a><a href="c">charlie</a>`,
		"/b": `<p>second page</p><a href="/a">alpha</a><a href="/d">delta</a>`,
		"/c": `<p>third page</p><a href="/e">echo</a>`,
		"/d": `<p>fourth page</p>`,
		"/e": `<p>fifth page</p>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParsePageSkipsHiddenText(t *testing.T) {
	doc := `<html><head><title>Home Title</title><style>.x{color:red}</style></head>` +
		`<body><p>Welcome home, seed!</p><a href="/a">A</a><a href="/b#frag">B</a>` +
		`<a href="mailto:x@example.com">m</a><a href="/a">again</a><script>var hidden = 1</script></body></html>`
	base, _ := url.Parse("http://example.test/dir/")

	p, err := parsePage(strings.NewReader(doc), base, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome", "home", "seed", "A", "B", "m", "again"}, p.words)
	assert.Equal(t, []string{"http://example.test/a", "http://example.test/b"}, p.links)
}

func TestParsePageKeepsStrayHeadText(t *testing.T) {
	// The parser moves text found in head into body; a title after it stays hidden.
	doc := `<html><head>stray words<title>Hidden Title</title></head><body>body text</body></html>`
	base, _ := url.Parse("http://example.test/")

	p, err := parsePage(strings.NewReader(doc), base, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"stray", "words", "body", "text"}, p.words)
}

func TestParsePageFilterMatchesRawHref(t *testing.T) {
	doc := `<a href="/wiki/Go">go</a><a href="/about">about</a><a href="https://other.test/wiki/x">x</a>`
	base, _ := url.Parse("http://example.test/")

	p, err := parsePage(strings.NewReader(doc), base, regexp.MustCompile(`^/wiki/`))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.test/wiki/Go"}, p.links)
}

func TestResolveLink(t *testing.T) {
	base, _ := url.Parse("http://example.test/dir/page")
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"other", "http://example.test/dir/other", true},
		{"/root#frag", "http://example.test/root", true},
		{"https://x.test/y", "https://x.test/y", true},
		{"javascript:void(0)", "", false},
		{"ftp://x.test/file", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.href, func(t *testing.T) {
			got, ok := resolveLink(base, tc.href)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFetchTokens(t *testing.T) {
	srv := newSite(t)
	f := NewFetcher(testCrawlerConfig(), srv.Client(), nil)

	assert.Equal(t, []string{"first", "page", "home", "charlie"}, f.FetchTokens(context.Background(), srv.URL+"/a"))

	missing := f.FetchTokens(context.Background(), srv.URL+"/missing")
	assert.NotNil(t, missing)
	assert.Empty(t, missing)

	assert.Empty(t, f.FetchTokens(context.Background(), "://not a url"))
}

func TestFetchSendsUserAgentAndRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "<p>recovered text</p>")
	}))
	defer srv.Close()

	cfg := testCrawlerConfig()
	cfg.RetryAttempts = 1
	f := NewFetcher(cfg, srv.Client(), nil)

	assert.Equal(t, []string{"recovered", "text"}, f.FetchTokens(context.Background(), srv.URL))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "minisearch-test", agent.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testCrawlerConfig()
	cfg.RetryAttempts = 3
	f := NewFetcher(cfg, srv.Client(), nil)

	assert.Empty(t, f.FetchTokens(context.Background(), srv.URL))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDiscoverDepth(t *testing.T) {
	srv := newSite(t)
	root := srv.URL + "/"
	f := NewFetcher(testCrawlerConfig(), srv.Client(), nil)

	tests := []struct {
		depth int
		want  []string
	}{
		{0, []string{"/"}},
		{1, []string{"/", "/a", "/b"}},
		{2, []string{"/", "/a", "/b", "/c", "/d"}},
		{3, []string{"/", "/a", "/b", "/c", "/d", "/e"}},
		{10, []string{"/", "/a", "/b", "/c", "/d", "/e"}},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("depth=%d", tc.depth), func(t *testing.T) {
			got := f.Discover(context.Background(), root, tc.depth, nil)
			assert.Equal(t, absolute(srv.URL, tc.want), got)
		})
	}
}

func TestDiscoverFilter(t *testing.T) {
	srv := newSite(t)
	f := NewFetcher(testCrawlerConfig(), srv.Client(), nil)

	got := f.Discover(context.Background(), srv.URL+"/", 3, regexp.MustCompile(`^/a$`))
	assert.Equal(t, absolute(srv.URL, []string{"/", "/a"}), got)
}

func TestDiscoverMaxPages(t *testing.T) {
	srv := newSite(t)
	cfg := testCrawlerConfig()
	cfg.MaxPages = 2
	f := NewFetcher(cfg, srv.Client(), nil)

	got := f.Discover(context.Background(), srv.URL+"/", 5, nil)
	assert.Equal(t, absolute(srv.URL, []string{"/", "/a"}), got)
}

func TestDiscoverUnreachableSeed(t *testing.T) {
	srv := newSite(t)
	f := NewFetcher(testCrawlerConfig(), srv.Client(), nil)

	got := f.Discover(context.Background(), srv.URL+"/missing", 2, nil)
	assert.Equal(t, []string{srv.URL + "/missing"}, got)
	assert.Empty(t, f.Discover(context.Background(), "not-a-url", 2, nil))
}

type recordingSink struct {
	ids   []string
	words [][]string
	err   error
}

func (s *recordingSink) Ingest(_ context.Context, docID string, words []string) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, docID)
	s.words = append(s.words, words)
	return nil
}

type memoryLedger struct {
	mu       sync.Mutex
	statuses map[string]string
}

func (l *memoryLedger) Record(_ context.Context, locator, status string, _ int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses[locator] = status
	return nil
}

func TestCrawlIngestsInDiscoveryOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<p>seed words</p><a href="/slow">s</a><a href="/fast">f</a><a href="/gone">g</a><a href="/blank">b</a>`)
		case "/slow":
			time.Sleep(50 * time.Millisecond)
			fmt.Fprint(w, `<p>slow page</p>`)
		case "/fast":
			fmt.Fprint(w, `<p>fast page</p>`)
		case "/blank":
			fmt.Fprint(w, `<script>only script</script>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testCrawlerConfig()
	cfg.Depth = 1
	ledger := &memoryLedger{statuses: map[string]string{}}
	c, err := New(cfg, NewFetcher(cfg, srv.Client(), nil), ledger)
	require.NoError(t, err)

	sink := &recordingSink{}
	summary, err := c.Crawl(context.Background(), srv.URL+"/", sink)
	require.NoError(t, err)

	assert.Equal(t, absolute(srv.URL, []string{"/", "/slow", "/fast", "/gone", "/blank"}), sink.ids)
	assert.Equal(t, []string{"seed", "words", "s", "f", "g", "b"}, sink.words[0])
	assert.Equal(t, []string{"slow", "page"}, sink.words[1])
	assert.Empty(t, sink.words[3])
	assert.Empty(t, sink.words[4])

	assert.Equal(t, 5, summary.Discovered)
	assert.Equal(t, 5, summary.Ingested)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 10, summary.Words)
	assert.NotEmpty(t, summary.TraceID)

	assert.Equal(t, StatusFetched, ledger.statuses[srv.URL+"/fast"])
	assert.Equal(t, StatusFailed, ledger.statuses[srv.URL+"/gone"])
	assert.Equal(t, StatusEmpty, ledger.statuses[srv.URL+"/blank"])
}

func TestCrawlFetchesEachPageOnce(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	site := newSite(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		site.Config.Handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	cfg := testCrawlerConfig()
	cfg.Depth = 2
	ledger := &memoryLedger{statuses: map[string]string{}}
	c, err := New(cfg, NewFetcher(cfg, srv.Client(), nil), ledger)
	require.NoError(t, err)

	sink := &recordingSink{}
	summary, err := c.Crawl(context.Background(), srv.URL+"/", sink)
	require.NoError(t, err)

	assert.Equal(t, absolute(srv.URL, []string{"/", "/a", "/b", "/c", "/d"}), sink.ids)
	assert.Equal(t, []string{"first", "page", "home", "charlie"}, sink.words[1])
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, map[string]int{"/": 1, "/a": 1, "/b": 1, "/c": 1, "/d": 1}, hits)
	assert.Len(t, ledger.statuses, 5)
	assert.Equal(t, StatusFetched, ledger.statuses[srv.URL+"/a"])
}

func TestCrawlKeepsGoodPageAfterManyDeadLinks(t *testing.T) {
	var links strings.Builder
	for i := range 12 {
		fmt.Fprintf(&links, `<a href="/dead%02d">x</a>`, i)
	}
	links.WriteString(`<a href="/zgood">good</a>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, links.String())
		case "/zgood":
			fmt.Fprint(w, `<p>good page</p>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testCrawlerConfig()
	cfg.Depth = 1
	cfg.Concurrency = 1
	f := NewFetcher(cfg, srv.Client(), nil)
	c, err := New(cfg, f, nil)
	require.NoError(t, err)

	sink := &recordingSink{}
	summary, err := c.Crawl(context.Background(), srv.URL+"/", sink)
	require.NoError(t, err)

	require.Len(t, sink.ids, 14)
	assert.Equal(t, srv.URL+"/zgood", sink.ids[13])
	assert.Equal(t, []string{"good", "page"}, sink.words[13])
	assert.Equal(t, 12, summary.Failed)
	assert.Equal(t, []string{"good", "page"}, f.FetchTokens(context.Background(), srv.URL+"/zgood"))
}

func TestFetchBreakerIsPerHost(t *testing.T) {
	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>still reachable</p>`)
	}))
	defer good.Close()

	cfg := testCrawlerConfig()
	f := NewFetcher(cfg, nil, nil)
	for range breakerThreshold + 2 {
		assert.Empty(t, f.FetchTokens(context.Background(), bad.URL+"/"))
	}
	assert.Equal(t, int32(breakerThreshold), badHits.Load())

	assert.Equal(t, []string{"still", "reachable"}, f.FetchTokens(context.Background(), good.URL+"/"))
}

func TestCrawlStopsOnSinkError(t *testing.T) {
	srv := newSite(t)
	cfg := testCrawlerConfig()
	c, err := New(cfg, NewFetcher(cfg, srv.Client(), nil), nil)
	require.NoError(t, err)

	sinkErr := errors.New("disk full")
	_, err = c.Crawl(context.Background(), srv.URL+"/", &recordingSink{err: sinkErr})
	assert.ErrorIs(t, err, sinkErr)
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testCrawlerConfig()
	cfg.LinkPattern = "("
	_, err := New(cfg, NewFetcher(cfg, nil, nil), nil)
	assert.Error(t, err)
}

func absolute(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = base + p
	}
	return out
}
