package stats

import (
	"context"
	"sync"
	"time"

	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*upstream.Response
	errs    map[string]error
	calls   map[string]int
	cookies []string
	block   chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]*upstream.Response),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) serve(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = &upstream.Response{Body: []byte(body), Status: status, URL: url}
	delete(f.errs, url)
}

func (f *fakeFetcher) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts upstream.FetchOptions) (*upstream.Response, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	f.cookies = append(f.cookies, opts.Cookie)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if res, ok := f.pages[url]; ok {
		return res, nil
	}
	return nil, domain.NewError(domain.ErrTransport, "dial tcp: no such host", context.DeadlineExceeded)
}

type fakeRenderer struct {
	text  string
	err   error
	calls int
	opts  upstream.RenderOptions
}

func (r *fakeRenderer) Render(_ context.Context, _ string, opts upstream.RenderOptions) (string, error) {
	r.calls++
	r.opts = opts
	return r.text, r.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Unix(1_735_000_000, 0)} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
