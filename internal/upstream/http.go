// Package upstream performs outbound fetches against the sources the service
// scrapes: plain HTTP for Steam pages and a headless browser for pages
// behind an anti-bot challenge.
package upstream

import (
	"context"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/briangreenhill/steamstats/internal/domain"
)

const (
	// UserAgent is sent on every request; Steam rejects unknown clients.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"

	DefaultTimeout = 15 * time.Second
	maxRedirects   = 10
)

// FetchOptions adjusts a single request.
type FetchOptions struct {
	Cookie string
}

// Response is a completed HTTP exchange. Status may be an error code; the
// fetcher does not treat it as a failure.
type Response struct {
	Body   []byte
	Status int
	URL    string
}

// Fetcher retrieves a page over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*Response, error)
}

// HTTPFetcher is a Fetcher backed by resty.
type HTTPFetcher struct {
	http *resty.Client
	log  zerolog.Logger
}

type Option func(*httpOptions)

type httpOptions struct {
	timeout   time.Duration
	rps       float64
	transport http.RoundTripper
	bypass    bool
	log       zerolog.Logger
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *httpOptions) { o.timeout = d }
}

// WithRateLimit caps outbound requests per second. Zero disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(o *httpOptions) { o.rps = rps }
}

// WithTransport replaces the base round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *httpOptions) { o.transport = rt }
}

// WithoutCloudflareBypass keeps the plain transport.
func WithoutCloudflareBypass() Option {
	return func(o *httpOptions) { o.bypass = false }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *httpOptions) { o.log = l }
}

// NewHTTPFetcher builds a fetcher with a browser user agent, redirect
// following and the Cloudflare bypass transport.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	o := httpOptions{timeout: DefaultTimeout, bypass: true, log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}

	client := resty.New()
	if o.transport != nil {
		client.SetTransport(o.transport)
	}
	if o.bypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("User-Agent", UserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	client.SetTimeout(o.timeout)

	if o.rps > 0 {
		burst := int(o.rps)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(o.rps), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &HTTPFetcher{http: client, log: o.log}
}

// Fetch performs a GET. Transport errors and empty bodies are reported as
// domain.ErrTransport; HTTP error statuses are returned in the Response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*Response, error) {
	req := f.http.R().SetContext(ctx)
	if opts.Cookie != "" {
		req.SetHeader("Cookie", opts.Cookie)
	}

	start := time.Now()
	res, err := req.Get(url)
	if err != nil {
		f.log.Warn().Err(err).Str("url", url).Msg("upstream request failed")
		return nil, transportError(err)
	}

	out := &Response{Body: res.Body(), Status: res.StatusCode(), URL: url}
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		out.URL = raw.Request.URL.String()
	}

	f.log.Debug().
		Str("url", url).
		Str("final_url", out.URL).
		Int("status", out.Status).
		Int("bytes", len(out.Body)).
		Dur("took", time.Since(start)).
		Msg("upstream request")

	if len(out.Body) == 0 {
		return out, domain.NewError(domain.ErrTransport, "request failed", nil)
	}
	return out, nil
}

func transportError(err error) error {
	msg := err.Error()
	if msg == "" {
		msg = "request failed"
	}
	return domain.NewError(domain.ErrTransport, msg, err)
}
