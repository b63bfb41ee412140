package upstream

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/steamstats/internal/domain"
)

const (
	NavigationTimeout = 60 * time.Second
	SettleDelay       = 4 * time.Second
	ChallengeDelay    = 6 * time.Second

	clearanceCookie = "cf_clearance"
)

// RenderOptions adjusts a single render.
type RenderOptions struct {
	// ClearanceCookie is a cf_clearance value set for CookieDomain before
	// navigating.
	ClearanceCookie string
	CookieDomain    string
}

// Renderer loads a page in a real browser and returns its visible text.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
}

// ChromeRenderer drives a headless Chrome through chromedp. Each Render
// starts and tears down its own browser.
type ChromeRenderer struct {
	execPath string
	log      zerolog.Logger

	navTimeout     time.Duration
	settleDelay    time.Duration
	challengeDelay time.Duration
}

var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// NewChromeRenderer locates a Chrome binary. execPath may be empty to search
// PATH. It returns domain.ErrCapabilityMissing when no browser is found.
func NewChromeRenderer(execPath string, log zerolog.Logger) (*ChromeRenderer, error) {
	path, err := findChrome(execPath)
	if err != nil {
		return nil, err
	}
	return &ChromeRenderer{
		execPath:       path,
		log:            log,
		navTimeout:     NavigationTimeout,
		settleDelay:    SettleDelay,
		challengeDelay: ChallengeDelay,
	}, nil
}

func findChrome(execPath string) (string, error) {
	if execPath != "" {
		p, err := exec.LookPath(execPath)
		if err != nil {
			return "", domain.NewError(domain.ErrCapabilityMissing, "headless browser not available", err)
		}
		return p, nil
	}
	for _, name := range chromeCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", domain.NewError(domain.ErrCapabilityMissing, "headless browser not available", nil)
}

// Render navigates to url, waits for any challenge page to clear and returns
// document.body.innerText.
func (r *ChromeRenderer) Render(ctx context.Context, url string, opts RenderOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.navTimeout+r.settleDelay+r.challengeDelay)
	defer cancel()

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.ExecPath(r.execPath),
		chromedp.UserAgent(UserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		r.log.Debug().Msgf(format, args...)
	}))
	defer cancelTab()

	// start the browser on the tab context so the navigation deadline
	// below does not own its lifetime
	if err := chromedp.Run(tabCtx); err != nil {
		return "", domain.NewError(domain.ErrCapabilityMissing, "start browser: "+err.Error(), err)
	}

	if opts.ClearanceCookie != "" {
		err := chromedp.Run(tabCtx, network.SetCookies([]*network.CookieParam{{
			Name:     clearanceCookie,
			Value:    opts.ClearanceCookie,
			Domain:   opts.CookieDomain,
			Path:     "/",
			HTTPOnly: true,
			Secure:   true,
		}}))
		if err != nil {
			return "", domain.NewError(domain.ErrTransport, "set clearance cookie: "+err.Error(), err)
		}
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, r.navTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancelNav()
	if err != nil {
		return "", domain.NewError(domain.ErrTransport, fmt.Sprintf("navigate %s: %v", url, err), err)
	}

	var title string
	if err := chromedp.Run(tabCtx, chromedp.Sleep(r.settleDelay), chromedp.Title(&title)); err != nil {
		return "", domain.NewError(domain.ErrTransport, err.Error(), err)
	}
	if IsChallengeTitle(title) {
		r.log.Debug().Str("url", url).Str("title", title).Msg("challenge page, waiting")
		if err := chromedp.Run(tabCtx, chromedp.Sleep(r.challengeDelay)); err != nil {
			return "", domain.NewError(domain.ErrTransport, err.Error(), err)
		}
	}

	var text string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(`document.body ? (document.body.innerText || "") : ""`, &text)); err != nil {
		return "", domain.NewError(domain.ErrTransport, err.Error(), err)
	}
	return text, nil
}

// IsChallengeTitle reports whether a page title looks like an anti-bot
// interstitial.
func IsChallengeTitle(title string) bool {
	return strings.Contains(strings.ToLower(title), "just a moment")
}
