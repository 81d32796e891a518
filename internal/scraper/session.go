package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"hotelpriceworker/config"
	"hotelpriceworker/helpers"
	"hotelpriceworker/logger"
	apperrors "hotelpriceworker/pkg/errors"
)

// Session owns one browser page visit. Every session must be closed on every
// exit path; a long batch leaks browser processes otherwise.
type Session interface {
	// Open navigates to url, waits for baseline readiness and returns a
	// queryable snapshot of the rendered page.
	Open(url string) (Page, error)
	// Evaluate runs a script in the live page.
	Evaluate(script string, out any) error
	// Screenshot captures the current viewport to path, best effort.
	Screenshot(path string) error
	// Close releases the browser.
	Close()
}

// SessionFactory creates one exclusive session per extraction.
type SessionFactory func() Session

// NewSessionFactory picks the session implementation from configuration:
// a headless Chrome when the browser is enabled, a plain HTTP fetch
// otherwise (server-rendered pages and tests).
func NewSessionFactory(cfg *config.Config) SessionFactory {
	if cfg.UseBrowser {
		return func() Session { return NewBrowserSession(cfg) }
	}
	return func() Session { return NewStaticSession(cfg) }
}

// BrowserSession drives one headless Chrome tab via chromedp.
type BrowserSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	cfg     *config.Config
	log     *logger.Logger
}

// NewBrowserSession allocates a fresh headless browser context. One browser,
// one tab, one page visit.
func NewBrowserSession(cfg *config.Config) *BrowserSession {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserSession{
		ctx:     ctx,
		cancels: []context.CancelFunc{cancelCtx, cancelAlloc},
		cfg:     cfg,
		log:     logger.ForScraper("browser"),
	}
}

// Open navigates and snapshots the rendered DOM. The page-load wait is
// bounded; a deadline surfaces as a timeout-class error the extractor turns
// into a notes entry.
func (s *BrowserSession) Open(url string) (Page, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PageLoadTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second), // give client-side rendering time to settle
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeout("browser", "page load timed out: "+url, err)
		}
		return nil, apperrors.NewNavigation("browser", "failed to open "+url, err)
	}

	page, err := NewPageFromHTML(html)
	if err != nil {
		return nil, err
	}
	return NewDocPage(page.doc, s.Evaluate), nil
}

// Evaluate runs script in the live page with a bounded wait.
func (s *BrowserSession) Evaluate(script string, out any) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ElementTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Evaluate(script, out)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeout("browser", "script evaluation timed out", err)
		}
		return apperrors.NewExtraction("browser", "script evaluation failed", err)
	}
	return nil
}

// Screenshot saves the current viewport for post-mortem debugging.
func (s *BrowserSession) Screenshot(path string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ElementTimeout)
	defer cancel()

	var shot []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&shot)); err != nil {
		return apperrors.NewExtraction("browser", "screenshot capture failed", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, shot, 0o644)
}

// Close tears down the tab and the browser process.
func (s *BrowserSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// StaticSession loads pages over plain HTTP with browser-like headers. No
// script engine; script-dependent strategies simply do not fire.
type StaticSession struct {
	cfg *config.Config
}

// NewStaticSession creates a browserless session.
func NewStaticSession(cfg *config.Config) *StaticSession {
	return &StaticSession{cfg: cfg}
}

// Open fetches and parses the page body.
func (s *StaticSession) Open(url string) (Page, error) {
	body, err := helpers.FetchWithRandomHeaders(url)
	if err != nil {
		if strings.Contains(err.Error(), "Client.Timeout") {
			return nil, apperrors.NewTimeout("static", "fetch timed out: "+url, err)
		}
		return nil, apperrors.NewNavigation("static", "failed to fetch "+url, err)
	}
	return NewPageFromReader(body)
}

// Evaluate is unsupported without a browser.
func (s *StaticSession) Evaluate(script string, out any) error {
	return apperrors.NewExtraction("static", "no script engine in static session", nil)
}

// Screenshot is a no-op without a browser.
func (s *StaticSession) Screenshot(path string) error {
	return nil
}

// Close is a no-op; the HTTP client is shared and stateless.
func (s *StaticSession) Close() {}
