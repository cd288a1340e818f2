package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/gonbooster/AIArriendo-sub002/utils"
)

// RenderedFetcher drives one exclusive headless browser session. A session
// is created at the start of a provider run as a child of that run's
// context, so cancelling the run (timeout included) tears the browser down
// with it, and must be closed on every exit path.
type RenderedFetcher struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
	settle     time.Duration
	logger     *utils.Logger
}

// NewRenderedFetcher launches a headless browser session under ctx. settle
// is the bounded wait after navigation that lets page scripts populate the
// DOM.
func NewRenderedFetcher(ctx context.Context, chromeBin string, settle time.Duration, logger *utils.Logger) (*RenderedFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	f := &RenderedFetcher{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
		settle:     settle,
		logger:     logger,
	}

	// Launch the browser now so session failures surface at run start.
	if err := chromedp.Run(browserCtx); err != nil {
		f.Close()
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	return f, nil
}

// Fetch implements Fetcher: navigate, let scripts settle, scroll to force
// lazy content, then hand the resulting DOM to goquery.
func (f *RenderedFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithDeadline(tabCtx, deadline)
		defer cancel()
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(f.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("rendered fetch %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered %s: %w", pageURL, err)
	}
	if isBlockPage(doc) {
		return nil, fmt.Errorf("%w: challenge page", ErrAntiAutomation)
	}
	return doc, nil
}

// Close releases the browser session. Safe to call more than once.
func (f *RenderedFetcher) Close() {
	for _, cancel := range f.cancels {
		cancel()
	}
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
