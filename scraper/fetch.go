package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"

	"github.com/gonbooster/AIArriendo-sub002/utils"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves one results page as a parsed DOM. Both fetch modes
// satisfy it so extraction is mode-independent.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// StaticFetcher retrieves raw HTML over plain HTTP and parses it without
// executing page scripts. It keeps a per-host robots.txt cache and refuses
// paths the host disallows.
type StaticFetcher struct {
	client    *http.Client
	userAgent string
	logger    *utils.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewStaticFetcher builds a fetcher with the given request timeout.
func NewStaticFetcher(timeout time.Duration, logger *utils.Logger) *StaticFetcher {
	return &StaticFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		logger:    logger,
		robots:    make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch implements Fetcher.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	if !f.allowed(ctx, u) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "es-CO,es;q=0.9,en;q=0.5")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrAntiAutomation, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("get %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	if isBlockPage(doc) {
		return nil, fmt.Errorf("%w: challenge page", ErrAntiAutomation)
	}
	return doc, nil
}

// allowed consults the host's robots.txt, fetched once and cached. Hosts
// whose robots.txt cannot be retrieved are treated as permissive.
func (f *StaticFetcher) allowed(ctx context.Context, u *url.URL) bool {
	f.mu.Lock()
	data, ok := f.robots[u.Host]
	f.mu.Unlock()

	if !ok {
		data = f.fetchRobots(ctx, u)
		f.mu.Lock()
		f.robots[u.Host] = data
		f.mu.Unlock()
	}
	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, f.userAgent)
}

func (f *StaticFetcher) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("robots.txt fetch failed for %s: %v", u.Host, err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}

// isBlockPage spots captcha interstitials served with a 200.
func isBlockPage(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").First().Text())
	for _, marker := range []string{"captcha", "are you a human", "access denied", "attention required"} {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return doc.Find("iframe[src*='captcha'], form#challenge-form").Length() > 0
}
