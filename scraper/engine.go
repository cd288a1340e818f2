package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

// RenderedFactory opens a rendered browser session for one provider run.
// The session lives under ctx so cancelling the run tears it down; the
// returned close func must be called on every exit path.
type RenderedFactory func(ctx context.Context, s *schema.SourceSchema) (Fetcher, func(), error)

// Engine executes one provider's FetchPlan: sequential, rate-limited
// pagination, field extraction via the schema's fallback chains, correction
// hooks, and the static→rendered escalation.
type Engine struct {
	static   Fetcher
	rendered RenderedFactory
	limiter  *utils.RateLimiter
	logger   *utils.Logger
	retrier  *utils.Retrier
}

// NewEngine builds an engine for one provider. The limiter carries that
// provider's request budget.
func NewEngine(static Fetcher, rendered RenderedFactory, limiter *utils.RateLimiter, logger *utils.Logger) *Engine {
	return &Engine{
		static:   static,
		rendered: rendered,
		limiter:  limiter,
		logger:   logger,
		retrier:  &utils.Retrier{MaxAttempts: 2, BaseDelay: time.Second, Logger: logger},
	}
}

// Run walks the plan's result pages in order and returns the raw records of
// the whole run.
//
// Failure semantics: a fetch error on page 1 (zero pages collected)
// propagates wrapped in ErrProviderFetch; an error on a later page only
// stops pagination, keeping the partial results. pageCap <= 0 means the
// schema's MaxPages alone bounds the run.
func (e *Engine) Run(ctx context.Context, plan *schema.FetchPlan, pageCap int) ([]models.RawRecord, error) {
	s := plan.Schema
	log := e.logger.With(s.ID)

	maxPages := s.Performance.MaxPages
	if pageCap > 0 && pageCap < maxPages {
		maxPages = pageCap
	}

	var closers []func()
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	fetcher := e.static
	if plan.Mode == models.FetchRendered {
		rf, closeFn, err := e.rendered(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderFetch, s.ID, err)
		}
		closers = append(closers, closeFn)
		fetcher = rf
	}

	canEscalate := plan.Mode == models.FetchStatic && s.Extraction.RenderCapable

	var all []models.RawRecord
	for page := 1; page <= maxPages; page++ {
		doc, err := e.fetchPage(ctx, fetcher, plan, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: %s page 1: %w", ErrProviderFetch, s.ID, err)
			}
			log.Warn("%v on page %d — keeping %d records from earlier pages: %v",
				ErrPageFetch, page, len(all), err)
			break
		}

		records := e.extractPage(doc, s, log)

		// One rendered retry of page 1 when the static DOM had no valid
		// cards and the provider is known to hydrate client-side.
		if page == 1 && len(records) == 0 && canEscalate {
			canEscalate = false
			log.Info("static page 1 yielded no records — escalating to rendered mode")

			rf, closeFn, rerr := e.rendered(ctx, s)
			if rerr != nil {
				log.Warn("escalation unavailable: %v", rerr)
				break
			}
			closers = append(closers, closeFn)
			fetcher = rf

			doc, err = e.fetchPage(ctx, fetcher, plan, 1)
			if err != nil {
				return nil, fmt.Errorf("%w: %s rendered page 1: %w", ErrProviderFetch, s.ID, err)
			}
			records = e.extractPage(doc, s, log)
		}

		if len(records) == 0 {
			log.Debug("page %d yielded no records — stopping pagination", page)
			break
		}

		all = append(all, records...)
		log.Info("page %d done — %d records so far", page, len(all))

		if !hasNextPage(doc, s) {
			break
		}
	}

	return all, nil
}

// fetchPage acquires a rate-limit slot, then fetches one page with a single
// transient retry. Blocking signals are never retried.
func (e *Engine) fetchPage(ctx context.Context, fetcher Fetcher, plan *schema.FetchPlan, page int) (*goquery.Document, error) {
	if err := e.limiter.WaitForSlot(ctx); err != nil {
		return nil, err
	}
	defer e.limiter.Release()

	pageURL := plan.URL
	if page > 1 {
		pageURL = plan.PageURL(page)
	}

	var doc *goquery.Document
	var blocked error
	err := e.retrier.Do(ctx, fmt.Sprintf("%s page %d", plan.Provider, page), func() error {
		d, ferr := fetcher.Fetch(ctx, pageURL)
		if ferr != nil {
			if errors.Is(ferr, ErrAntiAutomation) || errors.Is(ferr, ErrRobotsDisallowed) {
				blocked = ferr
				return nil
			}
			return ferr
		}
		doc = d
		return nil
	})
	if blocked != nil {
		return nil, blocked
	}
	return doc, err
}

// extractPage turns a page's card nodes into raw records, applies the
// provider's correction hooks, and discards cards missing the two
// load-bearing fields.
func (e *Engine) extractPage(doc *goquery.Document, s *schema.SourceSchema, log *utils.Logger) []models.RawRecord {
	cards := selectCards(doc, s)
	if cards == nil {
		return nil
	}

	var records []models.RawRecord
	cards.Each(func(i int, card *goquery.Selection) {
		rec := extractRecord(card, s)
		for _, hook := range s.Hooks {
			hook(rec, s)
		}
		if rec[schema.FieldTitle] == "" || rec[schema.FieldPrice] == "" {
			log.Debug("card %d discarded: missing title or price text", i)
			return
		}
		records = append(records, rec)
	})
	return records
}
