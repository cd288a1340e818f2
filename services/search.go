package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ProviderRunner is the consumer-side view of the extraction engine: one
// provider's plan in, that run's raw records out.
type ProviderRunner interface {
	Run(ctx context.Context, plan *schema.FetchPlan, pageCap int) ([]models.RawRecord, error)
}

// Repository is the consumer-side view of the optional persistence layer.
type Repository interface {
	Save(ctx context.Context, criteriaHash string, listings []*models.Listing) error
	LoadCached(ctx context.Context, criteriaHash string) ([]*models.Listing, bool, error)
}

// SearchService fans a search out across all active providers, each in its
// own goroutine under its own timeout, and merges whatever came back.
// Provider failures and timeouts never fail the search.
type SearchService struct {
	registry   *schema.Registry
	runners    map[string]ProviderRunner
	normalizer *Normalizer
	logger     *utils.Logger

	score   ScoreFunc
	repo    Repository
	pageCap int
}

// SearchOption configures optional collaborators.
type SearchOption func(*SearchService)

// WithScoreFunc injects the external scoring formula.
func WithScoreFunc(f ScoreFunc) SearchOption {
	return func(s *SearchService) { s.score = f }
}

// WithRepository enables the cache-aside persistence boundary.
func WithRepository(r Repository) SearchOption {
	return func(s *SearchService) { s.repo = r }
}

// WithPageCap bounds every provider run to at most n pages, on top of each
// schema's own MaxPages.
func WithPageCap(n int) SearchOption {
	return func(s *SearchService) { s.pageCap = n }
}

// NewSearchService wires the orchestrator. runners holds one engine per
// provider id; every registry provider must have one.
func NewSearchService(registry *schema.Registry, runners map[string]ProviderRunner, normalizer *Normalizer, logger *utils.Logger, opts ...SearchOption) (*SearchService, error) {
	for _, id := range registry.Providers() {
		if _, ok := runners[id]; !ok {
			return nil, fmt.Errorf("search: no runner for provider %q", id)
		}
	}
	s := &SearchService{
		registry:   registry,
		runners:    runners,
		normalizer: normalizer,
		logger:     logger,
		score:      DefaultScore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs the full pipeline for one request. The only errors it
// returns are structural (malformed criteria, unknown explicit provider
// id); everything downstream degrades to partial or empty results.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	c := req.Criteria
	if err := c.Validate(); err != nil {
		return nil, err
	}
	providers, err := s.activeProviders(c)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if s.repo != nil {
		cached, hit, cerr := s.repo.LoadCached(ctx, c.Hash())
		if cerr != nil {
			s.logger.Warn("cache lookup failed: %v", cerr)
		} else if hit {
			s.logger.Info("cache hit — %d listings, skipping fan-out", len(cached))
			return s.assemble(cached, c, page, limit), nil
		}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		merged []*models.Listing
	)

	for _, pid := range providers {
		plan, perr := s.registry.BuildPlan(c, pid)
		if perr != nil {
			return nil, perr
		}
		for _, w := range schema.ValidateCriteria(c, plan.Schema).Warnings {
			s.logger.Warn("%s", w)
		}

		wg.Add(1)
		go func(plan *schema.FetchPlan) {
			defer wg.Done()

			// The per-provider wall-clock budget. The engine's fetches and
			// any browser session live under this context, so an elapsed
			// budget actually cancels the in-flight work.
			pctx, cancel := context.WithTimeout(ctx, plan.Schema.Performance.Timeout)
			defer cancel()

			raw, rerr := s.runners[plan.Provider].Run(pctx, plan, s.pageCap)
			if rerr != nil {
				s.logger.Warn("provider %s contributed zero records: %v", plan.Provider, rerr)
				return
			}

			listings, rejected := s.normalizer.NormalizeAll(raw, plan.Schema)
			kept := filterListings(listings, c, plan.PostFilter)
			s.logger.Info("provider %s: %d raw, %d normalized (%d rejected), %d after post-filters",
				plan.Provider, len(raw), len(listings), rejected, len(kept))

			mu.Lock()
			merged = append(merged, kept...)
			mu.Unlock()
		}(plan)
	}
	wg.Wait()

	deduped := dedupe(merged)

	if s.repo != nil && len(deduped) > 0 {
		if serr := s.repo.Save(ctx, c.Hash(), deduped); serr != nil {
			s.logger.Warn("cache save failed: %v", serr)
		}
	}

	return s.assemble(deduped, c, page, limit), nil
}

// activeProviders resolves the provider set: all registered, or the
// explicit subset named in the criteria. Unknown explicit ids are the one
// provider-related error surfaced to the caller.
func (s *SearchService) activeProviders(c models.Criteria) ([]string, error) {
	if len(c.Sources) == 0 {
		return s.registry.Providers(), nil
	}
	ids := make([]string, 0, len(c.Sources))
	for _, id := range c.Sources {
		if _, err := s.registry.Get(id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// assemble scores, orders, paginates and summarizes a result set.
func (s *SearchService) assemble(listings []*models.Listing, c models.Criteria, page, limit int) *models.SearchResult {
	scored := make([]*models.Listing, len(listings))
	copy(scored, listings)
	sort.SliceStable(scored, func(i, j int) bool {
		return s.score(scored[i], c) > s.score(scored[j], c)
	})

	start := (page - 1) * limit
	if start > len(scored) {
		start = len(scored)
	}
	end := start + limit
	if end > len(scored) {
		end = len(scored)
	}

	return &models.SearchResult{
		Listings: scored[start:end],
		Total:    len(scored),
		Summary:  buildSummary(scored),
	}
}

// filterListings applies one provider's residual post-filter criteria.
// Only the keys the provider could not express in its URL are checked.
func filterListings(listings []*models.Listing, c models.Criteria, keys []string) []*models.Listing {
	if len(keys) == 0 {
		return listings
	}
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if matchesPostFilters(l, c, keys) {
			out = append(out, l)
		}
	}
	return out
}

func matchesPostFilters(l *models.Listing, c models.Criteria, keys []string) bool {
	for _, key := range keys {
		switch key {
		case "price":
			if !c.Price.Contains(l.TotalPrice) {
				return false
			}
		case "rooms":
			if !c.Rooms.Contains(float64(l.Rooms)) {
				return false
			}
		case "bathrooms":
			if !c.Bathrooms.Contains(float64(l.Bathrooms)) {
				return false
			}
		case "parking":
			if !c.Parking.Contains(float64(l.Parking)) {
				return false
			}
		case "area":
			if !c.Area.Contains(l.Area) {
				return false
			}
		case "neighborhoods":
			if !matchesNeighborhood(l, c.Location.Neighborhoods) {
				return false
			}
		}
	}
	return true
}

func matchesNeighborhood(l *models.Listing, hoods []string) bool {
	if len(hoods) == 0 {
		return true
	}
	for _, hood := range hoods {
		needle := strings.ToLower(hood)
		if strings.Contains(strings.ToLower(l.Location.Neighborhood), needle) ||
			strings.Contains(strings.ToLower(l.Location.Address), needle) {
			return true
		}
	}
	return false
}

// dedupe collapses listings sharing a canonical URL, falling back to the
// (title, price) pair when the URL is empty. First occurrence wins.
func dedupe(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		key := l.URL
		if key == "" {
			key = fmt.Sprintf("%s|%.0f", strings.ToLower(l.Title), l.Price)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
