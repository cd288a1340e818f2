package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// Reserved extraction fields. "card" locates one listing subtree within a
// results page; "nextPage" detects whether another page exists.
const (
	FieldCard     = "card"
	FieldNextPage = "nextPage"
)

// Load-bearing raw fields: a card missing either is discarded.
const (
	FieldTitle = "title"
	FieldPrice = "price"
)

// URLBuilder renders the search URL for one result page (1-based) of a
// provider. Implementations are pure functions over the criteria.
type URLBuilder func(c models.Criteria, page int) string

// TransformFunc rewrites one canonical field value during normalization.
// Returning ok=false vetoes the whole record (e.g. a room-only rental on a
// provider that should only return full apartments).
type TransformFunc func(value string, rec models.RawRecord) (value2 string, ok bool)

// Hook patches a raw record after extraction, correcting a known structural
// idiosyncrasy of one provider (e.g. deriving the listing URL from an image
// path). Hooks mutate the record in place.
type Hook func(rec models.RawRecord, s *SourceSchema)

// InputMapping declares which criteria a provider's URL can express and
// which must be applied after extraction.
type InputMapping struct {
	URLBuilder            URLBuilder
	SupportedFilters      []string
	RequiresPostFiltering []string
}

// NumericRange is the sanity window for a regex-extracted numeric field.
type NumericRange struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the window.
func (n NumericRange) Contains(v float64) bool { return v >= n.Min && v <= n.Max }

// Extraction configures how listing cards are located and read.
//
// Selectors maps a field to an ordered chain tried first-match-wins; a
// selector may end in "@attr" to read an attribute instead of text.
// RegexPatterns are the per-field fallback chains run against the card's
// full text; for fields with a NumericRange an in-range regex hit overrides
// the selector result, correcting wrong-element matches.
type Extraction struct {
	Method        models.FetchMode
	RenderCapable bool
	SettleDelay   time.Duration
	Selectors     map[string][]string
	RegexPatterns map[string][]*regexp.Regexp
	NumericRanges map[string]NumericRange
}

// OutputMapping drives normalization of raw records into canonical listings.
type OutputMapping struct {
	// FieldMappings renames raw keys to canonical dot-paths
	// (e.g. "zone" -> "location.neighborhood").
	FieldMappings map[string]string
	// Transformations run per canonical field and may veto the record.
	Transformations map[string]TransformFunc
	// Defaults fill canonical fields left empty after mapping.
	Defaults map[string]string
}

// Performance is the per-provider request budget.
type Performance struct {
	RequestsPerMinute     int
	DelayBetweenRequests  time.Duration
	MaxConcurrentRequests int
	Timeout               time.Duration
	MaxPages              int
}

// Override adjusts budget fields at load time (zero = keep schema value).
type Override struct {
	RequestsPerMinute     int
	DelayBetweenRequests  time.Duration
	MaxConcurrentRequests int
	Timeout               time.Duration
	MaxPages              int
}

// SourceSchema is the declarative contract for one provider. Instances are
// built once at process start and never mutated afterwards.
type SourceSchema struct {
	ID          string
	Name        string
	BaseURL     string
	Input       InputMapping
	Extraction  Extraction
	Output      OutputMapping
	Performance Performance
	Hooks       []Hook
}

// validate is run for every schema at registry construction so a broken
// provider definition fails at startup, not mid-search.
func (s *SourceSchema) validate() error {
	if s.ID == "" {
		return fmt.Errorf("schema: empty provider id")
	}
	if s.BaseURL == "" {
		return fmt.Errorf("schema %s: empty base URL", s.ID)
	}
	if s.Input.URLBuilder == nil {
		return fmt.Errorf("schema %s: nil URL builder", s.ID)
	}
	if s.Extraction.Method != models.FetchStatic && s.Extraction.Method != models.FetchRendered {
		return fmt.Errorf("schema %s: unknown fetch method %q", s.ID, s.Extraction.Method)
	}
	if len(s.Extraction.Selectors[FieldCard]) == 0 {
		return fmt.Errorf("schema %s: no card selector", s.ID)
	}
	p := s.Performance
	if p.RequestsPerMinute <= 0 || p.MaxConcurrentRequests <= 0 || p.MaxPages <= 0 {
		return fmt.Errorf("schema %s: non-positive performance budget", s.ID)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("schema %s: non-positive timeout", s.ID)
	}
	return nil
}

// applyOverride returns a copy of the budget with non-zero override fields
// replaced.
func (p Performance) applyOverride(o Override) Performance {
	if o.RequestsPerMinute > 0 {
		p.RequestsPerMinute = o.RequestsPerMinute
	}
	if o.DelayBetweenRequests > 0 {
		p.DelayBetweenRequests = o.DelayBetweenRequests
	}
	if o.MaxConcurrentRequests > 0 {
		p.MaxConcurrentRequests = o.MaxConcurrentRequests
	}
	if o.Timeout > 0 {
		p.Timeout = o.Timeout
	}
	if o.MaxPages > 0 {
		p.MaxPages = o.MaxPages
	}
	return p
}
