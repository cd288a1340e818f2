package models

import "time"

// FetchMode selects how a provider's pages are retrieved.
type FetchMode string

const (
	// FetchStatic is a plain HTTP request parsed as a DOM, no scripts run.
	FetchStatic FetchMode = "static"
	// FetchRendered drives a headless browser so page scripts execute.
	FetchRendered FetchMode = "rendered"
)

// RawRecord holds extracted-but-unvalidated values for one listing card.
// Keys are provider field names (title, price, area, ...); it is scoped to
// one page fetch and discarded after normalization.
type RawRecord map[string]string

// Get returns the value for key, or "" when absent.
func (r RawRecord) Get(key string) string { return r[key] }

// Clone returns an independent copy of the record.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Coordinates is an optional lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ListingLocation is the structured location of a canonical listing.
type ListingLocation struct {
	Address      string       `json:"address"`
	Neighborhood string       `json:"neighborhood"`
	City         string       `json:"city"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// Listing is the canonical, provider-agnostic record produced by the
// normalization pipeline. It is never mutated after creation.
//
// Invariants: Price >= 0, Area >= 0 (0 = unknown), ID unique within one
// search run, URL either empty or absolute.
type Listing struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Price        float64         `json:"price"`
	AdminFee     float64         `json:"adminFee"`
	TotalPrice   float64         `json:"totalPrice"`
	Area         float64         `json:"area"`
	Rooms        int             `json:"rooms"`
	Bathrooms    int             `json:"bathrooms"`
	Parking      int             `json:"parking"`
	PropertyType string          `json:"propertyType"`
	Location     ListingLocation `json:"location"`
	Amenities    []string        `json:"amenities"`
	Images       []string        `json:"images"`
	URL          string          `json:"url"`
	Source       string          `json:"source"`
	ScrapedAt    time.Time       `json:"scrapedAt"`
	PricePerM2   float64         `json:"pricePerM2"`
	Description  string          `json:"description"`
	IsActive     bool            `json:"isActive"`
}

// SearchRequest is the external search boundary input.
type SearchRequest struct {
	Criteria Criteria `json:"criteria"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}

// Summary aggregates a finished search for the caller.
type Summary struct {
	Total          int            `json:"total"`
	BySource       map[string]int `json:"bySource"`
	ByNeighborhood map[string]int `json:"byNeighborhood"`
	AveragePrice   float64        `json:"averagePrice"`
	AverageArea    float64        `json:"averageArea"`
	PriceBuckets   map[string]int `json:"priceBuckets"`
}

// SearchResult is the external search boundary output.
type SearchResult struct {
	Listings []*Listing `json:"listings"`
	Total    int        `json:"total"`
	Summary  *Summary   `json:"summary"`
}
