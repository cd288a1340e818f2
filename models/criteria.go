package models

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
)

// Operation is the kind of transaction the user is searching for.
type Operation string

const (
	OperationRent Operation = "rent"
	OperationSale Operation = "sale"
)

// Range is a numeric constraint. Zero values mean "unbounded" on that side.
type Range struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

// IsZero reports whether the range constrains nothing.
func (r Range) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Contains reports whether v satisfies the range. An unset bound always passes.
func (r Range) Contains(v float64) bool {
	if r.Min > 0 && v < r.Min {
		return false
	}
	if r.Max > 0 && v > r.Max {
		return false
	}
	return true
}

// SearchLocation narrows a search geographically.
type SearchLocation struct {
	City          string   `json:"city,omitempty"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`
}

// Weights are consumed only by the scoring function.
type Weights struct {
	Price    float64 `json:"price,omitempty"`
	Area     float64 `json:"area,omitempty"`
	Rooms    float64 `json:"rooms,omitempty"`
	Location float64 `json:"location,omitempty"`
}

// Criteria is the provider-agnostic search input. It is treated as an
// immutable value passed down the pipeline.
type Criteria struct {
	Operation     Operation      `json:"operation"`
	PropertyTypes []string       `json:"propertyTypes,omitempty"`
	Rooms         Range          `json:"rooms,omitempty"`
	Bathrooms     Range          `json:"bathrooms,omitempty"`
	Parking       Range          `json:"parking,omitempty"`
	Area          Range          `json:"area,omitempty"`
	Price         Range          `json:"price,omitempty"`
	Stratum       Range          `json:"stratum,omitempty"`
	Location      SearchLocation `json:"location,omitempty"`
	Weights       Weights        `json:"weights,omitempty"`

	// Sources optionally restricts the search to an explicit provider subset.
	Sources []string `json:"sources,omitempty"`
}

// Validate checks the structural sanity of the criteria. It is the only
// error surfaced to the external caller before any scraping starts.
func (c Criteria) Validate() error {
	if c.Operation != OperationRent && c.Operation != OperationSale {
		return fmt.Errorf("criteria: unknown operation %q", c.Operation)
	}
	ranges := map[string]Range{
		"rooms":     c.Rooms,
		"bathrooms": c.Bathrooms,
		"parking":   c.Parking,
		"area":      c.Area,
		"price":     c.Price,
		"stratum":   c.Stratum,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < 0 {
			return fmt.Errorf("criteria: negative %s bound", name)
		}
		if r.Min > 0 && r.Max > 0 && r.Min > r.Max {
			return fmt.Errorf("criteria: %s min %.0f exceeds max %.0f", name, r.Min, r.Max)
		}
	}
	return nil
}

// Hash returns a stable content address of the criteria, used as the
// cache key. Weights are part of the hash: different preferences mean a
// different ranked result set.
func (c Criteria) Hash() string {
	b, _ := json.Marshal(c)
	return fmt.Sprintf("%x", sha1.Sum(b))
}
