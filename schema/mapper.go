package schema

import (
	"fmt"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// postFilterWarnThreshold is the residual-filter count past which the
// provider will likely discard most of what it fetched.
const postFilterWarnThreshold = 3

// FetchPlan is the short-lived, per-search instruction set for one
// provider: the resolved page-1 URL, the fetch mode, the criteria (kept so
// later page URLs can be rebuilt), the residual post-filter keys, and the
// schema the extraction run will follow.
type FetchPlan struct {
	Provider   string
	URL        string
	Mode       models.FetchMode
	Criteria   models.Criteria
	PostFilter []string
	Schema     *SourceSchema
}

// PageURL builds the URL for an arbitrary page of this plan's search.
func (p *FetchPlan) PageURL(page int) string {
	return p.Schema.Input.URLBuilder(p.Criteria, page)
}

// BuildPlan maps generic criteria onto one provider's contract. The
// post-filter set is every key the schema declares as requiring
// post-filtering whose value is actually present in the criteria.
func BuildPlan(c models.Criteria, s *SourceSchema) *FetchPlan {
	present := presentFilterKeys(c)
	var post []string
	for _, key := range s.Input.RequiresPostFiltering {
		if present[key] {
			post = append(post, key)
		}
	}
	return &FetchPlan{
		Provider:   s.ID,
		URL:        s.Input.URLBuilder(c, 1),
		Mode:       s.Extraction.Method,
		Criteria:   c,
		PostFilter: post,
		Schema:     s,
	}
}

// BuildPlan resolves the provider id and maps the criteria onto it.
// Unknown ids propagate ErrUnknownProvider.
func (r *Registry) BuildPlan(c models.Criteria, providerID string) (*FetchPlan, error) {
	s, err := r.Get(providerID)
	if err != nil {
		return nil, err
	}
	return BuildPlan(c, s), nil
}

// ValidationReport carries non-fatal findings about a criteria/provider
// pairing.
type ValidationReport struct {
	Warnings []string
}

// ValidateCriteria flags criteria keys the provider can neither express in
// its URL nor post-filter, and warns when the residual post-filter set is
// large enough to risk a high false-positive discard rate.
func ValidateCriteria(c models.Criteria, s *SourceSchema) ValidationReport {
	var report ValidationReport

	expressible := make(map[string]bool)
	for _, k := range s.Input.SupportedFilters {
		expressible[k] = true
	}
	postFilterable := make(map[string]bool)
	for _, k := range s.Input.RequiresPostFiltering {
		postFilterable[k] = true
	}

	present := presentFilterKeys(c)
	postCount := 0
	for _, key := range filterKeyOrder {
		if !present[key] {
			continue
		}
		switch {
		case expressible[key]:
		case postFilterable[key]:
			postCount++
		default:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("filter %q is ignored by provider %s", key, s.ID))
		}
	}
	if postCount > postFilterWarnThreshold {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("provider %s post-filters %d criteria; expect a high discard rate", s.ID, postCount))
	}
	return report
}

// filterKeyOrder fixes a deterministic reporting order for filter keys.
var filterKeyOrder = []string{
	"operation", "propertyTypes", "rooms", "bathrooms", "parking",
	"area", "price", "stratum", "city", "neighborhoods",
}

func presentFilterKeys(c models.Criteria) map[string]bool {
	present := map[string]bool{"operation": true}
	if len(c.PropertyTypes) > 0 {
		present["propertyTypes"] = true
	}
	if !c.Rooms.IsZero() {
		present["rooms"] = true
	}
	if !c.Bathrooms.IsZero() {
		present["bathrooms"] = true
	}
	if !c.Parking.IsZero() {
		present["parking"] = true
	}
	if !c.Area.IsZero() {
		present["area"] = true
	}
	if !c.Price.IsZero() {
		present["price"] = true
	}
	if !c.Stratum.IsZero() {
		present["stratum"] = true
	}
	if c.Location.City != "" {
		present["city"] = true
	}
	if len(c.Location.Neighborhoods) > 0 {
		present["neighborhoods"] = true
	}
	return present
}
