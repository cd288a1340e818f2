package services

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxAddressLen     = 250
)

// Normalizer converts raw extracted records into canonical listings
// following the provider schema's output mapping. Per-field failures
// degrade that field to its default/zero; only the title/price validation
// drops a record, silently.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeAll processes a provider run's records and reports how many
// were rejected.
func (n *Normalizer) NormalizeAll(raw []models.RawRecord, s *schema.SourceSchema) ([]*models.Listing, int) {
	listings := make([]*models.Listing, 0, len(raw))
	rejected := 0
	for _, rec := range raw {
		l := n.Normalize(rec, s)
		if l == nil {
			rejected++
			continue
		}
		listings = append(listings, l)
	}
	if rejected > 0 {
		n.logger.Debug("[%s] normalized %d records, rejected %d", s.ID, len(listings), rejected)
	}
	return listings, rejected
}

// Normalize maps, transforms, defaults, validates and derives one listing.
// A nil return means the record was rejected.
func (n *Normalizer) Normalize(raw models.RawRecord, s *schema.SourceSchema) *models.Listing {
	// Field mapping: verbatim copy, then explicit renames onto canonical
	// dot-paths.
	canonical := raw.Clone()
	for src, dst := range s.Output.FieldMappings {
		if src == dst {
			continue
		}
		if v := canonical[src]; v != "" {
			canonical[dst] = v
			delete(canonical, src)
		}
	}

	// Transformation: a transform may veto the whole record.
	for field, fn := range s.Output.Transformations {
		v, ok := canonical[field]
		if !ok {
			continue
		}
		nv, keep := fn(v, raw)
		if !keep {
			return nil
		}
		canonical[field] = nv
	}

	// Defaulting.
	for field, dv := range s.Output.Defaults {
		if canonical[field] == "" {
			canonical[field] = dv
		}
	}

	// Validation: the two load-bearing canonical fields.
	title := truncate(strings.TrimSpace(canonical["title"]), maxTitleLen)
	price := parseMoney(canonical["price"])
	if title == "" || price <= 0 {
		return nil
	}

	adminFee := parseMoney(canonical["adminFee"])
	area := parseDecimal(canonical["area"])
	if area < 0 {
		area = 0
	}

	pageURL := absolutize(canonical["url"], s.BaseURL)

	loc := n.buildLocation(canonical)
	total := price + adminFee

	pricePerM2 := 0.0
	if area > 0 {
		pricePerM2 = math.Round(total / area)
	}

	now := time.Now()
	return &models.Listing{
		ID:           listingID(s.ID, now, pageURL, title),
		Title:        title,
		Price:        price,
		AdminFee:     adminFee,
		TotalPrice:   total,
		Area:         area,
		Rooms:        int(parseDecimal(canonical["rooms"])),
		Bathrooms:    int(parseDecimal(canonical["bathrooms"])),
		Parking:      int(parseDecimal(canonical["parking"])),
		PropertyType: canonical["propertyType"],
		Location:     loc,
		Amenities:    splitList(canonical["amenities"]),
		Images:       n.buildImages(canonical, s.BaseURL),
		URL:          pageURL,
		Source:       s.Name,
		ScrapedAt:    now,
		PricePerM2:   pricePerM2,
		Description:  truncate(strings.TrimSpace(canonical["description"]), maxDescriptionLen),
		IsActive:     canonical["isActive"] != "false",
	}
}

// buildLocation fills structured location fields, falling back to comma
// heuristics over the free-text address ("Calle 45 #13-25, Chapinero,
// Bogotá") when the card had no structured neighborhood/city.
func (n *Normalizer) buildLocation(canonical models.RawRecord) models.ListingLocation {
	loc := models.ListingLocation{
		Address:      truncate(strings.TrimSpace(canonical["location.address"]), maxAddressLen),
		Neighborhood: strings.TrimSpace(canonical["location.neighborhood"]),
		City:         strings.TrimSpace(canonical["location.city"]),
	}

	if loc.Address != "" && (loc.Neighborhood == "" || loc.City == "") {
		parts := strings.Split(loc.Address, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 {
			if loc.Neighborhood == "" {
				loc.Neighborhood = parts[len(parts)-2]
			}
			if loc.City == "" {
				loc.City = parts[len(parts)-1]
			}
		} else if loc.Neighborhood == "" {
			loc.Neighborhood = parts[0]
		}
	}
	return loc
}

// buildImages collects and absolutizes image URLs, skipping anything that
// cannot be made absolute.
func (n *Normalizer) buildImages(canonical models.RawRecord, base string) []string {
	var out []string
	for _, raw := range append(splitList(canonical["images"]), canonical["image"]) {
		if raw == "" {
			continue
		}
		if abs := absolutize(raw, base); abs != "" {
			out = append(out, abs)
		}
	}
	return out
}

// listingID is stable enough for one search run: provider id, timestamp,
// and a hash of the canonical URL (or the title when the URL is empty).
func listingID(providerID string, now time.Time, url, title string) string {
	h := fnv.New32a()
	if url != "" {
		h.Write([]byte(url))
	} else {
		h.Write([]byte(title))
	}
	return fmt.Sprintf("%s-%d-%08x", providerID, now.UnixMilli(), h.Sum32())
}

// absolutize turns a scraped URL into an absolute one: protocol-relative
// gets https, root-relative gets the provider base. Anything else that is
// not already absolute normalizes to "".
func absolutize(raw, base string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(base, "/") + raw
	default:
		return ""
	}
}

// parseMoney strips everything but digits and parses; unparseable is 0.
func parseMoney(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDecimal parses Colombian-formatted numbers ("72,5", "1.024"),
// ignoring trailing units.
func parseDecimal(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		} else if b.Len() > 0 {
			break
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
