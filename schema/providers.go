package schema

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// Regex fallback chains shared across providers. They run against a card's
// full text when the selector chain comes up empty or grabs an implausibly
// long blob, and an in-range hit overrides the selector result.
var (
	areaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{2,4}(?:[.,]\d{1,2})?)\s*(?:m²|m2|mts?2?\b|metros)`),
		regexp.MustCompile(`(?i)[áa]rea[^0-9]{0,10}(\d{2,4})`),
	}
	roomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2})\s*(?:hab\b|habitaci|alcoba|cuarto)`),
		regexp.MustCompile(`(?i)(?:hab|habitaciones)[^0-9]{0,5}(\d{1,2})`),
	}
	bathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2})\s*(?:bañ|banos?\b)`),
	}
	parkingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2})\s*(?:parqueadero|garaje)`),
	}
	stratumPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)estrato\s*(\d)`),
	}
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s*([\d.,]{6,15})`),
	}
)

// Sanity windows for regex-extracted numerics.
var defaultNumericRanges = map[string]NumericRange{
	"area":      {Min: 20, Max: 1000},
	"rooms":     {Min: 1, Max: 20},
	"bathrooms": {Min: 1, Max: 15},
	"parking":   {Min: 0, Max: 10},
	"stratum":   {Min: 1, Max: 6},
}

// rejectRoomRentals vetoes records whose title reveals a room-only rental
// on providers that are searched for whole apartments.
func rejectRoomRentals(title string, _ models.RawRecord) (string, bool) {
	lower := strings.ToLower(title)
	for _, marker := range []string{"habitación en", "habitacion en", "room in", "cupo en"} {
		if strings.Contains(lower, marker) {
			return "", false
		}
	}
	return title, true
}

// collapseWhitespace trims and squeezes runs of whitespace.
func collapseWhitespace(v string, _ models.RawRecord) (string, bool) {
	return strings.Join(strings.Fields(v), " "), true
}

// includedFeeIsZero maps "incluida"/"no aplica" admin-fee labels to zero.
func includedFeeIsZero(v string, _ models.RawRecord) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(v))
	if strings.Contains(lower, "incluid") || strings.Contains(lower, "no aplica") {
		return "0", true
	}
	return v, true
}

func operationSegment(op models.Operation, rent, sale string) string {
	if op == models.OperationSale {
		return sale
	}
	return rent
}

func citySlug(c models.Criteria, fallback string) string {
	city := strings.TrimSpace(strings.ToLower(c.Location.City))
	if city == "" {
		return fallback
	}
	slug := strings.NewReplacer(" ", "-", "á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(city)
	return slug
}

// Fincaraiz is the highest-volume source. Plain server-rendered HTML, so
// static fetch suffices, with a rendered fallback for their A/B variant
// that hydrates cards client-side.
func Fincaraiz() *SourceSchema {
	return &SourceSchema{
		ID:      "fincaraiz",
		Name:    "Fincaraíz",
		BaseURL: "https://www.fincaraiz.com.co",
		Input: InputMapping{
			URLBuilder: func(c models.Criteria, page int) string {
				seg := operationSegment(c.Operation, "arriendo", "venta")
				u := fmt.Sprintf("https://www.fincaraiz.com.co/%s/apartamentos/%s", seg, citySlug(c, "bogota"))
				q := url.Values{}
				if c.Rooms.Min > 0 {
					q.Set("habitaciones_desde", fmt.Sprintf("%.0f", c.Rooms.Min))
				}
				if c.Price.Max > 0 {
					q.Set("precio_hasta", fmt.Sprintf("%.0f", c.Price.Max))
				}
				if c.Area.Min > 0 {
					q.Set("area_desde", fmt.Sprintf("%.0f", c.Area.Min))
				}
				if page > 1 {
					q.Set("pagina", fmt.Sprintf("%d", page))
				}
				if enc := q.Encode(); enc != "" {
					u += "?" + enc
				}
				return u
			},
			SupportedFilters:      []string{"operation", "propertyTypes", "city", "rooms", "price", "area"},
			RequiresPostFiltering: []string{"bathrooms", "parking", "neighborhoods"},
		},
		Extraction: Extraction{
			Method:        models.FetchStatic,
			RenderCapable: true,
			SettleDelay:   3 * time.Second,
			Selectors: map[string][]string{
				FieldCard:     {"article.listingCard", "div.listing-card", "div[data-qa='posting-card']"},
				"title":       {"a.lc-title", "h2.card-title", "span[data-qa='posting-title']"},
				"price":       {"span.price__actual", "div.lc-price b", "span[data-qa='price']"},
				"adminFee":    {"span.lc-admin-value"},
				"area":        {"span[data-qa='surface']", "li.lc-area"},
				"rooms":       {"span[data-qa='rooms']", "li.lc-rooms"},
				"bathrooms":   {"span[data-qa='bathrooms']", "li.lc-baths"},
				"parking":     {"li.lc-parking"},
				"location":    {"div.lc-location", "span[data-qa='posting-location']"},
				"url":         {"a.lc-cardCover@href", "a.lc-title@href"},
				"image":       {"img.lc-image@src", "img@data-src"},
				"description": {"div.lc-description"},
				FieldNextPage: {"a[rel='next']", "li.pagination-next a"},
			},
			RegexPatterns: map[string][]*regexp.Regexp{
				"area":      areaPatterns,
				"rooms":     roomPatterns,
				"bathrooms": bathPatterns,
				"parking":   parkingPatterns,
				"stratum":   stratumPatterns,
				"price":     pricePatterns,
			},
			NumericRanges: defaultNumericRanges,
		},
		Output: OutputMapping{
			FieldMappings: map[string]string{
				"location": "location.address",
			},
			Transformations: map[string]TransformFunc{
				"title":    rejectRoomRentals,
				"adminFee": includedFeeIsZero,
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: Performance{
			RequestsPerMinute:     30,
			DelayBetweenRequests:  2 * time.Second,
			MaxConcurrentRequests: 2,
			Timeout:               45 * time.Second,
			MaxPages:              5,
		},
		Hooks: []Hook{stripTrackingParams},
	}
}

// Metrocuadrado hydrates its result grid client-side; only the rendered
// DOM carries cards.
func Metrocuadrado() *SourceSchema {
	return &SourceSchema{
		ID:      "metrocuadrado",
		Name:    "Metrocuadrado",
		BaseURL: "https://www.metrocuadrado.com",
		Input: InputMapping{
			URLBuilder: func(c models.Criteria, page int) string {
				seg := operationSegment(c.Operation, "arriendo", "venta")
				u := fmt.Sprintf("https://www.metrocuadrado.com/apartamento/%s/%s", seg, citySlug(c, "bogota"))
				q := url.Values{"search": {"form"}}
				if c.Rooms.Min > 0 {
					q.Set("minhabitaciones", fmt.Sprintf("%.0f", c.Rooms.Min))
				}
				if c.Bathrooms.Min > 0 {
					q.Set("minbanos", fmt.Sprintf("%.0f", c.Bathrooms.Min))
				}
				if c.Price.Max > 0 {
					q.Set("valorhasta", fmt.Sprintf("%.0f", c.Price.Max))
				}
				if page > 1 {
					q.Set("offset", fmt.Sprintf("%d", (page-1)*50))
				}
				return u + "?" + q.Encode()
			},
			SupportedFilters:      []string{"operation", "propertyTypes", "city", "rooms", "bathrooms", "price"},
			RequiresPostFiltering: []string{"area", "parking", "neighborhoods"},
		},
		Extraction: Extraction{
			Method:      models.FetchRendered,
			SettleDelay: 5 * time.Second,
			Selectors: map[string][]string{
				FieldCard:     {"li.sc-gPEVay", "div.card-result", "article.m2-card"},
				"title":       {"div.card-header h2", "a.card-title"},
				"price":       {"p.price", "span.card-price"},
				"area":        {"div.detail-result span.m2", "li.icon-area"},
				"rooms":       {"div.detail-result span.rooms", "li.icon-rooms"},
				"bathrooms":   {"div.detail-result span.baths", "li.icon-baths"},
				"parking":     {"li.icon-parking"},
				"location":    {"div.card-header p.location", "span.card-location"},
				"url":         {"a.sc-bdVaJa@href", "a.card-link@href"},
				"image":       {"img.card-image@src", "img@data-src"},
				FieldNextPage: {"a.page-link[rel='next']", "li.next:not(.disabled) a"},
			},
			RegexPatterns: map[string][]*regexp.Regexp{
				"area":      areaPatterns,
				"rooms":     roomPatterns,
				"bathrooms": bathPatterns,
				"parking":   parkingPatterns,
				"stratum":   stratumPatterns,
			},
			NumericRanges: defaultNumericRanges,
		},
		Output: OutputMapping{
			FieldMappings: map[string]string{
				"location": "location.neighborhood",
			},
			Transformations: map[string]TransformFunc{
				"title": collapseWhitespace,
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: Performance{
			RequestsPerMinute:     12,
			DelayBetweenRequests:  4 * time.Second,
			MaxConcurrentRequests: 1,
			Timeout:               90 * time.Second,
			MaxPages:              3,
		},
	}
}

// Ciencuadras serves static HTML but hides the card anchor behind script;
// the listing URL is recovered from the CDN image path.
func Ciencuadras() *SourceSchema {
	return &SourceSchema{
		ID:      "ciencuadras",
		Name:    "Ciencuadras",
		BaseURL: "https://www.ciencuadras.com",
		Input: InputMapping{
			URLBuilder: func(c models.Criteria, page int) string {
				seg := operationSegment(c.Operation, "arriendo", "venta")
				u := fmt.Sprintf("https://www.ciencuadras.com/%s/apartamento/%s", seg, citySlug(c, "bogota"))
				if page > 1 {
					u += fmt.Sprintf("/pagina%d", page)
				}
				q := url.Values{}
				if c.Price.Max > 0 {
					q.Set("valorMax", fmt.Sprintf("%.0f", c.Price.Max))
				}
				if enc := q.Encode(); enc != "" {
					u += "?" + enc
				}
				return u
			},
			SupportedFilters:      []string{"operation", "propertyTypes", "city", "price"},
			RequiresPostFiltering: []string{"rooms", "bathrooms", "parking", "area", "neighborhoods"},
		},
		Extraction: Extraction{
			Method:        models.FetchStatic,
			RenderCapable: true,
			SettleDelay:   4 * time.Second,
			Selectors: map[string][]string{
				FieldCard:     {"app-card-result", "div.card__container"},
				"title":       {"h2.card__title", "p.card__description"},
				"price":       {"p.card__price", "span.price-value"},
				"adminFee":    {"span.card__admin"},
				"area":        {"span.card__area"},
				"rooms":       {"span.card__rooms"},
				"bathrooms":   {"span.card__bathrooms"},
				"location":    {"p.card__location"},
				"url":         {"a.card__link@href"},
				"image":       {"img.card__img@src", "img.card__img@data-src"},
				FieldNextPage: {"li.pagination__next a", "button.next-page:not([disabled])"},
			},
			RegexPatterns: map[string][]*regexp.Regexp{
				"area":      areaPatterns,
				"rooms":     roomPatterns,
				"bathrooms": bathPatterns,
				"parking":   parkingPatterns,
				"stratum":   stratumPatterns,
			},
			NumericRanges: defaultNumericRanges,
		},
		Output: OutputMapping{
			FieldMappings: map[string]string{
				"location": "location.address",
			},
			Transformations: map[string]TransformFunc{
				"title":    rejectRoomRentals,
				"adminFee": includedFeeIsZero,
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: Performance{
			RequestsPerMinute:     20,
			DelayBetweenRequests:  3 * time.Second,
			MaxConcurrentRequests: 2,
			Timeout:               60 * time.Second,
			MaxPages:              4,
		},
		Hooks: []Hook{urlFromImagePath},
	}
}

// Trovit is an aggregator of aggregators; cards are thin but the listing
// URL embeds most numeric attributes.
func Trovit() *SourceSchema {
	return &SourceSchema{
		ID:      "trovit",
		Name:    "Trovit",
		BaseURL: "https://casas.trovit.com.co",
		Input: InputMapping{
			URLBuilder: func(c models.Criteria, page int) string {
				// type.1 = rent, type.2 = sale in Trovit's path scheme.
				t := operationSegment(c.Operation, "1", "2")
				u := fmt.Sprintf("https://casas.trovit.com.co/index.php/cod.search_homes/type.%s/what_d.%s",
					t, url.PathEscape(citySlug(c, "bogota")))
				if c.Rooms.Min > 0 {
					u += fmt.Sprintf("/rooms_min.%.0f", c.Rooms.Min)
				}
				if c.Price.Max > 0 {
					u += fmt.Sprintf("/price_max.%.0f", c.Price.Max)
				}
				if page > 1 {
					u += fmt.Sprintf("/page.%d", page)
				}
				return u
			},
			SupportedFilters:      []string{"operation", "city", "rooms", "price"},
			RequiresPostFiltering: []string{"bathrooms", "parking", "area", "neighborhoods"},
		},
		Extraction: Extraction{
			Method: models.FetchStatic,
			Selectors: map[string][]string{
				FieldCard:     {"div.snippet-wrapper", "article.snippet"},
				"title":       {"h2.snippet-title a", "a.rd-link"},
				"price":       {"span.actual-price", "div.price span.amount"},
				"area":        {"div.item-property.item-size"},
				"rooms":       {"div.item-property.item-rooms"},
				"bathrooms":   {"div.item-property.item-baths"},
				"location":    {"span.address", "div.snippet-location"},
				"url":         {"h2.snippet-title a@href", "a.rd-link@href"},
				"image":       {"img.thumbnail@src"},
				"description": {"div.snippet-description"},
				FieldNextPage: {"a#pagination-next", "li.next a"},
			},
			RegexPatterns: map[string][]*regexp.Regexp{
				"area":      areaPatterns,
				"rooms":     roomPatterns,
				"bathrooms": bathPatterns,
				"parking":   parkingPatterns,
			},
			NumericRanges: defaultNumericRanges,
		},
		Output: OutputMapping{
			FieldMappings: map[string]string{
				"location": "location.neighborhood",
			},
			Transformations: map[string]TransformFunc{
				"title": collapseWhitespace,
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: Performance{
			RequestsPerMinute:     15,
			DelayBetweenRequests:  3 * time.Second,
			MaxConcurrentRequests: 1,
			Timeout:               45 * time.Second,
			MaxPages:              5,
		},
		Hooks: []Hook{numbersFromListingURL, stripTrackingParams},
	}
}

// Properati exposes clean server-rendered markup and tolerant pagination.
func Properati() *SourceSchema {
	return &SourceSchema{
		ID:      "properati",
		Name:    "Properati",
		BaseURL: "https://www.properati.com.co",
		Input: InputMapping{
			URLBuilder: func(c models.Criteria, page int) string {
				seg := operationSegment(c.Operation, "arriendo", "venta")
				u := fmt.Sprintf("https://www.properati.com.co/s/%s/apartamento/%s", citySlug(c, "bogota"), seg)
				q := url.Values{}
				if c.Rooms.Min > 0 {
					q.Set("bedrooms.gte", fmt.Sprintf("%.0f", c.Rooms.Min))
				}
				if c.Price.Max > 0 {
					q.Set("price.lte", fmt.Sprintf("%.0f", c.Price.Max))
				}
				if c.Area.Min > 0 {
					q.Set("floor_area.gte", fmt.Sprintf("%.0f", c.Area.Min))
				}
				if page > 1 {
					q.Set("page", fmt.Sprintf("%d", page))
				}
				if enc := q.Encode(); enc != "" {
					u += "?" + enc
				}
				return u
			},
			SupportedFilters:      []string{"operation", "propertyTypes", "city", "rooms", "price", "area"},
			RequiresPostFiltering: []string{"bathrooms", "parking", "neighborhoods"},
		},
		Extraction: Extraction{
			Method: models.FetchStatic,
			Selectors: map[string][]string{
				FieldCard:     {"article.snippet", "div.listing-card"},
				"title":       {"h2.snippet__title", "a.title"},
				"price":       {"div.snippet__price", "span.price"},
				"area":        {"span.properties__area"},
				"rooms":       {"span.properties__bedrooms"},
				"bathrooms":   {"span.properties__bathrooms"},
				"location":    {"div.snippet__location"},
				"url":         {"a.snippet__href@href"},
				"image":       {"img.snippet__image@src", "img@data-lazy"},
				"description": {"p.snippet__description"},
				FieldNextPage: {"a.pagination__next", "link[rel='next']@href"},
			},
			RegexPatterns: map[string][]*regexp.Regexp{
				"area":      areaPatterns,
				"rooms":     roomPatterns,
				"bathrooms": bathPatterns,
				"parking":   parkingPatterns,
				"stratum":   stratumPatterns,
			},
			NumericRanges: defaultNumericRanges,
		},
		Output: OutputMapping{
			FieldMappings: map[string]string{
				"location": "location.neighborhood",
			},
			Transformations: map[string]TransformFunc{
				"title": rejectRoomRentals,
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: Performance{
			RequestsPerMinute:     30,
			DelayBetweenRequests:  2 * time.Second,
			MaxConcurrentRequests: 2,
			Timeout:               45 * time.Second,
			MaxPages:              5,
		},
		Hooks: []Hook{stripTrackingParams},
	}
}
