package schema

import (
	"regexp"
	"strings"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// Correction hooks. Each one patches a structural idiosyncrasy of a single
// provider's markup and is attached to that provider's schema.

var cdnListingID = regexp.MustCompile(`/(?:inmueble|fotos/inmueble)-(\d+)/`)

// urlFromImagePath derives the listing URL from the CDN image path when the
// card anchor is missing or javascript-generated. Ciencuadras serves card
// photos from paths that embed the listing id.
func urlFromImagePath(rec models.RawRecord, s *SourceSchema) {
	if rec["url"] != "" || rec["image"] == "" {
		return
	}
	m := cdnListingID.FindStringSubmatch(rec["image"])
	if m == nil {
		return
	}
	rec["url"] = s.BaseURL + "/inmueble/" + m[1]
}

var urlAttrPattern = regexp.MustCompile(`\b(habitaciones|banos|area|garajes)[.=-](\d{1,4})`)

// numbersFromListingURL pulls numeric attributes Trovit embeds in the
// listing URL itself (".../habitaciones.3/banos.2/area.80/...") into the
// record, but only for fields the selectors left empty.
func numbersFromListingURL(rec models.RawRecord, _ *SourceSchema) {
	u := rec["url"]
	if u == "" {
		return
	}
	for _, m := range urlAttrPattern.FindAllStringSubmatch(strings.ToLower(u), -1) {
		var field string
		switch m[1] {
		case "habitaciones":
			field = "rooms"
		case "banos":
			field = "bathrooms"
		case "area":
			field = "area"
		case "garajes":
			field = "parking"
		}
		if field != "" && rec[field] == "" {
			rec[field] = m[2]
		}
	}
}

var trackingParams = regexp.MustCompile(`[?&](?:utm_[a-z]+|gclid|fbclid)=[^&#]*`)

// stripTrackingParams removes campaign noise so identical listings reached
// through different banners still deduplicate by URL.
func stripTrackingParams(rec models.RawRecord, _ *SourceSchema) {
	u := rec["url"]
	if u == "" {
		return
	}
	cleaned := trackingParams.ReplaceAllString(u, "")
	cleaned = strings.TrimRight(cleaned, "?&")
	rec["url"] = cleaned
}
