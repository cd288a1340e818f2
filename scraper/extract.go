package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
)

// numericBlobThreshold: a numeric field whose selector grabbed more runes
// than this almost certainly matched the wrong element, so the regex chain
// gets a chance to override it.
const numericBlobThreshold = 12

// selectCards returns the listing-card nodes of a results page. The first
// selector in the card chain that yields at least one match wins.
func selectCards(doc *goquery.Document, s *schema.SourceSchema) *goquery.Selection {
	for _, sel := range s.Extraction.Selectors[schema.FieldCard] {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// hasNextPage checks the schema's next-page indicator chain.
func hasNextPage(doc *goquery.Document, s *schema.SourceSchema) bool {
	chain := s.Extraction.Selectors[schema.FieldNextPage]
	if len(chain) == 0 {
		return false
	}
	for _, sel := range chain {
		target := sel
		if at := strings.LastIndex(sel, "@"); at > 0 {
			target = sel[:at]
		}
		if doc.Find(target).Length() > 0 {
			return true
		}
	}
	return false
}

// extractRecord reads every schema field off one card node: selector chain
// first, then the regex fallback chain against the card's full text. For
// fields with a sanity range an in-range regex hit overrides the selector
// result when the selector found nothing or an implausible blob.
func extractRecord(card *goquery.Selection, s *schema.SourceSchema) models.RawRecord {
	rec := make(models.RawRecord)
	fullText := card.Text()

	for field, chain := range s.Extraction.Selectors {
		if field == schema.FieldCard || field == schema.FieldNextPage {
			continue
		}
		rec[field] = extractBySelectors(card, chain)
	}

	for field, patterns := range s.Extraction.RegexPatterns {
		rng, ranged := s.Extraction.NumericRanges[field]

		current := rec[field]
		needFallback := current == "" ||
			(ranged && len([]rune(current)) > numericBlobThreshold)
		if !needFallback {
			continue
		}

		if v, ok := extractByRegex(fullText, patterns, rng, ranged); ok {
			rec[field] = v
		}
	}

	for field, v := range rec {
		if v == "" {
			delete(rec, field)
		}
	}
	return rec
}

// extractBySelectors tries each selector in order and returns the first
// non-empty text (or attribute, for "selector@attr" entries).
func extractBySelectors(card *goquery.Selection, chain []string) string {
	for _, sel := range chain {
		attr := ""
		target := sel
		if at := strings.LastIndex(sel, "@"); at > 0 {
			target, attr = sel[:at], sel[at+1:]
		}

		found := card.Find(target).First()
		if found.Length() == 0 {
			continue
		}

		var v string
		if attr != "" {
			v, _ = found.Attr(attr)
		} else {
			v = found.Text()
		}
		v = strings.Join(strings.Fields(v), " ")
		if v != "" {
			return v
		}
	}
	return ""
}

// extractByRegex runs the pattern chain and returns the first capture
// whose numeric value is inside the sanity range (when one applies).
func extractByRegex(text string, patterns []*regexp.Regexp, rng schema.NumericRange, ranged bool) (string, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			candidate := strings.TrimSpace(m[1])
			if !ranged {
				return candidate, true
			}
			v, ok := parseNumber(candidate)
			if ok && rng.Contains(v) {
				return candidate, true
			}
		}
	}
	return "", false
}

// parseNumber parses numbers as formatted in Colombian listings, where "."
// separates thousands and "," decimals ("1.500.000", "72,5").
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
