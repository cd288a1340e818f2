package services

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

func normalizerSchema() *schema.SourceSchema {
	return &schema.SourceSchema{
		ID:      "stub",
		Name:    "Stub Portal",
		BaseURL: "https://stub.example",
		Input: schema.InputMapping{
			URLBuilder: func(models.Criteria, int) string { return "https://stub.example/s" },
		},
		Extraction: schema.Extraction{
			Method:    models.FetchStatic,
			Selectors: map[string][]string{schema.FieldCard: {"div.card"}},
		},
		Output: schema.OutputMapping{
			FieldMappings: map[string]string{
				"zone":    "location.neighborhood",
				"address": "location.address",
			},
			Transformations: map[string]schema.TransformFunc{
				"title": func(v string, _ models.RawRecord) (string, bool) {
					if strings.Contains(strings.ToLower(v), "habitación en arriendo") {
						return v, false
					}
					return v, true
				},
			},
			Defaults: map[string]string{
				"propertyType":  "apartamento",
				"location.city": "Bogotá",
			},
		},
		Performance: schema.Performance{
			RequestsPerMinute: 10, MaxConcurrentRequests: 1,
			Timeout: time.Minute, MaxPages: 3,
		},
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(utils.NewLogger(false))
}

func TestNormalizeFullRecord(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title":    "  Apartamento en Chapinero Alto  ",
		"price":    "$ 2.500.000",
		"adminFee": "350.000",
		"area":     "72,5 m2",
		"rooms":    "3",
		"zone":     "Chapinero",
		"address":  "Calle 45 #13-25",
		"url":      "/inmueble/123",
		"image":    "//cdn.stub.example/123.jpg",
	}

	l := n.Normalize(raw, normalizerSchema())
	if l == nil {
		t.Fatal("Normalize() = nil; want a listing")
	}
	if l.Title != "Apartamento en Chapinero Alto" {
		t.Errorf("Title = %q", l.Title)
	}
	if l.Price != 2500000 || l.AdminFee != 350000 {
		t.Errorf("Price/AdminFee = %.0f/%.0f; want 2500000/350000", l.Price, l.AdminFee)
	}
	if l.TotalPrice != 2850000 {
		t.Errorf("TotalPrice = %.0f; want price+adminFee", l.TotalPrice)
	}
	if l.Area != 72.5 {
		t.Errorf("Area = %v; want 72.5", l.Area)
	}
	// round(2850000 / 72.5)
	if l.PricePerM2 != 39310 {
		t.Errorf("PricePerM2 = %.0f; want 39310", l.PricePerM2)
	}
	if l.Rooms != 3 {
		t.Errorf("Rooms = %d", l.Rooms)
	}
	if l.URL != "https://stub.example/inmueble/123" {
		t.Errorf("URL = %q; want base-absolutized", l.URL)
	}
	if len(l.Images) != 1 || l.Images[0] != "https://cdn.stub.example/123.jpg" {
		t.Errorf("Images = %v; want protocol-relative upgraded to https", l.Images)
	}
	if l.Location.Neighborhood != "Chapinero" {
		t.Errorf("Neighborhood = %q; want the renamed zone field", l.Location.Neighborhood)
	}
	if l.Location.City != "Bogotá" {
		t.Errorf("City = %q; want the schema default", l.Location.City)
	}
	if l.PropertyType != "apartamento" {
		t.Errorf("PropertyType = %q; want the schema default", l.PropertyType)
	}
	if l.Source != "Stub Portal" {
		t.Errorf("Source = %q", l.Source)
	}
	if !l.IsActive {
		t.Error("IsActive = false; want true by default")
	}
	if l.ID == "" || !strings.HasPrefix(l.ID, "stub-") {
		t.Errorf("ID = %q; want a provider-prefixed id", l.ID)
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := newTestNormalizer()
	s := normalizerSchema()

	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"missing title", models.RawRecord{"price": "$1.000.000"}},
		{"missing price", models.RawRecord{"title": "Apto"}},
		{"unparseable price", models.RawRecord{"title": "Apto", "price": "consultar"}},
		{"transform veto", models.RawRecord{"title": "Habitación en arriendo Chapinero", "price": "$800.000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if l := n.Normalize(tt.raw, s); l != nil {
				t.Errorf("Normalize() = %+v; want rejection", l)
			}
		})
	}
}

func TestNormalizeAllCountsRejections(t *testing.T) {
	n := newTestNormalizer()
	raw := []models.RawRecord{
		{"title": "Apto A", "price": "$1.000.000"},
		{"title": "Apto B", "price": "precio a convenir"},
		{"title": "Apto C", "price": "$2.000.000"},
	}

	listings, rejected := n.NormalizeAll(raw, normalizerSchema())
	if len(listings) != 2 || rejected != 1 {
		t.Errorf("NormalizeAll() = %d listings, %d rejected; want 2 and 1", len(listings), rejected)
	}
}

func TestNormalizeDegradesBadNumericFields(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title": "Apto",
		"price": "$1.500.000",
		"area":  "amplia",
		"rooms": "varios",
	}

	l := n.Normalize(raw, normalizerSchema())
	if l == nil {
		t.Fatal("Normalize() = nil; bad optional fields must degrade, not reject")
	}
	if l.Area != 0 || l.Rooms != 0 {
		t.Errorf("Area/Rooms = %v/%d; want zero (unknown)", l.Area, l.Rooms)
	}
	if l.PricePerM2 != 0 {
		t.Errorf("PricePerM2 = %v; want 0 when area is unknown", l.PricePerM2)
	}
}

func TestNormalizeDropsUnresolvableURLs(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title": "Apto",
		"price": "$1.500.000",
		"url":   "javascript:void(0)",
		"image": "detail.jpg",
	}

	l := n.Normalize(raw, normalizerSchema())
	if l == nil {
		t.Fatal("Normalize() = nil")
	}
	if l.URL != "" {
		t.Errorf("URL = %q; want empty for an unresolvable href", l.URL)
	}
	if len(l.Images) != 0 {
		t.Errorf("Images = %v; want relative paths without a leading slash dropped", l.Images)
	}
}

func TestNormalizeLocationCommaHeuristics(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title":   "Apto",
		"price":   "$1.500.000",
		"address": "Calle 45 #13-25, Chapinero, Bogotá",
	}
	s := normalizerSchema()
	// No structured city for this case; the address tail must supply it.
	s.Output.Defaults = map[string]string{}

	l := n.Normalize(raw, s)
	if l == nil {
		t.Fatal("Normalize() = nil")
	}
	if l.Location.Neighborhood != "Chapinero" || l.Location.City != "Bogotá" {
		t.Errorf("Location = %+v; want neighborhood/city split off the address", l.Location)
	}
}

func TestNormalizeInactiveFlag(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{"title": "Apto", "price": "$1.000.000", "isActive": "false"}

	l := n.Normalize(raw, normalizerSchema())
	if l == nil {
		t.Fatal("Normalize() = nil")
	}
	if l.IsActive {
		t.Error("IsActive = true; want false")
	}
}

func TestNormalizeTruncatesLongText(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title": strings.Repeat("a", 300),
		"price": "$1.000.000",
	}

	l := n.Normalize(raw, normalizerSchema())
	if l == nil {
		t.Fatal("Normalize() = nil")
	}
	if got := len([]rune(l.Title)); got != 200 {
		t.Errorf("len(Title) = %d; want 200", got)
	}
	if !strings.HasSuffix(l.Title, "...") {
		t.Errorf("Title = %q; want an ellipsis suffix", l.Title[190:])
	}
}

func TestNormalizeIsDeterministicPerRecord(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		"title": "Apto en Chapinero",
		"price": "$2.000.000",
		"area":  "60",
		"url":   "https://stub.example/inmueble/9",
	}
	s := normalizerSchema()

	a := n.Normalize(raw, s)
	b := n.Normalize(raw, s)
	if a == nil || b == nil {
		t.Fatal("Normalize() = nil")
	}
	// IDs embed the run timestamp; everything else must match exactly.
	a.ID, b.ID = "", ""
	a.ScrapedAt, b.ScrapedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated normalization differs:\n%+v\n%+v", a, b)
	}
}
