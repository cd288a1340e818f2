package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

func TestDefaultRegistryBuilds(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}

	ids := r.Providers()
	want := []string{"ciencuadras", "fincaraiz", "metrocuadrado", "properati", "trovit"}
	if len(ids) != len(want) {
		t.Fatalf("Providers() = %v; want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Providers()[%d] = %q; want %q", i, ids[i], want[i])
		}
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}

	_, err = r.Get("zillow")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Get(zillow) err = %v; want ErrUnknownProvider", err)
	}
}

func TestRegistryRejectsInvalidSchema(t *testing.T) {
	broken := Fincaraiz()
	broken.Performance.MaxPages = 0

	if _, err := NewRegistry(broken); err == nil {
		t.Error("NewRegistry should reject a zero max-pages budget")
	}

	noCard := Trovit()
	noCard.Extraction.Selectors[FieldCard] = nil
	if _, err := NewRegistry(noCard); err == nil {
		t.Error("NewRegistry should reject a schema without a card selector")
	}
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	if _, err := NewRegistry(Fincaraiz(), Fincaraiz()); err == nil {
		t.Error("NewRegistry should reject duplicate provider ids")
	}
}

func TestApplyOverrides(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}

	orig, _ := r.Get("fincaraiz")
	origDelay := orig.Performance.DelayBetweenRequests

	err = r.ApplyOverrides(map[string]Override{
		"fincaraiz": {MaxPages: 9, Timeout: 10 * time.Second},
	})
	if err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}

	s, _ := r.Get("fincaraiz")
	if s.Performance.MaxPages != 9 {
		t.Errorf("MaxPages = %d; want 9", s.Performance.MaxPages)
	}
	if s.Performance.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v; want 10s", s.Performance.Timeout)
	}
	if s.Performance.DelayBetweenRequests != origDelay {
		t.Errorf("DelayBetweenRequests changed: %v; want %v (zero override keeps value)",
			s.Performance.DelayBetweenRequests, origDelay)
	}
}

func TestApplyOverridesUnknownProvider(t *testing.T) {
	r, _ := DefaultRegistry()
	err := r.ApplyOverrides(map[string]Override{"zillow": {MaxPages: 1}})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v; want ErrUnknownProvider", err)
	}
}

func TestURLBuildersProducePageURLs(t *testing.T) {
	r, _ := DefaultRegistry()
	c := models.Criteria{
		Operation: models.OperationRent,
		Rooms:     models.Range{Min: 2},
		Price:     models.Range{Max: 3_000_000},
		Location:  models.SearchLocation{City: "Bogotá"},
	}

	for _, id := range r.Providers() {
		s, _ := r.Get(id)
		p1 := s.Input.URLBuilder(c, 1)
		p2 := s.Input.URLBuilder(c, 2)
		if p1 == "" {
			t.Errorf("%s: empty page-1 URL", id)
		}
		if p1 == p2 {
			t.Errorf("%s: page 2 URL identical to page 1: %s", id, p1)
		}
	}
}
