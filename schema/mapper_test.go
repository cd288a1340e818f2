package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

func TestBuildPlanPostFilterSubset(t *testing.T) {
	s := Fincaraiz()
	// fincaraiz post-filters bathrooms, parking and neighborhoods; only the
	// keys actually present in the criteria should survive into the plan.
	c := models.Criteria{
		Operation: models.OperationRent,
		Bathrooms: models.Range{Min: 2},
		Price:     models.Range{Max: 2_500_000},
		Location:  models.SearchLocation{Neighborhoods: []string{"Chapinero"}},
	}

	plan := BuildPlan(c, s)

	if plan.Provider != "fincaraiz" {
		t.Errorf("Provider = %q", plan.Provider)
	}
	if plan.Mode != models.FetchStatic {
		t.Errorf("Mode = %q; want static", plan.Mode)
	}
	want := map[string]bool{"bathrooms": true, "neighborhoods": true}
	if len(plan.PostFilter) != len(want) {
		t.Fatalf("PostFilter = %v; want keys %v", plan.PostFilter, want)
	}
	for _, k := range plan.PostFilter {
		if !want[k] {
			t.Errorf("unexpected post-filter key %q", k)
		}
	}
}

func TestBuildPlanViaRegistry(t *testing.T) {
	r, _ := DefaultRegistry()

	if _, err := r.BuildPlan(models.Criteria{Operation: models.OperationRent}, "nope"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v; want ErrUnknownProvider", err)
	}

	plan, err := r.BuildPlan(models.Criteria{Operation: models.OperationSale}, "trovit")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.URL == "" || plan.PageURL(3) == plan.URL {
		t.Errorf("plan URLs: page1=%q page3=%q", plan.URL, plan.PageURL(3))
	}
}

func TestValidateCriteriaFlagsIgnoredFilters(t *testing.T) {
	s := Trovit() // trovit cannot express nor post-filter stratum
	c := models.Criteria{
		Operation: models.OperationRent,
		Stratum:   models.Range{Min: 4},
	}

	report := ValidateCriteria(c, s)
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "stratum") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings %v should mention the ignored stratum filter", report.Warnings)
	}
}

func TestValidateCriteriaWarnsOnHeavyPostFiltering(t *testing.T) {
	s := Ciencuadras() // post-filters rooms, bathrooms, parking, area, neighborhoods
	c := models.Criteria{
		Operation: models.OperationRent,
		Rooms:     models.Range{Min: 2},
		Bathrooms: models.Range{Min: 1},
		Parking:   models.Range{Min: 1},
		Area:      models.Range{Min: 50},
		Location:  models.SearchLocation{Neighborhoods: []string{"Cedritos"}},
	}

	report := ValidateCriteria(c, s)
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "discard rate") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings %v should warn about the post-filter discard rate", report.Warnings)
	}
}

func TestValidateCriteriaCleanPairing(t *testing.T) {
	s := Fincaraiz()
	c := models.Criteria{
		Operation: models.OperationRent,
		Rooms:     models.Range{Min: 3},
		Price:     models.Range{Max: 3_500_000},
	}

	if report := ValidateCriteria(c, s); len(report.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", report.Warnings)
	}
}
