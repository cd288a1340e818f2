package services

import (
	"fmt"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// priceBucketEdges delimit the summary histogram (COP per month).
var priceBucketEdges = []float64{1_000_000, 2_000_000, 3_000_000, 5_000_000}

// buildSummary aggregates a finished search: counts per source and
// neighborhood, price/area averages, and a price-bucket histogram. An empty
// input yields a zero-count summary, not an error.
func buildSummary(listings []*models.Listing) *models.Summary {
	s := &models.Summary{
		Total:          len(listings),
		BySource:       make(map[string]int),
		ByNeighborhood: make(map[string]int),
		PriceBuckets:   make(map[string]int),
	}
	if len(listings) == 0 {
		return s
	}

	var priceSum, priceCount, areaSum, areaCount float64
	for _, l := range listings {
		s.BySource[l.Source]++
		if l.Location.Neighborhood != "" {
			s.ByNeighborhood[l.Location.Neighborhood]++
		}
		if l.TotalPrice > 0 {
			priceSum += l.TotalPrice
			priceCount++
		}
		if l.Area > 0 {
			areaSum += l.Area
			areaCount++
		}
		s.PriceBuckets[priceBucket(l.TotalPrice)]++
	}

	if priceCount > 0 {
		s.AveragePrice = round2(priceSum / priceCount)
	}
	if areaCount > 0 {
		s.AverageArea = round2(areaSum / areaCount)
	}
	return s
}

func priceBucket(price float64) string {
	prev := 0.0
	for _, edge := range priceBucketEdges {
		if price <= edge {
			return fmt.Sprintf("%s-%s", millions(prev), millions(edge))
		}
		prev = edge
	}
	return fmt.Sprintf("%s+", millions(prev))
}

func millions(v float64) string {
	return fmt.Sprintf("%.1fM", v/1_000_000)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
