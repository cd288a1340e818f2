package services

import (
	"strings"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// ScoreFunc ranks one listing against the search criteria. It must be pure
// and side-effect free; the business formula is an external collaborator
// and callers may inject their own.
type ScoreFunc func(l *models.Listing, c models.Criteria) float64

// DefaultScore is a plain preference-weight scorer used when the caller
// injects nothing: cheaper within budget, bigger, more rooms, and matching
// neighborhoods score higher.
func DefaultScore(l *models.Listing, c models.Criteria) float64 {
	w := c.Weights
	if w.Price == 0 && w.Area == 0 && w.Rooms == 0 && w.Location == 0 {
		w = models.Weights{Price: 1, Area: 1, Rooms: 1, Location: 1}
	}

	var score float64

	if c.Price.Max > 0 && l.TotalPrice > 0 {
		headroom := (c.Price.Max - l.TotalPrice) / c.Price.Max
		if headroom > 0 {
			score += w.Price * headroom * 100
		}
	}

	if l.Area > 0 {
		// 100 m² saturates the area component.
		area := l.Area
		if area > 100 {
			area = 100
		}
		score += w.Area * area
	}

	score += w.Rooms * float64(l.Rooms) * 10

	for _, hood := range c.Location.Neighborhoods {
		if containsFold(l.Location.Neighborhood, hood) || containsFold(l.Location.Address, hood) {
			score += w.Location * 50
			break
		}
	}

	return score
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
