package storage

import (
	"context"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

// ListingCache is the persistence boundary for finished searches: results
// are saved under the criteria hash and served back until they expire.
type ListingCache interface {
	Save(ctx context.Context, criteriaHash string, listings []*models.Listing) error
	LoadCached(ctx context.Context, criteriaHash string) ([]*models.Listing, bool, error)
	Close() error
}
