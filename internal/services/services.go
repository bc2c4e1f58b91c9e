// package services talks to the external music catalog
package services

import (
	"context"

	"github.com/desertthunder/setlist/internal/models"
)

// Catalog is a searchable source of tracks. [*SpotifyCatalog] implements it.
type Catalog interface {
	// Search returns tracks matching a free-text query.
	Search(ctx context.Context, query string) ([]models.Song, error)

	// Track retrieves a single track by its catalog ID.
	Track(ctx context.Context, trackID string) (*models.Song, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// TokenCache is the read side of [*TokenBroker] that HTTP handlers depend on.
type TokenCache interface {
	AccessTokenSource
	RemainingValiditySeconds() int
}
