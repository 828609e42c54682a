// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"

	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// RecipeSearcher runs one search against the recipe API. Exactly one network
// request is made per call, with no retry.
type RecipeSearcher interface {
	Search(ctx context.Context, sel filter.Selection) (*SearchResult, error)
}

// SearchResult is a decoded search response
type SearchResult struct {
	Records []recipe.Record
	// Raw is the response body exactly as received
	Raw []byte
}
