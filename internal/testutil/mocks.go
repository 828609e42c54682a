package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/ports/outbound"
)

// MockRecipeSearcher provides a mock implementation of outbound.RecipeSearcher
type MockRecipeSearcher struct {
	mock.Mock
}

var _ outbound.RecipeSearcher = (*MockRecipeSearcher)(nil)

// Search records the call and returns the configured result
func (m *MockRecipeSearcher) Search(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error) {
	args := m.Called(ctx, sel)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.SearchResult), nil
}

// SearcherFunc adapts a function to outbound.RecipeSearcher
type SearcherFunc func(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error)

// Search calls f
func (f SearcherFunc) Search(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error) {
	return f(ctx, sel)
}
