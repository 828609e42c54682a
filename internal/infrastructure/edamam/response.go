package edamam

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// ErrMissingHits is returned when a JSON body carries no hits array
var ErrMissingHits = errors.New("response has no hits array")

// SearchResponse is the subset of the v2 search response the frontend uses.
// Hits is a pointer so an absent or null array can be told apart from an
// empty one.
type SearchResponse struct {
	From  int    `json:"from,omitempty"`
	To    int    `json:"to,omitempty"`
	Count int    `json:"count,omitempty"`
	Hits  *[]Hit `json:"hits"`
}

// Hit wraps a single recipe
type Hit struct {
	Recipe RecipeDTO `json:"recipe"`
}

// RecipeDTO mirrors the recipe object of a hit
type RecipeDTO struct {
	Label           string   `json:"label"`
	Image           string   `json:"image"`
	Source          string   `json:"source"`
	IngredientLines []string `json:"ingredientLines"`
	URL             string   `json:"url"`
	Calories        float64  `json:"calories"`
}

// DecodeResponse parses a response body. Non-JSON bodies and bodies without
// a hits array are errors.
func DecodeResponse(body []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Hits == nil {
		return nil, ErrMissingHits
	}
	return &resp, nil
}

// Records projects every hit onto a display record, in response order
func (r *SearchResponse) Records() []recipe.Record {
	if r == nil || r.Hits == nil {
		return nil
	}
	hits := *r.Hits
	records := make([]recipe.Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, h.Recipe.ToRecord())
	}
	return records
}

// ToRecord is a direct field projection
func (d RecipeDTO) ToRecord() recipe.Record {
	return recipe.NewRecord(d.Label, d.Image, d.Source, d.IngredientLines, d.URL, d.Calories)
}
