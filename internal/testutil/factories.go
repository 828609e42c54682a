// Package testutil provides test data factories and mocks shared by package tests
package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// HitFactory creates search API hits with realistic looking content
type HitFactory struct {
	faker *gofakeit.Faker
}

// NewHitFactory creates a factory with a seeded faker so failures reproduce
func NewHitFactory(seed int64) *HitFactory {
	return &HitFactory{faker: gofakeit.New(seed)}
}

// RecipeJSON mirrors the recipe object inside a hit
type RecipeJSON struct {
	Label           string   `json:"label"`
	Image           string   `json:"image"`
	Source          string   `json:"source"`
	IngredientLines []string `json:"ingredientLines"`
	URL             string   `json:"url"`
	Calories        float64  `json:"calories"`
}

// HitJSON is one element of the hits array
type HitJSON struct {
	Recipe RecipeJSON `json:"recipe"`
}

// Recipe builds one recipe payload
func (f *HitFactory) Recipe() RecipeJSON {
	lines := make([]string, f.faker.Number(1, 6))
	for i := range lines {
		lines[i] = fmt.Sprintf("%d %s %s", f.faker.Number(1, 4), f.faker.Adjective(), f.faker.Vegetable())
	}
	return RecipeJSON{
		Label:           f.faker.Lunch(),
		Image:           f.faker.ImageURL(300, 300),
		Source:          f.faker.Company(),
		IngredientLines: lines,
		URL:             f.faker.URL(),
		Calories:        f.faker.Float64Range(50, 4000),
	}
}

// Hits builds n hits
func (f *HitFactory) Hits(n int) []HitJSON {
	hits := make([]HitJSON, n)
	for i := range hits {
		hits[i] = HitJSON{Recipe: f.Recipe()}
	}
	return hits
}

// Body marshals hits into a search response body
func (f *HitFactory) Body(hits []HitJSON) []byte {
	if hits == nil {
		hits = []HitJSON{}
	}
	body, err := json.Marshal(map[string]interface{}{
		"from":  1,
		"to":    len(hits),
		"count": len(hits),
		"hits":  hits,
	})
	if err != nil {
		panic(err)
	}
	return body
}

// Records projects hits the way the search client does, for comparisons
func Records(hits []HitJSON) []recipe.Record {
	out := make([]recipe.Record, len(hits))
	for i, h := range hits {
		r := h.Recipe
		out[i] = recipe.NewRecord(r.Label, r.Image, r.Source, r.IngredientLines, r.URL, r.Calories)
	}
	return out
}
