// Package filter models the search constraints a user picks before asking
// for a surprise recipe: meal type, allergy tags, diet tags and a cook time
// ceiling.
package filter

import "strings"

// MealType is the single-valued meal selector
type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
)

// DefaultMeal is selected when a session starts
const DefaultMeal = MealBreakfast

// DefaultCookTime is the cook time ceiling a fresh form carries
const DefaultCookTime = "1000"

// MealTypes lists the selector options in display order
func MealTypes() []MealType {
	return []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}
}

// IsValid reports whether m is one of the four selector options
func (m MealType) IsValid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

func (m MealType) String() string {
	return string(m)
}

// ParseMealType accepts a selector value case-insensitively
func ParseMealType(s string) (MealType, error) {
	for _, m := range MealTypes() {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", ErrUnknownMealType
}

// Option is one checkbox in a tag group
type Option struct {
	ID    string
	Label string
}

// Allergy tags offered by the form. They are sent under the health key.
const (
	AllergyDairyFree      = "dairy-free"
	AllergyGlutenFree     = "gluten-free"
	AllergyCrustaceanFree = "crustacean-free"
	AllergyRedMeatFree    = "red-meat-free"
	AllergyVegetarian     = "vegetarian"
	AllergyShellfishFree  = "shellfish-free"
)

// Diet tags offered by the form
const (
	DietHighProtein = "high-protein"
	DietLowSodium   = "low-sodium"
	DietBalanced    = "balanced"
)

// AllergyOptions returns the allergy checkbox group in display order
func AllergyOptions() []Option {
	return options(
		AllergyDairyFree,
		AllergyGlutenFree,
		AllergyCrustaceanFree,
		AllergyRedMeatFree,
		AllergyVegetarian,
		AllergyShellfishFree,
	)
}

// DietOptions returns the diet checkbox group in display order
func DietOptions() []Option {
	return options(DietHighProtein, DietLowSodium, DietBalanced)
}

// IsKnownAllergy reports vocabulary membership. Nothing in the search path
// enforces it; unknown tags are forwarded as-is.
func IsKnownAllergy(tag string) bool {
	return contains(AllergyOptions(), tag)
}

// IsKnownDiet reports vocabulary membership for diet tags
func IsKnownDiet(tag string) bool {
	return contains(DietOptions(), tag)
}

func options(ids ...string) []Option {
	out := make([]Option, len(ids))
	for i, id := range ids {
		out[i] = Option{ID: id, Label: id}
	}
	return out
}

func contains(opts []Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}
