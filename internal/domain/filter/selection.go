package filter

// Selection is an immutable snapshot of the user's search constraints.
// Every transition returns a new value; the receiver is never modified.
type Selection struct {
	meal      MealType
	allergies []string
	diets     []string
	cookTime  string
}

// NewSelection returns the selection a fresh form starts with
func NewSelection() Selection {
	return Selection{
		meal:     DefaultMeal,
		cookTime: DefaultCookTime,
	}
}

// NewSelectionFrom builds a selection from already-parsed values. Tags keep
// their given order; repeats are dropped after the first occurrence. An
// invalid meal yields ErrUnknownMealType.
func NewSelectionFrom(meal MealType, allergies, diets []string, cookTime string) (Selection, error) {
	if !meal.IsValid() {
		return Selection{}, ErrUnknownMealType
	}
	return Selection{
		meal:      meal,
		allergies: uniq(allergies),
		diets:     uniq(diets),
		cookTime:  cookTime,
	}, nil
}

// Meal returns the selected meal type
func (s Selection) Meal() MealType {
	if s.meal == "" {
		return DefaultMeal
	}
	return s.meal
}

// Allergies returns the allergy tags in selection order
func (s Selection) Allergies() []string {
	return clone(s.allergies)
}

// Diets returns the diet tags in selection order
func (s Selection) Diets() []string {
	return clone(s.diets)
}

// CookTime returns the cook time ceiling exactly as entered.
// Empty means no preference.
func (s Selection) CookTime() string {
	return s.cookTime
}

// HasAllergy reports whether tag is currently checked
func (s Selection) HasAllergy(tag string) bool {
	return indexOf(s.allergies, tag) >= 0
}

// HasDiet reports whether tag is currently checked
func (s Selection) HasDiet(tag string) bool {
	return indexOf(s.diets, tag) >= 0
}

// WithMeal returns a copy with the meal replaced
func (s Selection) WithMeal(m MealType) (Selection, error) {
	if !m.IsValid() {
		return s, ErrUnknownMealType
	}
	next := s.copy()
	next.meal = m
	return next, nil
}

// ToggleAllergy checks or unchecks an allergy tag. Checking appends the tag
// to the end of the selection order; checking an already checked tag and
// unchecking an absent one are no-ops.
func (s Selection) ToggleAllergy(tag string, checked bool) Selection {
	next := s.copy()
	next.allergies = toggle(next.allergies, tag, checked)
	return next
}

// ToggleDiet checks or unchecks a diet tag, same rules as ToggleAllergy
func (s Selection) ToggleDiet(tag string, checked bool) Selection {
	next := s.copy()
	next.diets = toggle(next.diets, tag, checked)
	return next
}

// WithCookTime returns a copy with the cook time ceiling replaced
func (s Selection) WithCookTime(v string) Selection {
	next := s.copy()
	next.cookTime = v
	return next
}

// Equal compares two selections field by field, tag order included
func (s Selection) Equal(o Selection) bool {
	return s.Meal() == o.Meal() &&
		s.cookTime == o.cookTime &&
		equalOrdered(s.allergies, o.allergies) &&
		equalOrdered(s.diets, o.diets)
}

func (s Selection) copy() Selection {
	return Selection{
		meal:      s.meal,
		allergies: clone(s.allergies),
		diets:     clone(s.diets),
		cookTime:  s.cookTime,
	}
}

func toggle(tags []string, tag string, checked bool) []string {
	i := indexOf(tags, tag)
	switch {
	case checked && i < 0:
		return append(tags, tag)
	case !checked && i >= 0:
		return append(tags[:i], tags[i+1:]...)
	default:
		return tags
	}
}

func uniq(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if indexOf(out, t) < 0 {
			out = append(out, t)
		}
	}
	return out
}

func indexOf(tags []string, tag string) int {
	for i, t := range tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func clone(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
