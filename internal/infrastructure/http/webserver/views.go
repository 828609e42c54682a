package webserver

import (
	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// optionView is one checkbox of a tag group
type optionView struct {
	ID      string
	Label   string
	Checked bool
}

// pageView is what every page and partial template receives
type pageView struct {
	Title     string
	Meal      filter.MealType
	Meals     []filter.MealType
	Allergies []optionView
	Diets     []optionView
	CookTime  string
	Loading   bool
	Results   []recipe.Record
	Notices   []search.Notice
	Errors    []filter.FieldError
	// OOB marks regions of a partial response that htmx swaps out of band
	OOB bool
	// Message is the text of an error fragment
	Message string
}

func newPageView(title string, state search.State, notices []search.Notice) pageView {
	sel := state.Filters
	return pageView{
		Title:     title,
		Meal:      sel.Meal(),
		Meals:     filter.MealTypes(),
		Allergies: optionViews(filter.AllergyOptions(), sel.HasAllergy),
		Diets:     optionViews(filter.DietOptions(), sel.HasDiet),
		CookTime:  sel.CookTime(),
		Loading:   state.IsLoading(),
		Results:   state.Results.Records(),
		Notices:   notices,
		Errors:    state.FormErrors,
	}
}

func optionViews(opts []filter.Option, checked func(string) bool) []optionView {
	views := make([]optionView, len(opts))
	for i, o := range opts {
		views[i] = optionView{ID: o.ID, Label: o.Label, Checked: checked(o.ID)}
	}
	return views
}
