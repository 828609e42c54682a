package filter

// Event is a user interaction with one of the filter controls
type Event interface {
	EventName() string
}

// MealSelected is raised by the meal dropdown
type MealSelected struct {
	Meal MealType
}

func (e MealSelected) EventName() string { return "filter.meal.selected" }

// AllergyToggled is raised by an allergy checkbox
type AllergyToggled struct {
	Tag     string
	Checked bool
}

func (e AllergyToggled) EventName() string { return "filter.allergy.toggled" }

// DietToggled is raised by a diet checkbox
type DietToggled struct {
	Tag     string
	Checked bool
}

func (e DietToggled) EventName() string { return "filter.diet.toggled" }

// CookTimeChanged is raised when the cook time field is edited
type CookTimeChanged struct {
	Value string
}

func (e CookTimeChanged) EventName() string { return "filter.cook_time.changed" }

// SubmissionApplied replaces the form-owned fields with a validated
// submission. The meal is kept unless the submission names one.
type SubmissionApplied struct {
	Submission Submission
}

func (e SubmissionApplied) EventName() string { return "filter.submission.applied" }

// Reset restores the defaults of a fresh form
type Reset struct{}

func (e Reset) EventName() string { return "filter.reset" }

// Apply is the transition function for filter state. On error the input
// selection is returned unchanged.
func Apply(s Selection, e Event) (Selection, error) {
	switch ev := e.(type) {
	case MealSelected:
		return s.WithMeal(ev.Meal)
	case AllergyToggled:
		return s.ToggleAllergy(ev.Tag, ev.Checked), nil
	case DietToggled:
		return s.ToggleDiet(ev.Tag, ev.Checked), nil
	case CookTimeChanged:
		return s.WithCookTime(ev.Value), nil
	case SubmissionApplied:
		return ev.Submission.ApplyTo(s)
	case Reset:
		return NewSelection(), nil
	default:
		return s, ErrUnknownEvent
	}
}
