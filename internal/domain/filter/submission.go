package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is the declared shape of the search form. Only structure is
// checked: the tag arrays must be arrays of strings and the cook time must be
// a string. Vocabulary membership and numeric range are left alone.
type Submission struct {
	Items    []string `json:"items" validate:"required"`
	Diets    []string `json:"diets" validate:"required"`
	CookTime *string  `json:"cook_time" validate:"required"`
	// Meal is only read by clients without a separate meal selector.
	Meal string `json:"meal,omitempty" validate:"omitempty,meal_type"`
}

// FieldError describes one rejected field
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Result is the tagged outcome of validating a submission. When Valid is
// false Submission is the zero value and Errors holds at least one entry.
type Result struct {
	Valid      bool
	Submission Submission
	Errors     []FieldError
}

// Error joins the field messages, or returns "" for a valid result
func (r Result) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, fe := range r.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// FieldMessage returns the first message recorded for field
func (r Result) FieldMessage(field string) string {
	for _, fe := range r.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("meal_type", func(fl validator.FieldLevel) bool {
		_, err := ParseMealType(fl.Field().String())
		return err == nil
	})
	return v
}

// NewSubmission builds a submission from typed values
func NewSubmission(items, diets []string, cookTime string) Submission {
	if items == nil {
		items = []string{}
	}
	if diets == nil {
		diets = []string{}
	}
	return Submission{Items: items, Diets: diets, CookTime: &cookTime}
}

// CookTimeValue dereferences CookTime; a missing value reads as ""
func (s Submission) CookTimeValue() string {
	if s.CookTime == nil {
		return ""
	}
	return *s.CookTime
}

// ApplyTo copies the form-owned fields onto sel, preserving tag order
func (s Submission) ApplyTo(sel Selection) (Selection, error) {
	meal := sel.Meal()
	if s.Meal != "" {
		m, err := ParseMealType(s.Meal)
		if err != nil {
			return sel, err
		}
		meal = m
	}
	return NewSelectionFrom(meal, s.Items, s.Diets, s.CookTimeValue())
}

// Validate checks an already typed submission
func Validate(s Submission) Result {
	if err := validate.Struct(s); err != nil {
		return rejected(translate(err))
	}
	return Result{Valid: true, Submission: s}
}

// ValidateJSON decodes and checks a JSON object body. A field holding the
// wrong JSON type is reported against that field; every field is examined so
// all problems surface at once.
func ValidateJSON(data []byte) Result {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return rejected([]FieldError{{
			Field:   "",
			Tag:     "object",
			Message: "submission must be a JSON object",
		}})
	}

	var (
		sub  Submission
		errs []FieldError
	)
	decodeField(raw, "items", &sub.Items, "items must be an array of strings", &errs)
	decodeField(raw, "diets", &sub.Diets, "diets must be an array of strings", &errs)
	decodeField(raw, "cook_time", &sub.CookTime, "cook_time must be a string", &errs)
	decodeField(raw, "meal", &sub.Meal, "meal must be a string", &errs)

	if err := validate.Struct(sub); err != nil {
		for _, fe := range translate(err) {
			if !hasField(errs, fe.Field) {
				errs = append(errs, fe)
			}
		}
	}
	if len(errs) > 0 {
		return rejected(errs)
	}
	return Result{Valid: true, Submission: sub}
}

// ValidateForm reads an urlencoded form. Checkbox groups with nothing checked
// are absent from a browser post and read as empty arrays; the cook time
// field must be present.
func ValidateForm(form url.Values) Result {
	sub := Submission{
		Items: nonNil(form["items"]),
		Diets: nonNil(form["diets"]),
		Meal:  form.Get("meal"),
	}
	if vals, ok := form["cook_time"]; ok && len(vals) > 0 {
		v := vals[0]
		sub.CookTime = &v
	}
	return Validate(sub)
}

func decodeField(raw map[string]json.RawMessage, name string, dst interface{}, msg string, errs *[]FieldError) {
	data, ok := raw[name]
	if !ok {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		*errs = append(*errs, FieldError{Field: name, Tag: "type", Message: msg})
	}
}

func translate(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Tag: "invalid", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "meal_type":
		return ErrUnknownMealType.Error()
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func rejected(errs []FieldError) Result {
	return Result{Valid: false, Errors: errs}
}

func hasField(errs []FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
