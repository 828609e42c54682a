package filter

import "errors"

var (
	ErrUnknownMealType = errors.New("meal type must be one of Breakfast, Lunch, Dinner or Snack")
	ErrUnknownEvent    = errors.New("unknown filter event")
)
