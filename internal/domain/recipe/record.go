// Package recipe holds the display-side view of recipes returned by a search
package recipe

import "encoding/json"

// Record is one recipe ready for display. It is immutable once created.
type Record struct {
	title           string
	imageURL        string
	sourceName      string
	ingredientLines []string
	detailURL       string
	calories        float64
}

// NewRecord builds a record. The ingredient slice is copied.
func NewRecord(title, imageURL, sourceName string, ingredientLines []string, detailURL string, calories float64) Record {
	return Record{
		title:           title,
		imageURL:        imageURL,
		sourceName:      sourceName,
		ingredientLines: cloneLines(ingredientLines),
		detailURL:       detailURL,
		calories:        calories,
	}
}

func (r Record) Title() string      { return r.title }
func (r Record) ImageURL() string   { return r.imageURL }
func (r Record) SourceName() string { return r.sourceName }
func (r Record) DetailURL() string  { return r.detailURL }

// Calories is the raw value from the search response
func (r Record) Calories() float64 { return r.calories }

// FormattedCalories renders Calories to five significant figures
func (r Record) FormattedCalories() string { return FormatCalories(r.calories) }

// IngredientLines returns the lines in their original order
func (r Record) IngredientLines() []string { return cloneLines(r.ingredientLines) }

// Equal compares every field, ingredient order included
func (r Record) Equal(o Record) bool {
	if r.title != o.title || r.imageURL != o.imageURL || r.sourceName != o.sourceName ||
		r.detailURL != o.detailURL || r.calories != o.calories {
		return false
	}
	if len(r.ingredientLines) != len(o.ingredientLines) {
		return false
	}
	for i := range r.ingredientLines {
		if r.ingredientLines[i] != o.ingredientLines[i] {
			return false
		}
	}
	return true
}

type recordJSON struct {
	Title           string   `json:"title" yaml:"title"`
	ImageURL        string   `json:"imageUrl" yaml:"imageUrl"`
	SourceName      string   `json:"sourceName" yaml:"sourceName"`
	IngredientLines []string `json:"ingredientLines" yaml:"ingredientLines"`
	DetailURL       string   `json:"detailUrl" yaml:"detailUrl"`
	Calories        float64  `json:"calories" yaml:"calories"`
}

func (r Record) data() recordJSON {
	lines := cloneLines(r.ingredientLines)
	if lines == nil {
		lines = []string{}
	}
	return recordJSON{
		Title:           r.title,
		ImageURL:        r.imageURL,
		SourceName:      r.sourceName,
		IngredientLines: lines,
		DetailURL:       r.detailURL,
		Calories:        r.calories,
	}
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.data())
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(b []byte) error {
	var d recordJSON
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*r = NewRecord(d.Title, d.ImageURL, d.SourceName, d.IngredientLines, d.DetailURL, d.Calories)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (r Record) MarshalYAML() (interface{}, error) {
	return r.data(), nil
}

func cloneLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
