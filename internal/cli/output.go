package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// Format is an output format for search results
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// IsUnknown reports whether f is not a supported format
func (f Format) IsUnknown() bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return false
	default:
		return true
	}
}

// SupportedFormats lists the accepted --format values
func SupportedFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"o"},
	Value:   string(FormatTable),
	Usage:   fmt.Sprintf("Output format (supported values: %v)", SupportedFormats()),
}

// Writer prints recipe records in one format
type Writer struct {
	format Format
	out    io.Writer
}

// NewWriter creates a writer. Unknown formats fall back to table.
func NewWriter(format Format, out io.Writer) *Writer {
	if format.IsUnknown() {
		format = FormatTable
	}
	return &Writer{format: format, out: out}
}

// WriteRecords prints records in response order
func (w *Writer) WriteRecords(records []recipe.Record) error {
	if records == nil {
		records = []recipe.Record{}
	}

	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	default:
		return w.writeTable(records)
	}
}

// writeTable prints one row per record; an empty result prints nothing
func (w *Writer) writeTable(records []recipe.Record) error {
	if len(records) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tCALORIES\tSOURCE\tINGREDIENTS\tURL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.Title(), r.FormattedCalories(), r.SourceName(), len(r.IngredientLines()), r.DetailURL())
	}
	return tw.Flush()
}
