package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
)

// Header is the column layout of the weight table.
var Header = []string{"Model", "Weight fraction", "Weight"}

// WriteCSV writes one row per entry. Unresolved entries are rendered as NA in
// both weight columns.
func WriteCSV(w io.Writer, r *lookup.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range r.Entries {
		if err := cw.Write([]string{e.Name, e.FractionString(), FormatWeight(e)}); err != nil {
			return fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEntries writes the stored entries of a weight run in the same layout
// as WriteCSV.
func WriteEntries(w io.Writer, entries []store.RunEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		weight := lookup.NA
		if e.Weight != nil {
			weight = strconv.FormatFloat(*e.Weight, 'g', -1, 64)
		}
		if err := cw.Write([]string{e.Name, e.Fraction, weight}); err != nil {
			return fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatWeight renders the floating point weight, or NA when unresolved.
func FormatWeight(e lookup.Entry) string {
	if !e.Resolved {
		return lookup.NA
	}
	return strconv.FormatFloat(e.Weight, 'g', -1, 64)
}
