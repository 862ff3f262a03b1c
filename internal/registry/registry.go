package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrMissingColumn  = errors.New("missing required column")
	ErrDuplicateModel = errors.New("duplicate model name")
)

const (
	ColumnModel       = "Model"
	ColumnParents     = "Parents"
	ColumnPredecessor = "Predecessor"
	ColumnInstitute   = "Institute"
	ColumnCountry     = "Country"
	ColumnFamily      = "Family"
)

// DefaultGenerations are the experiment generations tracked by the reference registry.
// Each generation contributes one "<generation> names" alias column.
var DefaultGenerations = []string{"CMIP3", "CMIP5", "CMIP6"}

// ModelRecord is one row of the model registry.
type ModelRecord struct {
	Name        string   `json:"name"`
	Active      bool     `json:"active"`
	Parents     []string `json:"parents,omitempty"`
	Predecessor string   `json:"predecessor,omitempty"`
	Variants    []string `json:"variants,omitempty"`
	Institute   string   `json:"institute,omitempty"`
	Country     string   `json:"country,omitempty"`
	Family      string   `json:"family,omitempty"`
}

// GroupKey returns the value of a categorical membership column by scheme name.
func (m ModelRecord) GroupKey(key string) (string, bool) {
	switch key {
	case "model":
		return m.Name, true
	case "institute":
		return m.Institute, true
	case "country":
		return m.Country, true
	case "family":
		return m.Family, true
	}
	return "", false
}

// HasVariants reports whether the model has at least one variant. A model is
// active exactly when it does.
func (m ModelRecord) HasVariants() bool { return len(m.Variants) > 0 }

// DeriveActive overwrites Active on every record from its variant list.
// Records that did not come through Load (JSON, database rows) may carry a
// stale flag.
func DeriveActive(records []ModelRecord) {
	for i := range records {
		records[i].Active = records[i].HasVariants()
	}
}

// AliasColumn returns the header of the alias column for a generation.
func AliasColumn(generation string) string {
	return generation + " names"
}

// Load parses a registry table. Active is derived from the alias columns of the
// given generations; an empty generation list falls back to DefaultGenerations.
func Load(r io.Reader, generations []string) ([]ModelRecord, error) {
	if len(generations) == 0 {
		generations = DefaultGenerations
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w: %s", ErrMissingColumn, ColumnModel)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	required := []string{ColumnModel, ColumnParents, ColumnPredecessor, ColumnInstitute, ColumnCountry, ColumnFamily}
	for _, g := range generations {
		required = append(required, AliasColumn(g))
	}
	idx, err := columnIndex(header, required)
	if err != nil {
		return nil, err
	}

	var records []ModelRecord
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := get(ColumnModel)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("row %d: %w: %s", line, ErrDuplicateModel, name)
		}
		seen[name] = true

		rec := ModelRecord{
			Name:        name,
			Parents:     SplitList(get(ColumnParents)),
			Predecessor: get(ColumnPredecessor),
			Institute:   get(ColumnInstitute),
			Country:     get(ColumnCountry),
			Family:      get(ColumnFamily),
		}
		for _, g := range generations {
			rec.Variants = append(rec.Variants, SplitList(get(AliasColumn(g)))...)
		}
		rec.Active = rec.HasVariants()
		records = append(records, rec)
	}
	return records, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string, generations []string) ([]ModelRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	records, err := Load(f, generations)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	return records, nil
}

// LoadSubset reads a single-column table of model or variant names. A table
// with a header and no names yields an empty, non-nil slice, which selects
// nothing rather than the default names.
func LoadSubset(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read subset header: %w: %s", ErrMissingColumn, ColumnModel)
	}
	if err != nil {
		return nil, fmt.Errorf("read subset header: %w", err)
	}
	idx, err := columnIndex(header, []string{ColumnModel})
	if err != nil {
		return nil, err
	}

	names := []string{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read subset: %w", err)
		}
		i := idx[ColumnModel]
		if i >= len(row) {
			continue
		}
		if name := strings.TrimSpace(row[i]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// LoadSubsetFile opens path and parses it with LoadSubset.
func LoadSubsetFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subset: %w", err)
	}
	defer f.Close()
	return LoadSubset(f)
}

// SplitList splits a comma-separated cell, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports sometimes carry a BOM on the first cell.
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
