package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
)

var (
	ErrNoWeight     = errors.New("no weighted values")
	ErrInvalidValue = errors.New("invalid value")
)

// Summary holds weighted multi-model statistics.
type Summary struct {
	Count    int      `json:"count"`
	Mean     float64  `json:"mean"`
	Variance float64  `json:"variance"`
	StdDev   float64  `json:"std_dev"`
	Missing  []string `json:"missing,omitempty"`
}

// Weighted computes the weighted mean and population variance of values over
// the resolved entries of r. Weights are renormalised over the entries that
// have a value; entries with positive weight but no value are reported as
// missing.
func Weighted(r *lookup.Result, values map[string]float64) (Summary, error) {
	var s Summary
	var wsum, wx float64
	type point struct{ w, x float64 }
	var points []point

	for _, e := range r.Entries {
		if !e.Resolved || e.Weight == 0 {
			continue
		}
		x, ok := values[e.Name]
		if !ok {
			x, ok = values[e.Model]
		}
		if !ok || math.IsNaN(x) {
			s.Missing = append(s.Missing, e.Name)
			continue
		}
		points = append(points, point{w: e.Weight, x: x})
		wsum += e.Weight
		wx += e.Weight * x
	}
	if wsum == 0 {
		return s, ErrNoWeight
	}

	s.Count = len(points)
	s.Mean = wx / wsum
	var v float64
	for _, p := range points {
		d := p.x - s.Mean
		v += p.w * d * d
	}
	s.Variance = v / wsum
	s.StdDev = math.Sqrt(s.Variance)
	return s, nil
}

// LoadValues reads a two-column table (Model, Value). NA and empty cells are
// recorded as NaN.
func LoadValues(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read values header: %w", err)
	}
	modelCol, valueCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Model":
			modelCol = i
		case "Value":
			valueCol = i
		}
	}
	if modelCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("values table needs Model and Value columns, got %s", strings.Join(header, ","))
	}

	values := make(map[string]float64)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read values row %d: %w", line, err)
		}
		name := strings.TrimSpace(row[modelCol])
		if name == "" {
			continue
		}
		cell := strings.TrimSpace(row[valueCol])
		if cell == "" || cell == lookup.NA {
			values[name] = math.NaN()
			continue
		}
		x, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w %q for %s", line, ErrInvalidValue, cell, name)
		}
		values[name] = x
	}
	return values, nil
}

// LoadValuesFile opens path and parses it with LoadValues.
func LoadValuesFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open values: %w", err)
	}
	defer f.Close()
	return LoadValues(f)
}
