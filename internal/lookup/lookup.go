package lookup

import (
	"fmt"
	"math"
	"math/big"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

// NA is the rendering of an unresolved weight.
const NA = "NA"

// Entry is the weight reported for one requested model or variant name.
type Entry struct {
	Name     string
	Model    string
	Variant  bool
	Resolved bool
	Fraction *big.Rat
	Weight   float64
}

// FractionString renders the exact weight, or NA when unresolved.
func (e Entry) FractionString() string {
	if !e.Resolved {
		return NA
	}
	return e.Fraction.RatString()
}

// Result is the outcome of one weight query.
type Result struct {
	Scheme     weighting.Scheme
	Entries    []Entry
	Unresolved []string

	weights *weighting.Weights
}

// Lookup returns the entry reported for name.
func (r *Result) Lookup(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Total sums the resolved fractions.
func (r *Result) Total() *big.Rat {
	sum := new(big.Rat)
	for _, e := range r.Entries {
		if e.Resolved {
			sum.Add(sum, e.Fraction)
		}
	}
	return sum
}

// Weights exposes the per-model weights the result was derived from.
func (r *Result) Weights() *weighting.Weights { return r.weights }

// Compute weights every name in subset under scheme. A nil subset means every
// known variant, or the bare model name for models without variants; a
// non-nil empty subset selects nothing.
// Names missing from the registry are reported with a NaN weight and listed in
// Result.Unresolved; they never fail the query.
func Compute(records []registry.ModelRecord, scheme weighting.Scheme, subset []string, opts genealogy.Options) (*Result, error) {
	if !scheme.Valid() {
		return nil, fmt.Errorf("%w %q", weighting.ErrInvalidScheme, scheme)
	}
	f, err := genealogy.Build(records, opts)
	if err != nil {
		return nil, fmt.Errorf("build genealogy: %w", err)
	}
	w, err := weighting.Compute(f, scheme)
	if err != nil {
		return nil, err
	}
	return Resolve(w, subset), nil
}

// Resolve maps subset names onto precomputed weights. A nil subset selects the
// default names; an empty one yields an empty result.
func Resolve(w *weighting.Weights, subset []string) *Result {
	f := w.Forest()
	if subset == nil {
		subset = f.DefaultNames()
	}
	names := dedupe(subset)

	type resolved struct {
		id      genealogy.NodeID
		variant bool
		ok      bool
	}
	res := make([]resolved, len(names))
	variantsPresent := make(map[genealogy.NodeID]int64)
	var activeNames int64
	for i, name := range names {
		id, variant, ok := f.Resolve(name)
		res[i] = resolved{id: id, variant: variant, ok: ok}
		if !ok {
			continue
		}
		if variant {
			variantsPresent[id]++
		}
		if f.Node(id).Active() {
			activeNames++
		}
	}

	result := &Result{Scheme: w.Scheme, Entries: make([]Entry, 0, len(names)), weights: w}
	for i, name := range names {
		r := res[i]
		if !r.ok {
			result.Entries = append(result.Entries, Entry{Name: name, Weight: math.NaN()})
			result.Unresolved = append(result.Unresolved, name)
			continue
		}

		n := f.Node(r.id)
		frac := new(big.Rat)
		switch {
		case !n.Active():
		case w.Scheme == weighting.SchemeVariant:
			frac.SetFrac64(1, activeNames)
		case r.variant:
			frac.Quo(w.Of(r.id), big.NewRat(variantsPresent[r.id], 1))
		default:
			frac.Set(w.Of(r.id))
		}
		fl, _ := frac.Float64()
		result.Entries = append(result.Entries, Entry{
			Name:     name,
			Model:    n.Name(),
			Variant:  r.variant,
			Resolved: true,
			Fraction: frac,
			Weight:   fl,
		})
	}
	return result
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
