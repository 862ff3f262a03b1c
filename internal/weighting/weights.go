package weighting

import (
	"fmt"
	"math/big"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
)

// Weights holds the exact per-model weights for one scheme. Chain weights are
// only populated by the code scheme.
type Weights struct {
	Scheme Scheme

	forest *genealogy.Forest
	model  []*big.Rat
	chain  []*big.Rat
}

// Compute assigns a weight to every model in the forest. Inactive models always
// get zero. The variant scheme carries no per-model weight; runs are weighted
// when a subset is resolved.
func Compute(f *genealogy.Forest, s Scheme) (*Weights, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidScheme, s)
	}

	w := &Weights{
		Scheme: s,
		forest: f,
		model:  zeros(f.Len()),
		chain:  zeros(f.Len()),
	}
	switch {
	case s == SchemeCode:
		propagate(f, w.model, w.chain)
	case s.Grouped():
		groupWeights(f, string(s), w.model)
	}
	return w, nil
}

// Of returns a copy of the weight of a model.
func (w *Weights) Of(id genealogy.NodeID) *big.Rat {
	return new(big.Rat).Set(w.model[id])
}

// ByName returns a copy of the weight of a model by canonical name.
func (w *Weights) ByName(name string) (*big.Rat, bool) {
	id, ok := w.forest.Lookup(name)
	if !ok {
		return nil, false
	}
	return w.Of(id), true
}

// Chain returns the weight retained by the version chain led by leader.
func (w *Weights) Chain(leader genealogy.NodeID) *big.Rat {
	return new(big.Rat).Set(w.chain[leader])
}

// Total sums all model weights.
func (w *Weights) Total() *big.Rat {
	sum := new(big.Rat)
	for _, r := range w.model {
		sum.Add(sum, r)
	}
	return sum
}

// Forest returns the genealogy the weights were computed on.
func (w *Weights) Forest() *genealogy.Forest { return w.forest }

func zeros(n int) []*big.Rat {
	out := make([]*big.Rat, n)
	for i := range out {
		out[i] = new(big.Rat)
	}
	return out
}
