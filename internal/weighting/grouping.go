package weighting

import (
	"math/big"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
)

// groupWeights gives each active model 1/(n*m): n distinct key values among
// active models, m active models sharing this model's value. Every key value
// therefore carries 1/n in total. An empty value is a group of its own.
func groupWeights(f *genealogy.Forest, key string, w []*big.Rat) {
	counts := make(map[string]int64)
	for i := 0; i < f.Len(); i++ {
		n := f.Node(genealogy.NodeID(i))
		if !n.Active() {
			continue
		}
		k, _ := n.Record.GroupKey(key)
		counts[k]++
	}
	groups := int64(len(counts))
	if groups == 0 {
		return
	}

	for i := 0; i < f.Len(); i++ {
		n := f.Node(genealogy.NodeID(i))
		if !n.Active() {
			continue
		}
		k, _ := n.Record.GroupKey(key)
		w[i].SetFrac64(1, groups*counts[k])
	}
}

// ratio is a convenience for 1/n.
func ratio(n int) *big.Rat {
	return big.NewRat(1, int64(n))
}
