package weighting

import (
	"math/big"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
)

// propagate distributes weight over the chain-leader graph for the code scheme.
//
// Root chains share 1 equally. A chain is processed once every active-reachable
// parent chain has delivered its share; it then splits its accumulated weight
// evenly over its child chains plus one retained slot if the chain has an
// active member. Pass-through chains retain nothing. Retained chain weight is
// finally split evenly among the chain's active members.
func propagate(f *genealogy.Forest, model, chain []*big.Rat) {
	roots := f.Roots()
	if len(roots) == 0 {
		return
	}
	for _, r := range roots {
		chain[r].Set(ratio(len(roots)))
	}

	done := make(map[genealogy.NodeID]map[genealogy.NodeID]bool)
	queue := append([]genealogy.NodeID(nil), roots...)
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		n := f.Node(g)

		slots := len(n.GroupChildren)
		if n.ActiveGroup {
			slots++
		}
		if slots == 0 {
			// Unreachable for an active-reachable chain: it has an active
			// member or an active-reachable child chain.
			chain[g].SetInt64(0)
			continue
		}
		share := new(big.Rat).Mul(chain[g], ratio(slots))

		for _, c := range n.GroupChildren {
			chain[c].Add(chain[c], share)
			if done[c] == nil {
				done[c] = make(map[genealogy.NodeID]bool)
			}
			done[c][g] = true
			if len(done[c]) == len(f.Node(c).GroupParents) {
				queue = append(queue, c)
			}
		}

		if n.ActiveGroup {
			chain[g].Set(share)
		} else {
			chain[g].SetInt64(0)
		}
	}

	for _, leader := range f.Leaders() {
		members := f.ActiveMembers(leader)
		if len(members) == 0 {
			continue
		}
		each := new(big.Rat).Mul(chain[leader], ratio(len(members)))
		for _, id := range members {
			model[id].Set(each)
		}
	}
}
