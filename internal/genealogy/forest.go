package genealogy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

var (
	ErrUnknownReference = errors.New("reference to unknown model")
	ErrBranchingChain   = errors.New("predecessor claimed by more than one model")
	ErrCycle            = errors.New("genealogy contains a cycle")
	ErrAliasConflict    = errors.New("variant alias conflict")
)

// Forest is the genealogy arena built from a registry. It is immutable once
// Build returns.
type Forest struct {
	nodes   []Node
	byName  map[string]NodeID
	byAlias map[string]NodeID
}

// Build runs the construction passes in order: link, acyclicity check,
// version chains, activity fixed point, group aggregates.
func Build(records []registry.ModelRecord, opts Options) (*Forest, error) {
	f, err := link(records, opts)
	if err != nil {
		return nil, err
	}
	if err := f.validateAcyclic(); err != nil {
		return nil, err
	}
	f.assignGroups()
	f.markActive()
	f.aggregateGroups()
	if err := f.validateChains(); err != nil {
		return nil, err
	}
	return f, nil
}

func link(records []registry.ModelRecord, opts Options) (*Forest, error) {
	sorted := make([]registry.ModelRecord, len(records))
	copy(sorted, records)
	registry.DeriveActive(sorted)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	f := &Forest{
		nodes:   make([]Node, len(sorted)),
		byName:  make(map[string]NodeID, len(sorted)),
		byAlias: make(map[string]NodeID),
	}
	for i, rec := range sorted {
		if _, dup := f.byName[rec.Name]; dup {
			return nil, fmt.Errorf("%w: %s", registry.ErrDuplicateModel, rec.Name)
		}
		f.byName[rec.Name] = NodeID(i)
		f.nodes[i] = Node{
			ID:          NodeID(i),
			Record:      rec,
			Predecessor: None,
			Successor:   None,
			Leader:      None,
		}
	}

	for i := range f.nodes {
		n := &f.nodes[i]

		parents := n.Record.Parents
		if opts.PrimaryParentOnly && len(parents) > 1 {
			parents = parents[:1]
		}
		for _, p := range parents {
			pid, ok := f.byName[p]
			if !ok {
				return nil, fmt.Errorf("%w: %s lists parent %q", ErrUnknownReference, n.Name(), p)
			}
			if containsID(n.Parents, pid) {
				continue
			}
			n.Parents = append(n.Parents, pid)
			f.nodes[pid].Children = append(f.nodes[pid].Children, n.ID)
		}

		if pred := n.Record.Predecessor; pred != "" {
			pid, ok := f.byName[pred]
			if !ok {
				return nil, fmt.Errorf("%w: %s lists predecessor %q", ErrUnknownReference, n.Name(), pred)
			}
			if prev := f.nodes[pid].Successor; prev != None {
				return nil, fmt.Errorf("%w: %s is the predecessor of both %s and %s",
					ErrBranchingChain, pred, f.nodes[prev].Name(), n.Name())
			}
			n.Predecessor = pid
			f.nodes[pid].Successor = n.ID
		}

		for _, alias := range n.Record.Variants {
			if owner, ok := f.byName[alias]; ok && owner != n.ID {
				return nil, fmt.Errorf("%w: variant %q of %s is the name of model %s",
					ErrAliasConflict, alias, n.Name(), f.nodes[owner].Name())
			}
			if owner, ok := f.byAlias[alias]; ok {
				if owner != n.ID {
					return nil, fmt.Errorf("%w: variant %q claimed by %s and %s",
						ErrAliasConflict, alias, f.nodes[owner].Name(), n.Name())
				}
				continue
			}
			f.byAlias[alias] = n.ID
			n.Variants = append(n.Variants, alias)
		}
	}
	return f, nil
}

// validateAcyclic runs Kahn's algorithm over the union of parent->child and
// predecessor->successor edges.
func (f *Forest) validateAcyclic() error {
	indegree := make([]int, len(f.nodes))
	queue := make([]NodeID, 0, len(f.nodes))
	for i := range f.nodes {
		n := &f.nodes[i]
		indegree[i] = len(n.Parents)
		if n.Predecessor != None {
			indegree[i]++
		}
		if indegree[i] == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		n := &f.nodes[id]
		next := n.Children
		if n.Successor != None {
			next = append(append([]NodeID(nil), next...), n.Successor)
		}
		for _, c := range next {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if visited == len(f.nodes) {
		return nil
	}

	var stuck []string
	for i, d := range indegree {
		if d > 0 {
			stuck = append(stuck, f.nodes[i].Name())
		}
	}
	return fmt.Errorf("%w involving %s", ErrCycle, strings.Join(stuck, ", "))
}

func (f *Forest) assignGroups() {
	for i := range f.nodes {
		if f.nodes[i].Leader != None {
			continue
		}
		origin := NodeID(i)
		for f.nodes[origin].Predecessor != None {
			origin = f.nodes[origin].Predecessor
		}
		var group []NodeID
		for id := origin; id != None; id = f.nodes[id].Successor {
			group = append(group, id)
		}
		for _, id := range group {
			f.nodes[id].Group = group
			f.nodes[id].Leader = origin
		}
	}
}

// markActive marks every node from which an active model is reachable by
// walking version chains and ancestor links. Each node enters the worklist
// at most once.
func (f *Forest) markActive() {
	var queue []NodeID
	for i := range f.nodes {
		if f.nodes[i].Active() {
			f.nodes[i].HasActive = true
			queue = append(queue, NodeID(i))
		}
	}
	for len(queue) > 0 {
		n := &f.nodes[queue[0]]
		queue = queue[1:]
		for _, list := range [][]NodeID{n.Group, n.Parents} {
			for _, id := range list {
				if !f.nodes[id].HasActive {
					f.nodes[id].HasActive = true
					queue = append(queue, id)
				}
			}
		}
	}
}

func (f *Forest) aggregateGroups() {
	for _, leader := range f.Leaders() {
		group := f.nodes[leader].Group

		active := false
		parents := make(map[NodeID]bool)
		children := make(map[NodeID]bool)
		for _, id := range group {
			n := &f.nodes[id]
			active = active || n.Active()
			for _, p := range n.Parents {
				if pl := f.nodes[p].Leader; pl != leader && f.nodes[pl].HasActive {
					parents[pl] = true
				}
			}
			for _, c := range n.Children {
				if cl := f.nodes[c].Leader; cl != leader && f.nodes[cl].HasActive {
					children[cl] = true
				}
			}
		}

		gp, gc := sortedIDs(parents), sortedIDs(children)
		for _, id := range group {
			f.nodes[id].ActiveGroup = active
			f.nodes[id].GroupParents = gp
			f.nodes[id].GroupChildren = gc
		}
	}
}

// validateChains checks that collapsing version chains did not close a loop
// between chains, e.g. a1 -> b2 and b1 -> a2 for chains a1 -> a2, b1 -> b2.
func (f *Forest) validateChains() error {
	pending := make(map[NodeID]int)
	var queue []NodeID
	for _, id := range f.Leaders() {
		n := &f.nodes[id]
		if !n.HasActive {
			continue
		}
		pending[id] = len(n.GroupParents)
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(pending, id)
		for _, c := range f.nodes[id].GroupChildren {
			pending[c]--
			if pending[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	stuck := make([]string, 0, len(pending))
	for _, id := range sortedIDs(keys(pending)) {
		stuck = append(stuck, f.nodes[id].Name())
	}
	return fmt.Errorf("%w between version chains led by %s", ErrCycle, strings.Join(stuck, ", "))
}

// Len returns the number of nodes.
func (f *Forest) Len() int { return len(f.nodes) }

// Node returns the node with the given id. Callers must not modify it.
func (f *Forest) Node(id NodeID) *Node { return &f.nodes[id] }

// Lookup resolves a canonical model name.
func (f *Forest) Lookup(name string) (NodeID, bool) {
	id, ok := f.byName[name]
	return id, ok
}

// Resolve maps a model name or variant alias to its owning node. isVariant is
// true when name is a run alias, including an alias equal to its own model name.
func (f *Forest) Resolve(name string) (id NodeID, isVariant, ok bool) {
	if id, ok := f.byAlias[name]; ok {
		return id, true, true
	}
	if id, ok := f.byName[name]; ok {
		return id, false, true
	}
	return None, false, false
}

// Leaders returns the version chain leaders in name order.
func (f *Forest) Leaders() []NodeID {
	var out []NodeID
	for i := range f.nodes {
		if f.nodes[i].IsLeader() {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Roots returns the chain leaders that seed weight propagation: chains that
// lead to an active model and have no active-reachable parent chain.
func (f *Forest) Roots() []NodeID {
	var out []NodeID
	for _, id := range f.Leaders() {
		n := &f.nodes[id]
		if n.HasActive && len(n.GroupParents) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// ActiveMembers returns the active models in the chain led by leader.
func (f *Forest) ActiveMembers(leader NodeID) []NodeID {
	var out []NodeID
	for _, id := range f.nodes[leader].Group {
		if f.nodes[id].Active() {
			out = append(out, id)
		}
	}
	return out
}

// DefaultNames lists every variant alias, or the bare model name for models
// without variants, in model name order.
func (f *Forest) DefaultNames() []string {
	var out []string
	for i := range f.nodes {
		n := &f.nodes[i]
		if len(n.Variants) == 0 {
			out = append(out, n.Name())
			continue
		}
		out = append(out, n.Variants...)
	}
	return out
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func keys(m map[NodeID]int) map[NodeID]bool {
	out := make(map[NodeID]bool, len(m))
	for id := range m {
		out[id] = true
	}
	return out
}

func sortedIDs(set map[NodeID]bool) []NodeID {
	out := make([]NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
