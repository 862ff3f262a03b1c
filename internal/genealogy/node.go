package genealogy

import (
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

// NodeID indexes a node in the forest arena.
type NodeID int

// None marks an absent predecessor or successor link.
const None NodeID = -1

// Node is the derived genealogy record for one model. Group-level fields
// (ActiveGroup, GroupParents, GroupChildren) are identical for every member
// of a version chain.
type Node struct {
	ID     NodeID
	Record registry.ModelRecord

	Parents     []NodeID
	Children    []NodeID
	Predecessor NodeID
	Successor   NodeID
	Variants    []string

	// Group is the full predecessor -> successor version chain, oldest first.
	Group  []NodeID
	Leader NodeID

	HasActive     bool
	ActiveGroup   bool
	GroupParents  []NodeID
	GroupChildren []NodeID
}

func (n *Node) Name() string { return n.Record.Name }

func (n *Node) Active() bool { return n.Record.Active }

// IsLeader reports whether n is the oldest member of its version chain.
func (n *Node) IsLeader() bool { return n.Leader == n.ID }

// Options controls how registry records are turned into edges.
type Options struct {
	// PrimaryParentOnly keeps only the first declared parent of each model.
	// Co-ancestry beyond the first parent is discarded.
	PrimaryParentOnly bool
}

func DefaultOptions() Options {
	return Options{PrimaryParentOnly: true}
}
