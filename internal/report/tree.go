package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

// WriteTree prints the active-reachable chain forest, one chain per line,
// indented by depth. A chain reached through several parents is expanded
// under the first and referenced afterwards. Chains that lead to no active
// model are listed at the end.
func WriteTree(w io.Writer, weights *weighting.Weights) error {
	f := weights.Forest()

	type frame struct {
		id    genealogy.NodeID
		depth int
	}
	printed := make(map[genealogy.NodeID]bool)

	roots := f.Roots()
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i]})
	}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		indent := strings.Repeat("  ", fr.depth)

		if printed[fr.id] {
			if _, err := fmt.Fprintf(w, "%s%s (see above)\n", indent, f.Node(fr.id).Name()); err != nil {
				return err
			}
			continue
		}
		printed[fr.id] = true

		if _, err := fmt.Fprintf(w, "%s%s\n", indent, chainLine(f, weights, fr.id)); err != nil {
			return err
		}
		children := f.Node(fr.id).GroupChildren
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], depth: fr.depth + 1})
		}
	}

	var pruned []string
	for _, id := range f.Leaders() {
		if !f.Node(id).HasActive {
			pruned = append(pruned, chainNames(f, id))
		}
	}
	if len(pruned) > 0 {
		if _, err := fmt.Fprintf(w, "inactive lineages: %s\n", strings.Join(pruned, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func chainLine(f *genealogy.Forest, weights *weighting.Weights, leader genealogy.NodeID) string {
	var parts []string
	for _, id := range f.Node(leader).Group {
		n := f.Node(id)
		if n.Active() {
			parts = append(parts, fmt.Sprintf("%s=%s", n.Name(), weights.Of(id).RatString()))
		} else {
			parts = append(parts, n.Name())
		}
	}
	line := strings.Join(parts, " > ")
	if weights.Scheme == weighting.SchemeCode {
		line += " [chain " + weights.Chain(leader).RatString() + "]"
	}
	return line
}

func chainNames(f *genealogy.Forest, leader genealogy.NodeID) string {
	group := f.Node(leader).Group
	names := make([]string, 0, len(group))
	for _, id := range group {
		names = append(names, f.Node(id).Name())
	}
	return strings.Join(names, " > ")
}
