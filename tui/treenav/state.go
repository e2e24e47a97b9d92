// Package treenav implements the live tree navigation component: it
// keeps a local mirror of the daemon's snapshot and reconciles incoming
// updates while preserving expansion and selection state.
package treenav

import (
	"time"

	"github.com/grovetools/treescope/pkg/tree"
)

// ExpansionSet tracks which folder paths are expanded.
type ExpansionSet map[string]struct{}

// NewExpansionSet returns a set with the root expanded.
func NewExpansionSet() ExpansionSet {
	return ExpansionSet{tree.RootPath: {}}
}

// Has reports whether path is expanded.
func (s ExpansionSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Add marks path as expanded.
func (s ExpansionSet) Add(path string) { s[path] = struct{}{} }

// Remove marks path as collapsed.
func (s ExpansionSet) Remove(path string) { delete(s, path) }

// Toggle flips the expansion of path.
func (s ExpansionSet) Toggle(path string) {
	if s.Has(path) {
		s.Remove(path)
	} else {
		s.Add(path)
	}
}

// State is the client-side mirror of the watched tree.
type State struct {
	Root         *tree.Node
	Expanded     ExpansionSet
	SelectedPath string
	LastUpdated  time.Time
}

// NewState builds the initial state around a snapshot: root expanded,
// root selected.
func NewState(root *tree.Node) *State {
	return &State{
		Root:         root,
		Expanded:     NewExpansionSet(),
		SelectedPath: tree.RootPath,
		LastUpdated:  time.Now(),
	}
}

// Row is one line of the rendered tree: a node and its indent depth.
type Row struct {
	Node  *tree.Node
	Depth int
}

// VisibleRows projects the tree into the flat list of rows the view
// renders, honoring the expansion set. The root is always row zero;
// children of collapsed folders are skipped.
func VisibleRows(root *tree.Node, expanded ExpansionSet) []Row {
	if root == nil {
		return nil
	}

	type frame struct {
		node  *tree.Node
		depth int
	}

	var rows []Row
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rows = append(rows, Row{Node: f.node, Depth: f.depth})

		if !f.node.IsFolder() || !expanded.Has(f.node.Path) {
			continue
		}
		// Push in reverse so children pop in display order.
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
	return rows
}

// RowIndex returns the index of path in rows, or -1.
func RowIndex(rows []Row, path string) int {
	for i, r := range rows {
		if r.Node.Path == path {
			return i
		}
	}
	return -1
}
