package treenav

import (
	"time"

	"github.com/grovetools/treescope/pkg/tree"
)

// Reconcile folds an incoming snapshot into the state.
//
// When the incoming tree is structurally identical the new snapshot is
// adopted (metadata like sizes may have changed) but expansion and
// selection are untouched. When the shape changed, expansion entries
// whose folders no longer exist are pruned (the root stays expanded)
// and a vanished selection falls back to its nearest surviving
// ancestor.
func Reconcile(s *State, incoming *tree.Node) {
	if incoming == nil {
		return
	}

	if s.Root != nil && tree.StructurallyEqual(s.Root, incoming) {
		s.Root = incoming
		s.LastUpdated = time.Now()
		return
	}

	s.Root = incoming
	s.LastUpdated = time.Now()

	folders := tree.FolderPaths(incoming)
	for path := range s.Expanded {
		if _, ok := folders[path]; !ok {
			delete(s.Expanded, path)
		}
	}
	s.Expanded.Add(tree.RootPath)

	s.SelectedPath = nearestSurviving(s.SelectedPath, tree.PathSet(incoming))
}

// nearestSurviving walks up the ancestor chain of path until it finds
// one that still exists. The root always survives.
func nearestSurviving(path string, alive map[string]struct{}) string {
	if path == "" {
		return tree.RootPath
	}
	for {
		if _, ok := alive[path]; ok {
			return path
		}
		if path == tree.RootPath {
			return tree.RootPath
		}
		path = tree.ParentPath(path)
	}
}
