package treenav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/treescope/pkg/tree"
)

func folder(name, path string, children ...*tree.Node) *tree.Node {
	return &tree.Node{Kind: tree.KindFolder, Name: name, Path: path, Children: children}
}

func file(name, path string) *tree.Node {
	return &tree.Node{Kind: tree.KindFile, Name: name, Path: path}
}

// sampleTree builds:
//
//	root
//	├── src
//	│   ├── a.ts
//	│   └── b.ts
//	└── docs
func sampleTree() *tree.Node {
	return folder("root", "root",
		folder("src", "root/src",
			file("a.ts", "root/src/a.ts"),
			file("b.ts", "root/src/b.ts"),
		),
		folder("docs", "root/docs"),
	)
}

func rowPaths(rows []Row) []string {
	paths := make([]string, len(rows))
	for i, r := range rows {
		paths[i] = r.Node.Path
	}
	return paths
}

func TestVisibleRowsRootCollapsedChildren(t *testing.T) {
	root := sampleTree()
	expanded := NewExpansionSet()

	rows := VisibleRows(root, expanded)
	assert.Equal(t, []string{"root", "root/src", "root/docs"}, rowPaths(rows))
	assert.Equal(t, []int{0, 1, 1}, rowDepths(rows))
}

func TestVisibleRowsExpandedSubfolder(t *testing.T) {
	root := sampleTree()
	expanded := NewExpansionSet()
	expanded.Add("root/src")

	rows := VisibleRows(root, expanded)
	require.Equal(t, []string{"root", "root/src", "root/src/a.ts", "root/src/b.ts", "root/docs"}, rowPaths(rows))
	assert.Equal(t, []int{0, 1, 2, 2, 1}, rowDepths(rows))
}

func TestVisibleRowsCollapsedRoot(t *testing.T) {
	root := sampleTree()
	rows := VisibleRows(root, ExpansionSet{})
	assert.Equal(t, []string{"root"}, rowPaths(rows))
}

func TestVisibleRowsNil(t *testing.T) {
	assert.Nil(t, VisibleRows(nil, NewExpansionSet()))
}

func TestRowIndex(t *testing.T) {
	rows := VisibleRows(sampleTree(), NewExpansionSet())
	assert.Equal(t, 2, RowIndex(rows, "root/docs"))
	assert.Equal(t, -1, RowIndex(rows, "root/missing"))
}

func TestExpansionSetToggle(t *testing.T) {
	s := NewExpansionSet()
	assert.True(t, s.Has(tree.RootPath))

	s.Toggle("root/src")
	assert.True(t, s.Has("root/src"))
	s.Toggle("root/src")
	assert.False(t, s.Has("root/src"))
}

func rowDepths(rows []Row) []int {
	depths := make([]int, len(rows))
	for i, r := range rows {
		depths[i] = r.Depth
	}
	return depths
}
