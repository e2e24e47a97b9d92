// Package tree defines the snapshot model for a watched directory:
// typed nodes, the recursive snapshotter, and the structural key used
// to decide whether two snapshots are visibly different.
package tree

import (
	"strings"
	"time"
)

// RootPath is the sentinel path of every snapshot's root folder.
const RootPath = "root"

// Kind discriminates the two node variants.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is one entry in a snapshot. Kind selects the variant: files
// carry Extension/SizeInBytes/ModifiedAt, folders carry Children.
// Path is the slash-joined chain of ancestor names under RootPath and
// is unique across the tree, so it is usable as a map key.
type Node struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
	Path string `json:"path"`

	// File fields
	Extension   string    `json:"extension,omitempty"`
	SizeInBytes int64     `json:"sizeInBytes,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt,omitempty"`

	// Folder fields. Directories sort before files, both groups
	// case-sensitive lexicographic by name.
	Children []*Node `json:"children,omitempty"`
}

// IsFolder reports whether the node is the folder variant.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// ChildPath joins a parent path with a child name.
func ChildPath(parent, name string) string {
	return parent + "/" + name
}

// ParentPath returns the path of a node's parent, or RootPath when the
// path has no ancestor segment left.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return RootPath
	}
	return path[:idx]
}

// PathSet collects every path in the tree.
func PathSet(root *Node) map[string]struct{} {
	set := make(map[string]struct{})
	if root == nil {
		return set
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		set[n.Path] = struct{}{}
		stack = append(stack, n.Children...)
	}
	return set
}

// FolderPaths collects the paths of every folder in the tree.
func FolderPaths(root *Node) map[string]struct{} {
	set := make(map[string]struct{})
	if root == nil {
		return set
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsFolder() {
			set[n.Path] = struct{}{}
			stack = append(stack, n.Children...)
		}
	}
	return set
}
