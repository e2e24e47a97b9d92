package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Key is a structural digest of a snapshot. It covers path, name, kind
// and recursive child shape only; size, mtime and extension never
// contribute, so metadata-only filesystem churn hashes identically.
type Key string

// StructuralKey computes the comparison key for a snapshot. Children
// are sorted by path before folding, making the key independent of the
// order a directory listing happened to produce.
func StructuralKey(n *Node) Key {
	if n == nil {
		return ""
	}
	return Key(hex.EncodeToString(structuralSum(n)))
}

func structuralSum(n *Node) []byte {
	h := sha256.New()
	h.Write([]byte(n.Kind))
	h.Write([]byte{0})
	h.Write([]byte(n.Name))
	h.Write([]byte{0})
	h.Write([]byte(n.Path))
	h.Write([]byte{0})

	if len(n.Children) > 0 {
		children := make([]*Node, len(n.Children))
		copy(children, n.Children)
		sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
		for _, child := range children {
			h.Write(structuralSum(child))
		}
	}
	return h.Sum(nil)
}

// StructurallyEqual reports whether two snapshots have the same key.
func StructurallyEqual(a, b *Node) bool {
	return StructuralKey(a) == StructuralKey(b)
}
