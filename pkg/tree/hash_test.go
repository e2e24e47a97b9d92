package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Node {
	return &Node{
		Kind: KindFolder,
		Name: RootPath,
		Path: RootPath,
		Children: []*Node{
			{
				Kind: KindFolder,
				Name: "src",
				Path: "root/src",
				Children: []*Node{
					{Kind: KindFile, Name: "a.ts", Path: "root/src/a.ts", Extension: "ts", SizeInBytes: 10},
					{Kind: KindFile, Name: "b.ts", Path: "root/src/b.ts", Extension: "ts", SizeInBytes: 20},
				},
			},
			{Kind: KindFile, Name: "readme.md", Path: "root/readme.md", Extension: "md"},
		},
	}
}

func TestStructuralKeyDeterminism(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, StructuralKey(snap), StructuralKey(snap))
	assert.Equal(t, StructuralKey(snap), StructuralKey(sampleSnapshot()))
}

func TestStructuralKeyOrderIndependence(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()

	// Reorder children after scanning; the key must not change.
	b.Children[0], b.Children[1] = b.Children[1], b.Children[0]
	src := b.Children[1]
	require.Equal(t, "src", src.Name)
	src.Children[0], src.Children[1] = src.Children[1], src.Children[0]

	assert.Equal(t, StructuralKey(a), StructuralKey(b))
}

func TestStructuralKeyIgnoresMetadata(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()

	b.Children[0].Children[0].SizeInBytes = 9999
	b.Children[0].Children[0].ModifiedAt = time.Now()
	b.Children[1].Extension = "markdown"

	assert.Equal(t, StructuralKey(a), StructuralKey(b))
}

func TestStructuralKeySeesShapeChanges(t *testing.T) {
	base := sampleSnapshot()

	renamed := sampleSnapshot()
	renamed.Children[1].Name = "README.md"
	renamed.Children[1].Path = "root/README.md"
	assert.NotEqual(t, StructuralKey(base), StructuralKey(renamed))

	removed := sampleSnapshot()
	removed.Children = removed.Children[:1]
	assert.NotEqual(t, StructuralKey(base), StructuralKey(removed))

	// A file replaced by an empty folder at the same path is a change.
	swapped := sampleSnapshot()
	swapped.Children[1] = &Node{Kind: KindFolder, Name: "readme.md", Path: "root/readme.md"}
	assert.NotEqual(t, StructuralKey(base), StructuralKey(swapped))
}

func TestStructurallyEqual(t *testing.T) {
	assert.True(t, StructurallyEqual(sampleSnapshot(), sampleSnapshot()))
	assert.False(t, StructurallyEqual(sampleSnapshot(), nil))
	assert.True(t, StructurallyEqual(nil, nil))
}
