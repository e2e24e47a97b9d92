package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/grovetools/treescope/errors"
)

// setupFixture builds a small directory tree:
//
//	root/
//	  docs/readme.md
//	  src/a.ts
//	  src/b.ts
//	  .git/HEAD
//	  .env
//	  zz.txt
func setupFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "readme.md"), []byte("# hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "b.ts"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("x=1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "zz.txt"), []byte("z"), 0644))

	return root
}

func TestScanShape(t *testing.T) {
	root := setupFixture(t)

	snap, err := Scan(root, ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, KindFolder, snap.Kind)
	assert.Equal(t, RootPath, snap.Name)
	assert.Equal(t, RootPath, snap.Path)

	// Dotfiles excluded; directories before files.
	names := make([]string, len(snap.Children))
	for i, c := range snap.Children {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"docs", "src", "zz.txt"}, names)

	src := snap.Children[1]
	require.Equal(t, KindFolder, src.Kind)
	require.Len(t, src.Children, 2)
	assert.Equal(t, "root/src/a.ts", src.Children[0].Path)
	assert.Equal(t, "ts", src.Children[0].Extension)
	assert.Equal(t, KindFile, src.Children[0].Kind)
	assert.Equal(t, int64(1), src.Children[0].SizeInBytes)
	assert.False(t, src.Children[0].ModifiedAt.IsZero())
}

func TestScanPathInvariant(t *testing.T) {
	root := setupFixture(t)

	snap, err := Scan(root, ScanOptions{})
	require.NoError(t, err)

	seen := map[string]bool{}
	stack := []*Node{snap}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		assert.False(t, seen[n.Path], "duplicate path %s", n.Path)
		seen[n.Path] = true
		for _, c := range n.Children {
			assert.Equal(t, ChildPath(n.Path, c.Name), c.Path)
			stack = append(stack, c)
		}
	}
}

func TestScanIncludeHidden(t *testing.T) {
	root := setupFixture(t)

	snap, err := Scan(root, ScanOptions{IncludeHidden: true})
	require.NoError(t, err)

	names := make([]string, len(snap.Children))
	for i, c := range snap.Children {
		names[i] = c.Name
	}
	assert.Equal(t, []string{".git", "docs", "src", ".env", "zz.txt"}, names)
}

func TestScanIgnorePatterns(t *testing.T) {
	root := setupFixture(t)

	snap, err := Scan(root, ScanOptions{Ignore: []string{"src", "*.txt"}})
	require.NoError(t, err)

	names := make([]string, len(snap.Children))
	for i, c := range snap.Children {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"docs"}, names)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), ScanOptions{})
	require.Error(t, err)
	assert.True(t, tserrors.Is(err, tserrors.ErrCodeIOFailure))
}

func TestScanRootNotDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := Scan(file, ScanOptions{})
	require.Error(t, err)
	assert.True(t, tserrors.Is(err, tserrors.ErrCodeIOFailure))
}

func TestScanSkipsIrregularEntries(t *testing.T) {
	root := setupFixture(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "zz.txt"), filepath.Join(root, "link.txt")))

	snap, err := Scan(root, ScanOptions{})
	require.NoError(t, err)

	for _, c := range snap.Children {
		assert.NotEqual(t, "link.txt", c.Name)
	}
}

func TestParentPath(t *testing.T) {
	assert.Equal(t, "root/src", ParentPath("root/src/a.ts"))
	assert.Equal(t, "root", ParentPath("root/src"))
	assert.Equal(t, RootPath, ParentPath("root"))
}

func TestFolderPaths(t *testing.T) {
	root := setupFixture(t)
	snap, err := Scan(root, ScanOptions{})
	require.NoError(t, err)

	folders := FolderPaths(snap)
	assert.Contains(t, folders, "root")
	assert.Contains(t, folders, "root/src")
	assert.Contains(t, folders, "root/docs")
	assert.NotContains(t, folders, "root/zz.txt")
}
