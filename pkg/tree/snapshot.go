package tree

import (
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moby/patternmatcher"

	"github.com/grovetools/treescope/errors"
)

// ScanOptions controls which entries a scan includes.
type ScanOptions struct {
	// IncludeHidden admits dotfiles and dot-directories, which are
	// excluded by default.
	IncludeHidden bool

	// Ignore holds patternmatcher globs evaluated against the
	// root-relative path of each entry.
	Ignore []string
}

// Scan produces a full snapshot of the directory at root. The returned
// folder is named and pathed with the RootPath sentinel regardless of
// the on-disk directory name.
//
// Entries that are neither regular files nor directories are skipped.
// Per-entry stat failures are collected and surfaced as a single
// IOFailure for the whole call; a partial tree is never returned.
func Scan(root string, opts ScanOptions) (*Node, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.IOFailure(root, err)
	}
	if !info.IsDir() {
		return nil, errors.IOFailure(root, fmt.Errorf("not a directory"))
	}

	var matcher *patternmatcher.PatternMatcher
	if len(opts.Ignore) > 0 {
		matcher, err = patternmatcher.New(opts.Ignore)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ignore pattern")
		}
	}

	s := &scanner{opts: opts, matcher: matcher}
	node := s.scanDir(root, RootPath, RootPath, "")
	if len(s.errs) > 0 {
		return nil, errors.IOFailure(root, goerrors.Join(s.errs...))
	}
	return node, nil
}

type scanner struct {
	opts    ScanOptions
	matcher *patternmatcher.PatternMatcher
	errs    []error
}

func (s *scanner) scanDir(dir, name, path, relPath string) *Node {
	node := &Node{
		Kind: KindFolder,
		Name: name,
		Path: path,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.errs = append(s.errs, err)
		return node
	}

	var folders, files []*Node
	for _, entry := range entries {
		if s.excluded(entry.Name(), relPath) {
			continue
		}

		childRel := entry.Name()
		if relPath != "" {
			childRel = relPath + "/" + entry.Name()
		}

		switch {
		case entry.IsDir():
			child := s.scanDir(
				filepath.Join(dir, entry.Name()),
				entry.Name(),
				ChildPath(path, entry.Name()),
				childRel,
			)
			folders = append(folders, child)

		case entry.Type().IsRegular():
			fi, err := entry.Info()
			if err != nil {
				s.errs = append(s.errs, err)
				continue
			}
			files = append(files, &Node{
				Kind:        KindFile,
				Name:        entry.Name(),
				Path:        ChildPath(path, entry.Name()),
				Extension:   fileExtension(entry.Name()),
				SizeInBytes: fi.Size(),
				ModifiedAt:  fi.ModTime(),
			})

		default:
			// Symlinks, sockets, devices: not part of the model.
		}
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	node.Children = append(folders, files...)
	return node
}

// excluded applies the dotfile rule and the ignore patterns.
func (s *scanner) excluded(name, parentRel string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if s.matcher == nil {
		return false
	}
	rel := name
	if parentRel != "" {
		rel = parentRel + "/" + name
	}
	matched, err := s.matcher.MatchesOrParentMatches(rel)
	if err != nil {
		return false
	}
	return matched
}

// fileExtension returns the lowercase extension without the leading
// dot, or "" when the name has none.
func fileExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
