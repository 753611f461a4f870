package filestore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/djklmr2025/cosmos-den/internal/policy"
)

type TreeNode struct {
	Name      string      `json:"name"`
	Path      string      `json:"path,omitempty"`
	Type      string      `json:"type"`
	Extension string      `json:"extension,omitempty"`
	Children  []*TreeNode `json:"children,omitempty"`
}

// moreNode marks a directory whose contents were not expanded.
func moreNode() *TreeNode {
	return &TreeNode{Name: "...", Type: TypeMore}
}

// Tree returns the directory structure under path down to maxDepth levels.
// Deeper directories, and symlinked directories at any depth, get a single
// "more" child instead of being descended into. Hidden entries and
// dependency directories are left out.
func (s *Store) Tree(path string, maxDepth int) (*TreeNode, error) {
	const op = "tree"

	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	target, err := s.resolve(op, path)
	if err != nil {
		return nil, err
	}
	info, err := s.statTarget(op, path, target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, notDir(op, path)
	}

	root := &TreeNode{Name: filepath.Base(target.Abs), Path: target.Rel, Type: TypeDirectory}
	s.buildTree(root, target.Abs, 0, maxDepth)
	s.nav.Record(target.Rel)
	return root, nil
}

func (s *Store) buildTree(node *TreeNode, abs string, depth, maxDepth int) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		s.logger.Warn("cannot read directory", "path", node.Path, "error", err)
		return
	}

	node.Children = []*TreeNode{}
	for _, e := range entries {
		if skip(e.Name(), false) {
			continue
		}
		childAbs := filepath.Join(abs, e.Name())
		child := &TreeNode{Name: e.Name(), Path: s.guard.Rel(childAbs), Type: TypeFile}

		switch {
		case e.Type()&os.ModeSymlink != 0:
			if fi, err := os.Stat(childAbs); err == nil && fi.IsDir() {
				child.Type = TypeDirectory
				child.Children = []*TreeNode{moreNode()}
			}
		case e.IsDir():
			child.Type = TypeDirectory
			if depth+1 > maxDepth {
				child.Children = []*TreeNode{moreNode()}
			} else {
				s.buildTree(child, childAbs, depth+1, maxDepth)
			}
		}
		if child.Type == TypeFile {
			child.Extension = policy.Suffix(e.Name())
		}
		node.Children = append(node.Children, child)
	}

	// symlinked directories sort with the directories they point to
	sort.SliceStable(node.Children, func(i, j int) bool {
		di, dj := node.Children[i].Type == TypeDirectory, node.Children[j].Type == TypeDirectory
		if di != dj {
			return di
		}
		return strings.ToLower(node.Children[i].Name) < strings.ToLower(node.Children[j].Name)
	})
}
