package duplicate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// visitFunc receives the path of an entry relative to the walked root.
type visitFunc func(relativePath string, entry fs.DirEntry) error

// walker traverses a directory tree depth-first without following symbolic
// links. Entries of a directory are visited in lexical order.
type walker struct {
	root string
	// enterDir is called for a directory before any of its entries.
	enterDir visitFunc
	// visitFile is called for every entry that is not a directory.
	visitFile visitFunc
	// leaveDir is called for a directory after all of its entries.
	leaveDir visitFunc
}

// run walks the tree starting at the root, which must be a directory.
func (w walker) run() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("walk %q: not a directory", w.root)
	}

	return w.walkDir("", fs.FileInfoToDirEntry(info))
}

func (w walker) walkDir(relativePath string, entry fs.DirEntry) error {
	entries, err := os.ReadDir(filepath.Join(w.root, relativePath))
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	if err := w.enterDir(relativePath, entry); err != nil {
		return fmt.Errorf("enter %q: %w", relativePath, err)
	}

	for _, child := range entries {
		childPath := filepath.Join(relativePath, child.Name())

		if child.IsDir() {
			if err := w.walkDir(childPath, child); err != nil {
				return err
			}
			continue
		}

		if err := w.visitFile(childPath, child); err != nil {
			return fmt.Errorf("visit %q: %w", childPath, err)
		}
	}

	if err := w.leaveDir(relativePath, entry); err != nil {
		return fmt.Errorf("leave %q: %w", relativePath, err)
	}

	return nil
}
