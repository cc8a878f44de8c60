// Package paths provides the flat path table of a fixture: an ordered mapping
// from relative, forward-slash separated paths to absolute paths below a
// fixture root.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrForeignPath is returned when a table entry does not live below the root
	// the table was built against.
	ErrForeignPath = errors.New("path is not below the table root")
	// ErrRootMismatch is returned when merging tables built against different
	// roots.
	ErrRootMismatch = errors.New("tables have different roots")
)

// Table is an ordered mapping from relative paths to absolute paths. Entries
// keep the position of their first insertion. A table records the root it was
// built against so that it can be rebased without guessing the root from the
// paths themselves.
//
// Entries are always derived from a relative path and the root. Tables handed
// out by fixtures are never modified afterwards.
type Table struct {
	root      string
	unixStyle bool
	keys      []string
	values    map[string]string
}

// New returns an empty table for the given root. If unixStyle is set, the
// exposed root and all values use forward slashes.
func New(root string, unixStyle bool) *Table {
	return &Table{
		root:      root,
		unixStyle: unixStyle,
		values:    make(map[string]string),
	}
}

// Add derives the absolute path of relativePath below the table root and
// records it. Adding an existing key overwrites its value but keeps its
// position. The absolute path is returned.
func (t *Table) Add(relativePath string) string {
	absolutePath := t.display(filepath.Join(t.root, filepath.FromSlash(relativePath)))
	t.set(relativePath, absolutePath)
	return absolutePath
}

func (t *Table) set(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

func (t *Table) display(path string) string {
	if t.unixStyle {
		return filepath.ToSlash(path)
	}
	return path
}

// Root returns the root directory the table was built against, in the
// table's separator style.
func (t *Table) Root() string {
	return t.display(t.root)
}

// UnixStyle reports whether the table uses forward slashes for its values.
func (t *Table) UnixStyle() bool {
	return t.unixStyle
}

// Get returns the absolute path recorded for relativePath.
func (t *Table) Get(relativePath string) (string, bool) {
	value, ok := t.values[relativePath]
	return value, ok
}

// Keys returns the relative paths in table order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Map returns the entries as an unordered map.
func (t *Table) Map() map[string]string {
	m := make(map[string]string, len(t.values))
	for key, value := range t.values {
		m[key] = value
	}
	return m
}

// Merge returns a new table containing the entries of t followed by the
// entries of other. Keys present in both tables take the value from other but
// keep their position from t. Both tables must share the same root.
func (t *Table) Merge(other *Table) (*Table, error) {
	if filepath.Clean(t.root) != filepath.Clean(other.root) {
		return nil, fmt.Errorf("merge %q into %q: %w", other.root, t.root, ErrRootMismatch)
	}

	merged := New(other.root, other.unixStyle)
	for _, key := range t.keys {
		merged.set(key, merged.display(t.values[key]))
	}
	for _, key := range other.keys {
		merged.set(key, other.values[key])
	}

	return merged, nil
}

// Rebase returns a new table with the recorded root prefix of every value
// replaced by newRoot. Keys and their order are unchanged.
func (t *Table) Rebase(newRoot string, unixStyle bool) (*Table, error) {
	oldRoot := t.display(t.root)

	rebased := New(newRoot, unixStyle)
	for _, key := range t.keys {
		rest, ok := cutRoot(t.values[key], oldRoot)
		if !ok {
			return nil, fmt.Errorf("rebase %q: %w", t.values[key], ErrForeignPath)
		}

		rebased.set(key, rebased.display(filepath.Join(newRoot, filepath.FromSlash(rest))))
	}

	return rebased, nil
}

// cutRoot strips root from path. The remainder must start at a path segment
// boundary, so "/tmp/ab" is not considered to be below "/tmp/a".
func cutRoot(path, root string) (string, bool) {
	rest, ok := strings.CutPrefix(path, root)
	if !ok {
		return "", false
	}

	switch {
	case rest == "":
		return "", true
	case isSeparator(rest[0]):
		return rest[1:], true
	case root != "" && isSeparator(root[len(root)-1]):
		return rest, true
	case root == "":
		return rest, true
	default:
		return "", false
	}
}

func isSeparator(c byte) bool {
	return c == '/' || os.IsPathSeparator(c)
}
