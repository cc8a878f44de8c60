// Package tree models directory specifications: nested, ordered declarations
// of the directories and files a fixture consists of.
package tree

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyKey is returned when a key or one of its segments is empty.
	ErrEmptyKey = errors.New("empty key")
	// ErrInvalidKey is returned when a key is absolute or contains "." or ".."
	// segments and would thus not resolve to a path below the fixture root.
	ErrInvalidKey = errors.New("invalid key")
	// ErrConflictingPath is returned when a specification declares a path as
	// both a file and a directory, or declares the same file twice.
	ErrConflictingPath = errors.New("conflicting path")
	// ErrNilNode is returned when an entry has no node.
	ErrNilNode = errors.New("entry has no node")
)

// Node is either a File or a Dir.
type Node interface {
	isNode()
}

// File is a file leaf. Its content is written verbatim.
type File []byte

func (File) isNode() {}

// Text returns a file leaf with the given textual content.
func Text(content string) File {
	return File(content)
}

// Entry is a single named child of a directory node. The key may contain
// slashes, in which case it is equivalent to nesting single segment keys.
type Entry struct {
	Key  string
	Node Node
}

// Dir is a directory node. The order of the entries is the declared order.
type Dir []Entry

func (Dir) isNode() {}

// Segments splits a key into its path segments. Backslashes are treated as
// separators on platforms where they are one.
func Segments(key string) []string {
	return strings.Split(filepath.ToSlash(key), "/")
}

// visitFunc is invoked for every resolved path of a specification. isDir is
// set for directory nodes and for directories implied by multi-segment keys.
type visitFunc func(relativePath string, node Node, isDir bool) error

// walk visits the specification depth-first in declared order. Parents are
// always visited before their descendants.
func walk(spec Dir, prefix string, visit visitFunc) error {
	for _, entry := range spec {
		if entry.Key == "" {
			return fmt.Errorf("key in %q: %w", prefix, ErrEmptyKey)
		}

		segments := Segments(entry.Key)
		if err := validateSegments(entry.Key, segments); err != nil {
			return err
		}

		relativePath := prefix
		for i, segment := range segments {
			relativePath = path.Join(relativePath, segment)
			if i == len(segments)-1 {
				break
			}

			if err := visit(relativePath, nil, true); err != nil {
				return err
			}
		}

		switch node := entry.Node.(type) {
		case Dir:
			if err := visit(relativePath, node, true); err != nil {
				return err
			}

			if err := walk(node, relativePath, visit); err != nil {
				return err
			}
		case File:
			if err := visit(relativePath, node, false); err != nil {
				return err
			}
		case nil:
			return fmt.Errorf("key %q: %w", relativePath, ErrNilNode)
		default:
			return fmt.Errorf("key %q: unsupported node type %T", relativePath, node)
		}
	}

	return nil
}

func validateSegments(key string, segments []string) error {
	if path.IsAbs(filepath.ToSlash(key)) || filepath.IsAbs(key) || filepath.VolumeName(key) != "" {
		return fmt.Errorf("key %q is absolute: %w", key, ErrInvalidKey)
	}

	for _, segment := range segments {
		switch segment {
		case "":
			return fmt.Errorf("key %q: %w", key, ErrEmptyKey)
		case ".", "..":
			return fmt.Errorf("key %q contains %q: %w", key, segment, ErrInvalidKey)
		}
	}

	return nil
}

// Validate checks that every key resolves to a path below the root and that
// no path is declared both as a file and as a directory.
func Validate(spec Dir) error {
	kinds := make(map[string]bool)

	return walk(spec, "", func(relativePath string, _ Node, isDir bool) error {
		wasDir, seen := kinds[relativePath]
		switch {
		case !seen:
			kinds[relativePath] = isDir
			return nil
		case isDir && wasDir:
			return nil
		case isDir || wasDir:
			return fmt.Errorf("%q declared as both file and directory: %w", relativePath, ErrConflictingPath)
		default:
			return fmt.Errorf("file %q declared twice: %w", relativePath, ErrConflictingPath)
		}
	})
}
