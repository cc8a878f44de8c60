// Package rootdir names the root directories of fixtures.
package rootdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gitlab.com/gitlab-org/fixturetree/internal/helper/perm"
)

const (
	// DefaultPrefix is the prefix of generated root directory names.
	DefaultPrefix = "fixture-"
	defaultBase   = "fixturetree"
)

// DefaultBase returns the directory generated roots are placed in when no
// base is configured.
func DefaultBase() string {
	return filepath.Join(os.TempDir(), defaultBase)
}

// Generator returns a function that names a new root directory below base on
// every call. Names are the prefix followed by a random UUID, so concurrent
// callers never receive the same directory. The directories are not created.
func Generator(base, prefix string) func() string {
	return func() string {
		return filepath.Join(base, prefix+uuid.NewString())
	}
}

// EnsureBase creates base with private permissions if it does not exist yet.
func EnsureBase(base string) error {
	if err := os.MkdirAll(base, perm.PrivateDir); err != nil {
		return fmt.Errorf("create root base: %w", err)
	}

	return nil
}
