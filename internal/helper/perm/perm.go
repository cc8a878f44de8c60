// Package perm provides constants for file and directory permissions used
// when materializing fixtures.
//
// Note that these permissions are further restricted by the system configured
// umask.
package perm

import (
	"io/fs"
)

const (
	// SharedDir is the permission given to every directory a fixture
	// specification declares, including the fixture root.
	SharedDir fs.FileMode = 0o755

	// SharedFile is the permission given to every file leaf of a fixture
	// specification.
	SharedFile fs.FileMode = 0o644

	// PrivateDir is the permission given to the base directory that generated
	// fixture roots are placed in.
	PrivateDir fs.FileMode = 0o700
)

// Umask represents a umask that is used to mask mode bits.
type Umask int

// Mask applies the mask on the mode.
func (mask Umask) Mask(mode fs.FileMode) fs.FileMode {
	return mode & ^fs.FileMode(mask)
}
