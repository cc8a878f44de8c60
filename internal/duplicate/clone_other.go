//go:build !linux && !darwin

package duplicate

import (
	"errors"
	"io/fs"
)

func cloneFile(string, string, fs.FileMode) error {
	return ErrCloneUnsupported
}

func isCloneUnsupported(err error) bool {
	return errors.Is(err, ErrCloneUnsupported)
}
