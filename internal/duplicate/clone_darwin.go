package duplicate

import (
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// cloneFile creates target as a copy-on-write clone of source with clonefile(2). The clone keeps
// the mode of source, so mode is not used.
func cloneFile(source, target string, _ fs.FileMode) error {
	if err := unix.Clonefile(source, target, unix.CLONE_NOFOLLOW); err != nil {
		return fmt.Errorf("clonefile: %w", err)
	}

	return nil
}

// isCloneUnsupported reports whether err signals that the filesystem cannot clone the file.
// clonefile(2) refuses to replace an existing target, which the copy fallback handles.
func isCloneUnsupported(err error) bool {
	for _, errno := range []unix.Errno{unix.EOPNOTSUPP, unix.ENOTSUP, unix.EXDEV, unix.EINVAL, unix.ENOTTY, unix.ENOSYS, unix.EEXIST} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return errors.Is(err, ErrCloneUnsupported)
}
