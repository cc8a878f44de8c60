package duplicate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// cloneFile creates target as a copy-on-write clone of source with the FICLONE ioctl.
func cloneFile(source, target string, mode fs.FileMode) (returnedErr error) {
	sourceFile, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer sourceFile.Close()

	targetFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer func() {
		if err := targetFile.Close(); err != nil && returnedErr == nil {
			returnedErr = fmt.Errorf("close target: %w", err)
		}
	}()

	if err := unix.IoctlFileClone(int(targetFile.Fd()), int(sourceFile.Fd())); err != nil {
		return fmt.Errorf("ficlone: %w", err)
	}

	if err := targetFile.Chmod(mode); err != nil {
		return fmt.Errorf("set file mode: %w", err)
	}

	return nil
}

// isCloneUnsupported reports whether err signals that the filesystem cannot clone the file.
func isCloneUnsupported(err error) bool {
	for _, errno := range []unix.Errno{unix.EOPNOTSUPP, unix.ENOTSUP, unix.EXDEV, unix.EINVAL, unix.ENOTTY, unix.ENOSYS} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return errors.Is(err, ErrCloneUnsupported)
}
