// Package testhelper contains helpers shared by the tests of fixturetree.
package testhelper

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gitlab.com/gitlab-org/fixturetree/internal/helper/perm"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"go.uber.org/goleak"
)

// Run runs the tests of a package and fails them if any goroutines are
// leaked. It is meant to be called from TestMain.
func Run(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Context returns a context that is cancelled when the test finishes.
func Context(tb testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)
	return ctx
}

// NewLogger returns a logger for tests. Output is only shown when the tests
// run with `-v`.
func NewLogger(tb testing.TB) log.Logger {
	if testing.Verbose() {
		logger := &logrus.Logger{
			Out:       os.Stdout,
			Formatter: new(logrus.JSONFormatter),
			Level:     logrus.DebugLevel,
			Hooks:     make(logrus.LevelHooks),
		}
		return log.FromLogrusEntry(logrus.NewEntry(logger).WithField("test", tb.Name()))
	}

	return log.Discard()
}

// MustClose closes the closer and fails the test on error.
func MustClose(tb testing.TB, closer io.Closer) {
	tb.Helper()
	require.NoError(tb, closer.Close())
}

var umask = sync.OnceValue(func() perm.Umask {
	dir, err := os.MkdirTemp("", "umask-")
	if err != nil {
		panic(fmt.Errorf("create umask probe directory: %w", err))
	}
	defer os.RemoveAll(dir)

	probe := filepath.Join(dir, "probe")
	if err := os.Mkdir(probe, 0o777); err != nil {
		panic(fmt.Errorf("create umask probe: %w", err))
	}

	info, err := os.Stat(probe)
	if err != nil {
		panic(fmt.Errorf("stat umask probe: %w", err))
	}

	return perm.Umask(0o777 &^ info.Mode().Perm())
})

// Umask returns the umask of the test process.
func Umask() perm.Umask {
	return umask()
}

// DirMode returns the mode of a directory created with perm.SharedDir under
// the given umask.
func DirMode(umask perm.Umask) fs.FileMode {
	return fs.ModeDir | umask.Mask(perm.SharedDir)
}

// FileMode returns the mode of a file created with perm.SharedFile under the
// given umask.
func FileMode(umask perm.Umask) fs.FileMode {
	return umask.Mask(perm.SharedFile)
}
