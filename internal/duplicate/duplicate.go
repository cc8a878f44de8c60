// Package duplicate copies directory trees. Regular files are cloned with
// copy-on-write where the filesystem supports it and copied byte by byte
// otherwise.
package duplicate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"gitlab.com/gitlab-org/fixturetree/internal/helper/perm"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"golang.org/x/sync/errgroup"
)

// ErrCloneUnsupported is returned when a file cannot be cloned because the
// filesystem or platform does not support copy-on-write clones.
var ErrCloneUnsupported = errors.New("copy-on-write clone not supported")

// Strategy selects how regular files are duplicated.
type Strategy string

const (
	// StrategyAuto clones files and falls back to copying them when cloning is
	// not supported.
	StrategyAuto = Strategy("auto")
	// StrategyClone only clones files. Duplication fails when cloning is not
	// supported.
	StrategyClone = Strategy("clone")
	// StrategyCopy only copies files.
	StrategyCopy = Strategy("copy")
)

// ParseStrategy parses the name of a strategy. The empty string maps to
// StrategyAuto.
func ParseStrategy(name string) (Strategy, error) {
	switch strategy := Strategy(name); strategy {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyClone, StrategyCopy:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown duplication strategy %q", name)
	}
}

// Duplicator copies directory trees.
type Duplicator struct {
	logger      log.Logger
	metrics     Metrics
	strategy    Strategy
	concurrency int
}

// Option configures a Duplicator.
type Option func(*Duplicator)

// WithConcurrency limits the number of files duplicated concurrently. A limit
// of zero or less means no limit.
func WithConcurrency(limit int) Option {
	return func(d *Duplicator) {
		d.concurrency = limit
	}
}

// New returns a new Duplicator. An empty strategy means StrategyAuto.
func New(logger log.Logger, metrics Metrics, strategy Strategy, opts ...Option) *Duplicator {
	if strategy == "" {
		strategy = StrategyAuto
	}

	d := &Duplicator{
		logger:   logger,
		metrics:  metrics,
		strategy: strategy,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tree duplicates the directory tree at source into target. target and missing
// parents are created. Every directory is created before any of its contents.
// Symbolic links are recreated as symbolic links and never followed. Other
// special files are skipped. Existing files in target are overwritten.
//
// source must not be modified while it is being duplicated.
func (d *Duplicator) Tree(ctx context.Context, source, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), perm.SharedDir); err != nil {
		return fmt.Errorf("create target parent: %w", err)
	}

	t := &treeCopy{
		Duplicator: d,
		source:     source,
		target:     target,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		group.SetLimit(d.concurrency)
	}

	walkErr := walker{root: source, enterDir: func(relativePath string, dirEntry fs.DirEntry) error {
		if err := groupCtx.Err(); err != nil {
			return err
		}

		info, err := dirEntry.Info()
		if err != nil {
			return fmt.Errorf("stat directory: %w", err)
		}

		// The directory must stay writable until all of its contents have
		// been duplicated. Its final mode is applied afterwards.
		if err := os.MkdirAll(filepath.Join(target, relativePath), info.Mode().Perm()|0o700); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}

		return nil
	}, visitFile: func(relativePath string, dirEntry fs.DirEntry) error {
		if err := groupCtx.Err(); err != nil {
			return err
		}

		switch dirEntry.Type() {
		case 0:
			info, err := dirEntry.Info()
			if err != nil {
				return fmt.Errorf("stat file: %w", err)
			}

			group.Go(func() error {
				return t.duplicateFile(groupCtx, relativePath, info.Mode().Perm())
			})

			return nil
		case fs.ModeSymlink:
			return t.duplicateSymlink(relativePath)
		default:
			d.logger.WithFields(log.Fields{
				"path": filepath.Join(source, relativePath),
				"type": dirEntry.Type().String(),
			}).WarnContext(ctx, "skipping special file")

			return nil
		}
	}, leaveDir: func(relativePath string, dirEntry fs.DirEntry) error {
		info, err := dirEntry.Info()
		if err != nil {
			return fmt.Errorf("stat directory: %w", err)
		}

		t.directories = append(t.directories, directoryMode{
			path: filepath.Join(target, relativePath),
			mode: info.Mode().Perm(),
		})

		return nil
	}}.run()

	// Files that were already scheduled must finish before returning, even
	// when the walk failed.
	if err := errors.Join(walkErr, group.Wait()); err != nil {
		return fmt.Errorf("duplicate tree: %w", err)
	}

	// Directories are recorded children first, so restrictive modes are only
	// applied once nothing needs to be written into them anymore.
	for _, directory := range t.directories {
		if err := os.Chmod(directory.path, directory.mode); err != nil {
			return fmt.Errorf("set directory mode: %w", err)
		}
	}

	if t.fellBack.Load() {
		d.metrics.cloneFallbacksTotal.Inc()
	}

	d.logger.WithFields(log.Fields{
		"source":    source,
		"target":    target,
		"strategy":  string(d.strategy),
		"fell_back": t.fellBack.Load(),
	}).DebugContext(ctx, "duplicated tree")

	return nil
}

type directoryMode struct {
	path string
	mode fs.FileMode
}

// treeCopy holds the state of a single Tree call.
type treeCopy struct {
	*Duplicator
	source, target string

	// fellBack is set once cloning turned out to be unsupported. Later files
	// are copied without probing again.
	fellBack    atomic.Bool
	directories []directoryMode
}

func (t *treeCopy) duplicateFile(ctx context.Context, relativePath string, mode fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := filepath.Join(t.source, relativePath)
	target := filepath.Join(t.target, relativePath)

	if t.strategy != StrategyCopy && !t.fellBack.Load() {
		err := cloneFile(source, target, mode)
		switch {
		case err == nil:
			t.metrics.filesDuplicatedTotal.WithLabelValues(methodClone).Inc()
			return nil
		case !isCloneUnsupported(err):
			return fmt.Errorf("clone file: %w", err)
		case t.strategy == StrategyClone:
			return fmt.Errorf("clone file: %w: %w", ErrCloneUnsupported, err)
		}

		if t.fellBack.CompareAndSwap(false, true) {
			t.logger.WithError(err).WithField("source", t.source).DebugContext(ctx, "clone not supported, falling back to copy")
		}
	}

	if err := copyFile(source, target, mode); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	t.metrics.filesDuplicatedTotal.WithLabelValues(methodCopy).Inc()

	return nil
}

func (t *treeCopy) duplicateSymlink(relativePath string) error {
	destination, err := os.Readlink(filepath.Join(t.source, relativePath))
	if err != nil {
		return fmt.Errorf("read symlink: %w", err)
	}

	target := filepath.Join(t.target, relativePath)
	if err := os.Symlink(destination, target); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create symlink: %w", err)
		}

		if err := os.Remove(target); err != nil {
			return fmt.Errorf("remove existing entry: %w", err)
		}

		if err := os.Symlink(destination, target); err != nil {
			return fmt.Errorf("create symlink: %w", err)
		}
	}

	return nil
}

func copyFile(source, target string, mode fs.FileMode) (returnedErr error) {
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

	if _, err := io.Copy(targetFile, sourceFile); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}

	// The mode given to OpenFile is subject to the umask and ignored for
	// existing files.
	if err := targetFile.Chmod(mode); err != nil {
		return fmt.Errorf("set file mode: %w", err)
	}

	return nil
}
