package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/gitlab-org/fixturetree/internal/lineage"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"golang.org/x/sync/errgroup"
)

// Fixture is one generation of a fixture lineage. It describes a tree on disk:
// its root directory and the paths declared by the whole lineage. A Fixture is
// never modified. Operations that change the disk state leave the Fixture
// describing what the lineage declares.
type Fixture struct {
	policy     *Policy
	generation *lineage.Generation
	// root is the native, absolute root directory.
	root  string
	paths *Paths
}

func (f *Fixture) display(path string) string {
	if f.policy.unixStyle {
		return filepath.ToSlash(path)
	}
	return path
}

func (f *Fixture) logger() log.Logger {
	return f.policy.logger.WithFields(log.Fields{
		"root":       f.root,
		"generation": f.generation.Depth(),
	})
}

// Root returns the root directory of the fixture.
func (f *Fixture) Root() string {
	return f.display(f.root)
}

// Paths returns the path table of the fixture. It contains every path declared
// by any generation of the lineage, projected onto the fixture's root.
func (f *Fixture) Paths() *Paths {
	return f.paths
}

// Path returns the absolute path of a declared relative path, or the empty
// string if the lineage does not declare it.
func (f *Fixture) Path(relativePath string) string {
	path, _ := f.paths.Get(relativePath)
	return path
}

// Depth returns the number of generations in the fixture's lineage.
func (f *Fixture) Depth() int {
	return f.generation.Depth()
}

// Join joins elem onto the root directory. The result may name a path that
// does not exist or was never declared.
func (f *Fixture) Join(elem ...string) string {
	return f.display(filepath.Join(append([]string{f.root}, elem...)...))
}

// ReadFile returns the textual content of the file at the joined path. The
// error satisfies errors.Is(err, fs.ErrNotExist) if the file does not exist.
func (f *Fixture) ReadFile(elem ...string) (string, error) {
	content, err := f.ReadFileBytes(elem...)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ReadFileBytes returns the content of the file at the joined path.
func (f *Fixture) ReadFileBytes(elem ...string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(append([]string{f.root}, elem...)...))
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	return content, nil
}

// RmRootDir removes the root directory and everything below it. A missing
// root directory is not an error.
func (f *Fixture) RmRootDir(ctx context.Context) (returnedErr error) {
	defer func() { f.policy.metrics.observe("rm_root_dir", returnedErr) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	f.logger().DebugContext(ctx, "removing fixture root")

	if err := os.RemoveAll(f.root); err != nil {
		return fmt.Errorf("remove root directory: %w", err)
	}

	return nil
}

// RmFixtures removes every entry of the root directory but keeps the root
// directory itself. It removes what is on disk at the time of the call,
// including entries the lineage never declared. A missing root directory is
// not an error.
func (f *Fixture) RmFixtures(ctx context.Context) (returnedErr error) {
	defer func() { f.policy.metrics.observe("rm_fixtures", returnedErr) }()

	entries, err := os.ReadDir(f.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list root directory: %w", err)
	}

	f.logger().WithField("entries", len(entries)).DebugContext(ctx, "removing fixture entries")

	group, ctx := errgroup.WithContext(ctx)
	if f.policy.concurrency > 0 {
		group.SetLimit(f.policy.concurrency)
	}

	for _, entry := range entries {
		path := filepath.Join(f.root, entry.Name())
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("remove fixture entry: %w", err)
			}

			return nil
		})
	}

	return group.Wait()
}

// WriteOption configures WriteFixtures.
type WriteOption func(*writeOptions)

type writeOptions struct {
	root string
}

// Into writes the fixtures into root instead of the fixture's root.
func Into(root string) WriteOption {
	return func(o *writeOptions) {
		o.root = root
	}
}

// WriteFixtures writes every generation of the lineage, oldest first, into the
// root directory. Declared files that exist already are overwritten. Entries
// that were not declared are left alone.
func (f *Fixture) WriteFixtures(ctx context.Context, opts ...WriteOption) (returnedErr error) {
	defer func() { f.policy.metrics.observe("write_fixtures", returnedErr) }()

	var options writeOptions
	for _, opt := range opts {
		opt(&options)
	}

	root := f.root
	if options.root != "" {
		var err error
		if root, err = f.policy.resolveRoot(options.root); err != nil {
			return err
		}
	}
	f.logger().WithField("target", root).DebugContext(ctx, "writing fixtures")

	if err := f.generation.Replay(ctx, f.policy.materializer, root); err != nil {
		return fmt.Errorf("write fixtures: %w", err)
	}

	return nil
}

// AddFixtures writes extra into the fixture's root and returns the resulting
// generation. Only extra is written. The paths of the returned fixture are the
// paths of f, overridden and extended by the paths extra declares.
func (f *Fixture) AddFixtures(ctx context.Context, extra Dir) (_ *Fixture, returnedErr error) {
	defer func() { f.policy.metrics.observe("add_fixtures", returnedErr) }()

	child, err := f.policy.newFixture(lineage.New(extra, f.root, f.generation), f.root)
	if err != nil {
		return nil, err
	}

	child.logger().DebugContext(ctx, "adding fixtures")

	if err := f.policy.materializer.Write(ctx, extra, f.root); err != nil {
		return nil, fmt.Errorf("add fixtures: %w", err)
	}

	return child, nil
}

// ForkOption configures Fork.
type ForkOption func(*forkOptions)

type forkOptions struct {
	root string
}

// ForkTo forks into root instead of a generated root.
func ForkTo(root string) ForkOption {
	return func(o *forkOptions) {
		o.root = root
	}
}

// Fork duplicates the fixture's tree into a new root and writes extra on top of
// the copy. Files are cloned with copy-on-write where the filesystem supports
// it. The duplication completes before extra is written, so extra overwrites
// duplicated files at the same paths. The forked fixture is never modified.
//
// Forking into the fixture's own root, a directory below it or a directory
// above it fails with ErrRootCollision before anything is written.
func (f *Fixture) Fork(ctx context.Context, extra Dir, opts ...ForkOption) (_ *Fixture, returnedErr error) {
	defer func() { f.policy.metrics.observe("fork", returnedErr) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var options forkOptions
	for _, opt := range opts {
		opt(&options)
	}

	root, err := f.policy.resolveRoot(options.root)
	if err != nil {
		return nil, err
	}

	if isWithin(root, f.root) || isWithin(f.root, root) {
		return nil, fmt.Errorf("fork %q into %q: %w", f.root, root, ErrRootCollision)
	}

	child, err := f.policy.newFixture(lineage.New(extra, root, f.generation), root)
	if err != nil {
		return nil, err
	}

	child.logger().WithField("source", f.root).DebugContext(ctx, "forking fixture")

	if err := f.policy.duplicator.Tree(ctx, f.root, root); err != nil {
		return nil, fmt.Errorf("fork: %w", err)
	}

	if err := f.policy.materializer.Write(ctx, extra, root); err != nil {
		return nil, fmt.Errorf("fork: %w", err)
	}

	return child, nil
}

// Reset removes the root directory and writes every generation of the lineage
// again.
func (f *Fixture) Reset(ctx context.Context) (returnedErr error) {
	defer func() { f.policy.metrics.observe("reset", returnedErr) }()

	if err := f.RmRootDir(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := f.WriteFixtures(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	return nil
}

// isWithin reports whether path is root or lies below it. Both paths must be
// absolute and clean.
func isWithin(path, root string) bool {
	relativePath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return relativePath == "." || (relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator)))
}
