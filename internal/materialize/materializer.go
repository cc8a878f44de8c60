// Package materialize writes directory specifications to disk.
package materialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/gitlab-org/fixturetree/internal/helper/perm"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"gitlab.com/gitlab-org/fixturetree/internal/tree"
	"golang.org/x/sync/errgroup"
)

// Materializer writes directory specifications to disk. A directory is always
// created before any of its children are written. Children of the same
// directory are written concurrently and in no particular order.
type Materializer struct {
	logger      log.Logger
	metrics     Metrics
	concurrency int
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithConcurrency limits the number of children of a single directory that are
// written concurrently. A limit of zero or less means no limit.
func WithConcurrency(limit int) Option {
	return func(m *Materializer) {
		m.concurrency = limit
	}
}

// New returns a new Materializer.
func New(logger log.Logger, metrics Metrics, opts ...Option) *Materializer {
	m := &Materializer{
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Write materializes spec into dir. dir and all missing parents are created.
// Existing files at declared paths are overwritten. A failed write may leave
// some siblings written and others absent; nothing is rolled back.
func (m *Materializer) Write(ctx context.Context, spec tree.Dir, dir string) error {
	if err := tree.Validate(spec); err != nil {
		return fmt.Errorf("validate specification: %w", err)
	}

	m.logger.WithFields(log.Fields{
		"dir":     dir,
		"entries": len(spec),
	}).DebugContext(ctx, "materializing specification")

	return m.writeDir(ctx, spec, dir)
}

func (m *Materializer) writeDir(ctx context.Context, spec tree.Dir, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, perm.SharedDir); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	m.metrics.directoriesEnsuredTotal.Inc()

	group, ctx := errgroup.WithContext(ctx)
	if m.concurrency > 0 {
		group.SetLimit(m.concurrency)
	}

	for _, entry := range spec {
		entry := entry
		group.Go(func() error {
			target := filepath.Join(append([]string{dir}, tree.Segments(entry.Key)...)...)

			switch node := entry.Node.(type) {
			case tree.Dir:
				return m.writeDir(ctx, node, target)
			case tree.File:
				return m.writeFile(ctx, node, target)
			default:
				return fmt.Errorf("write %q: unsupported node type %T", target, node)
			}
		})
	}

	return group.Wait()
}

func (m *Materializer) writeFile(ctx context.Context, content tree.File, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Multi-segment keys need their intermediate directories first.
	if err := os.MkdirAll(filepath.Dir(path), perm.SharedDir); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	if err := os.WriteFile(path, content, perm.SharedFile); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	m.metrics.filesWrittenTotal.Inc()
	m.metrics.bytesWrittenTotal.Add(float64(len(content)))

	return nil
}
