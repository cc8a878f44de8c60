// Package lineage implements the history of a fixture: an immutable chain of
// generations, each holding the specification added at that step and a link
// to the generation it extends.
package lineage

import (
	"context"
	"fmt"

	"gitlab.com/gitlab-org/fixturetree/internal/paths"
	"gitlab.com/gitlab-org/fixturetree/internal/tree"
)

// Writer materializes a single specification into a directory.
type Writer interface {
	Write(ctx context.Context, spec tree.Dir, dir string) error
}

// Generation is one step in the history of a fixture. Generations are never
// modified after construction, so forks of the same fixture share their
// ancestors by reference.
type Generation struct {
	spec     tree.Dir
	root     string
	previous *Generation
}

// New returns a generation adding spec on top of previous. previous is nil for
// the first generation of a lineage. root is the root directory in effect when
// the generation is created.
func New(spec tree.Dir, root string, previous *Generation) *Generation {
	return &Generation{
		spec:     spec,
		root:     root,
		previous: previous,
	}
}

// Spec returns the specification added by this generation.
func (g *Generation) Spec() tree.Dir {
	return g.spec
}

// Root returns the root directory the generation was created at.
func (g *Generation) Root() string {
	return g.root
}

// Previous returns the generation this one extends, or nil.
func (g *Generation) Previous() *Generation {
	return g.previous
}

// Depth returns the number of generations in the lineage ending at g.
func (g *Generation) Depth() int {
	depth := 0
	for current := g; current != nil; current = current.previous {
		depth++
	}
	return depth
}

// ancestry returns the lineage ending at g, oldest generation first.
func (g *Generation) ancestry() []*Generation {
	generations := make([]*Generation, g.Depth())
	for current, i := g, len(generations)-1; current != nil; current, i = current.previous, i-1 {
		generations[i] = current
	}
	return generations
}

// Paths returns the path table of the whole lineage projected onto root. Every
// generation is flattened against the root it was created at and rebased onto
// root. Tables are merged oldest first so that later generations override
// earlier ones at colliding keys.
func (g *Generation) Paths(root string, unixStyle bool) (*paths.Table, error) {
	merged := paths.New(root, unixStyle)

	for _, generation := range g.ancestry() {
		table, err := tree.Flatten(generation.spec, generation.root, unixStyle)
		if err != nil {
			return nil, fmt.Errorf("flatten generation: %w", err)
		}

		rebased, err := table.Rebase(root, unixStyle)
		if err != nil {
			return nil, fmt.Errorf("rebase generation: %w", err)
		}

		if merged, err = merged.Merge(rebased); err != nil {
			return nil, fmt.Errorf("merge generation: %w", err)
		}
	}

	return merged, nil
}

// Replay writes the specifications of the whole lineage into root, ancestors
// before descendants. Each generation is written only after the previous one
// has been written completely.
func (g *Generation) Replay(ctx context.Context, w Writer, root string) error {
	for _, generation := range g.ancestry() {
		if err := w.Write(ctx, generation.spec, root); err != nil {
			return fmt.Errorf("replay generation: %w", err)
		}
	}

	return nil
}
