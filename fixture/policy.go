package fixture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"gitlab.com/gitlab-org/fixturetree/internal/config"
	"gitlab.com/gitlab-org/fixturetree/internal/duplicate"
	"gitlab.com/gitlab-org/fixturetree/internal/lineage"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"gitlab.com/gitlab-org/fixturetree/internal/materialize"
	"gitlab.com/gitlab-org/fixturetree/internal/rootdir"
)

// Policy creates fixtures. It fixes how fixture roots are named, whether
// exposed paths use forward slashes and how trees are written and duplicated.
// A Policy is safe for concurrent use.
type Policy struct {
	generateRoot func() string
	unixStyle    bool
	logger       log.Logger
	metrics      *Metrics
	strategy     duplicate.Strategy
	concurrency  int

	materializer *materialize.Materializer
	duplicator   *duplicate.Duplicator
}

// Option configures a Policy.
type Option func(*Policy)

// WithRootGenerator sets the function naming the roots of new fixtures and
// forks. It is called once per Create and once per Fork without an explicit
// root. The returned paths must be absolute. Uniqueness is up to the
// generator.
func WithRootGenerator(generate func() string) Option {
	return func(p *Policy) {
		p.generateRoot = generate
	}
}

// WithUnixStyle makes roots and paths exposed by fixtures use forward
// slashes. Paths on disk are not affected.
func WithUnixStyle(unixStyle bool) Option {
	return func(p *Policy) {
		p.unixStyle = unixStyle
	}
}

// WithLogger sets the logger. Fixtures log nothing by default.
func WithLogger(logger log.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics fixtures record into.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Policy) {
		p.metrics = metrics
	}
}

// WithCopyStrategy sets how Fork duplicates files.
func WithCopyStrategy(strategy CopyStrategy) Option {
	return func(p *Policy) {
		p.strategy = strategy
	}
}

// WithConcurrency limits concurrent writes per directory and concurrent file
// duplications. Zero means no limit.
func WithConcurrency(limit int) Option {
	return func(p *Policy) {
		p.concurrency = limit
	}
}

// Define returns a new Policy. Without WithRootGenerator, roots are placed in
// a fixturetree directory below the system's temporary directory.
func Define(opts ...Option) *Policy {
	p := &Policy{
		generateRoot: rootdir.Generator(rootdir.DefaultBase(), rootdir.DefaultPrefix),
		logger:       log.Discard(),
		strategy:     duplicate.StrategyAuto,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = NewMetrics()
	}

	p.materializer = materialize.New(p.logger, p.metrics.materialize, materialize.WithConcurrency(p.concurrency))
	p.duplicator = duplicate.New(p.logger, p.metrics.duplicate, p.strategy, duplicate.WithConcurrency(p.concurrency))

	return p
}

// FromConfig returns a Policy configured by cfg. The root base directory is
// created if it does not exist. opts are applied after the configuration and
// thus take precedence.
func FromConfig(cfg Config, opts ...Option) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := rootdir.EnsureBase(cfg.RootBase); err != nil {
		return nil, err
	}

	return Define(append([]Option{
		WithRootGenerator(rootdir.Generator(cfg.RootBase, cfg.RootPrefix)),
		WithUnixStyle(cfg.UnixStyle),
		WithCopyStrategy(cfg.Duplication.Strategy),
		WithConcurrency(cfg.Concurrency),
	}, opts...)...), nil
}

// FromEnvironment returns a Policy configured by FIXTURETREE_* environment
// variables, see FromConfig.
func FromEnvironment(opts ...Option) (*Policy, error) {
	cfg, err := config.FromEnv(config.EnvPrefix)
	if err != nil {
		return nil, err
	}

	return FromConfig(cfg, opts...)
}

// Metrics returns the metrics the policy records into.
func (p *Policy) Metrics() *Metrics {
	return p.metrics
}

// UnixStyle reports whether fixtures of the policy expose forward slashes.
func (p *Policy) UnixStyle() bool {
	return p.unixStyle
}

// CreateOption configures Create.
type CreateOption func(*createOptions)

type createOptions struct {
	root string
}

// AtRoot creates the fixture at root instead of a generated root.
func AtRoot(root string) CreateOption {
	return func(o *createOptions) {
		o.root = root
	}
}

// Create writes spec into a new root and returns the first generation of a
// new lineage. The root and missing parents are created.
func (p *Policy) Create(ctx context.Context, spec Dir, opts ...CreateOption) (_ *Fixture, returnedErr error) {
	defer func() { p.metrics.observe("create", returnedErr) }()

	var options createOptions
	for _, opt := range opts {
		opt(&options)
	}

	root, err := p.resolveRoot(options.root)
	if err != nil {
		return nil, err
	}

	f, err := p.newFixture(lineage.New(spec, root, nil), root)
	if err != nil {
		return nil, err
	}

	p.logger.WithField("root", root).DebugContext(ctx, "creating fixture")

	if err := p.materializer.Write(ctx, spec, root); err != nil {
		return nil, fmt.Errorf("create fixture at %q: %w", root, err)
	}

	return f, nil
}

// Attach returns a fixture describing the existing directory root. Its
// lineage starts with an empty specification, so it declares no paths and
// WriteFixtures writes nothing, but it can be forked and cleaned. Nothing is
// written by Attach.
func (p *Policy) Attach(root string) (*Fixture, error) {
	if root == "" {
		return nil, errors.New("attach: empty root")
	}

	absoluteRoot, err := p.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	return p.newFixture(lineage.New(nil, absoluteRoot, nil), absoluteRoot)
}

// resolveRoot returns the absolute, native form of root. The generator is
// only invoked when root is empty.
func (p *Policy) resolveRoot(root string) (string, error) {
	if root == "" {
		root = p.generateRoot()
		if root == "" {
			return "", errors.New("root generator returned an empty root")
		}
	}

	absoluteRoot, err := filepath.Abs(filepath.FromSlash(root))
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	return absoluteRoot, nil
}

func (p *Policy) newFixture(generation *lineage.Generation, root string) (*Fixture, error) {
	table, err := generation.Paths(root, p.unixStyle)
	if err != nil {
		return nil, fmt.Errorf("compute paths: %w", err)
	}

	return &Fixture{
		policy:     p,
		generation: generation,
		root:       root,
		paths:      table,
	}, nil
}
