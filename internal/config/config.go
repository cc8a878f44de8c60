// Package config contains the configuration of fixture policies and the
// fixturetree command.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gitlab.com/gitlab-org/fixturetree/internal/duplicate"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"gitlab.com/gitlab-org/fixturetree/internal/rootdir"
)

// EnvPrefix is the prefix of environment variables overriding configuration,
// for example FIXTURETREE_ROOT_BASE or FIXTURETREE_DUPLICATION_STRATEGY.
const EnvPrefix = "FIXTURETREE"

// Cfg is the fixturetree configuration.
type Cfg struct {
	// RootBase is the directory generated fixture roots are placed in.
	RootBase string `toml:"root_base,omitempty" split_words:"true"`
	// RootPrefix is prepended to the names of generated fixture roots.
	RootPrefix string `toml:"root_prefix,omitempty" split_words:"true"`
	// UnixStyle makes exposed roots and paths use forward slashes.
	UnixStyle bool `toml:"unix_style,omitempty" split_words:"true"`
	// Concurrency limits concurrent writes per directory and concurrent file
	// duplications. Zero means no limit.
	Concurrency int         `toml:"concurrency,omitempty"`
	Duplication Duplication `toml:"duplication,omitempty"`
	Logging     Logging     `toml:"logging,omitempty"`
}

// Duplication configures how forks duplicate fixture trees.
type Duplication struct {
	Strategy duplicate.Strategy `toml:"strategy,omitempty"`
}

// Logging configures the logger of the fixturetree command.
type Logging struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// Load reads the TOML configuration from r. Missing settings are set to their
// defaults and the result is validated.
func Load(r io.Reader) (Cfg, error) {
	var cfg Cfg

	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return Cfg{}, fmt.Errorf("load toml: %s", strictErr.String())
		}

		return Cfg{}, fmt.Errorf("load toml: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return Cfg{}, err
	}

	return cfg, nil
}

// LoadFile reads the TOML configuration file at path. See Load.
func LoadFile(path string) (Cfg, error) {
	file, err := os.Open(path)
	if err != nil {
		return Cfg{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Default returns the default configuration.
func Default() Cfg {
	var cfg Cfg
	cfg.setDefaults()
	return cfg
}

// FromEnv returns the default configuration overridden by environment
// variables with the given prefix.
func FromEnv(prefix string) (Cfg, error) {
	cfg := Default()

	if err := cfg.ApplyEnv(prefix); err != nil {
		return Cfg{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings with environment variables with the given
// prefix. Settings without a matching environment variable are kept.
func (cfg *Cfg) ApplyEnv(prefix string) error {
	if err := envconfig.Process(prefix, cfg); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}

	cfg.setDefaults()

	return cfg.Validate()
}

func (cfg *Cfg) setDefaults() {
	if cfg.RootBase == "" {
		cfg.RootBase = rootdir.DefaultBase()
	}

	if cfg.RootPrefix == "" {
		cfg.RootPrefix = rootdir.DefaultPrefix
	}

	if cfg.Duplication.Strategy == "" {
		cfg.Duplication.Strategy = duplicate.StrategyAuto
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = log.TextFormat
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = logrus.InfoLevel.String()
	}
}

// Validate checks the configuration for invalid settings.
func (cfg *Cfg) Validate() error {
	if !filepath.IsAbs(cfg.RootBase) {
		return fmt.Errorf("root_base: %q is not an absolute path", cfg.RootBase)
	}

	if filepath.Base(cfg.RootPrefix) != cfg.RootPrefix {
		return fmt.Errorf("root_prefix: %q must not contain path separators", cfg.RootPrefix)
	}

	if cfg.Concurrency < 0 {
		return fmt.Errorf("concurrency: %d is negative", cfg.Concurrency)
	}

	if _, err := duplicate.ParseStrategy(string(cfg.Duplication.Strategy)); err != nil {
		return fmt.Errorf("duplication.strategy: %w", err)
	}

	switch cfg.Logging.Format {
	case log.TextFormat, log.JSONFormat:
	default:
		return fmt.Errorf("logging.format: invalid format %q", cfg.Logging.Format)
	}

	if _, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}
