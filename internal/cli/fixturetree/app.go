// Package fixturetree implements the fixturetree command.
package fixturetree

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/gitlab-org/fixturetree/fixture"
	"gitlab.com/gitlab-org/fixturetree/internal/config"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagUnixStyle = "unix-style"
	flagSpec      = "spec"
	flagRoot      = "root"
	flagFrom      = "from"
	flagKeepRoot  = "keep-root"
)

// NewApp returns the fixturetree application.
func NewApp() *cli.App {
	return &cli.App{
		Name:            "fixturetree",
		Usage:           "materialize, fork and clean fixture trees",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level, overrides the configuration",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "log format (text or json), overrides the configuration",
			},
			&cli.BoolFlag{
				Name:  flagUnixStyle,
				Usage: "print paths with forward slashes, overrides the configuration",
			},
		},
		Commands: []*cli.Command{
			newMaterializeCommand(),
			newFlattenCommand(),
			newForkCommand(),
			newCleanCommand(),
		},
	}
}

// loadConfig loads the configuration file if one is given, applies the
// environment and then the global flags.
func loadConfig(cctx *cli.Context) (config.Cfg, error) {
	cfg := config.Default()
	if path := cctx.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return config.Cfg{}, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(config.EnvPrefix); err != nil {
		return config.Cfg{}, err
	}

	if cctx.IsSet(flagLogLevel) {
		cfg.Logging.Level = cctx.String(flagLogLevel)
	}
	if cctx.IsSet(flagLogFormat) {
		cfg.Logging.Format = cctx.String(flagLogFormat)
	}
	if cctx.IsSet(flagUnixStyle) {
		cfg.UnixStyle = cctx.Bool(flagUnixStyle)
	}

	if err := cfg.Validate(); err != nil {
		return config.Cfg{}, err
	}

	return cfg, nil
}

// setup returns a logger writing to the application's error output and a
// policy configured like the logger.
func setup(cctx *cli.Context) (log.Logger, *fixture.Policy, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return nil, nil, err
	}

	logger, err := log.Configure(cctx.App.ErrWriter, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("configure logger: %w", err)
	}

	policy, err := fixture.FromConfig(cfg, fixture.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	return logger, policy, nil
}

type unexpectedPositionalArgsError struct{ Command string }

func (e unexpectedPositionalArgsError) Error() string {
	return fmt.Sprintf("%s doesn't accept positional arguments", e.Command)
}

func noPositionalArgs(cctx *cli.Context) error {
	if cctx.Args().Present() {
		_ = cli.ShowSubcommandHelp(cctx)
		return cli.Exit(unexpectedPositionalArgsError{Command: cctx.Command.Name}, 1)
	}
	return nil
}
