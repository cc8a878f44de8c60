package fixturetree

import (
	"github.com/urfave/cli/v2"
)

func newCleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "remove a fixture root",
		Description: `Remove the directory at --root and everything below it. A missing directory is not an error.

With --keep-root, only the entries of the directory are removed and the directory itself is kept.

Example: fixturetree clean --root /tmp/fixtures --keep-root`,
		HideHelpCommand: true,
		Before:          noPositionalArgs,
		Action:          cleanAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagRoot,
				Usage:    "directory to remove",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  flagKeepRoot,
				Usage: "keep the directory and only remove its entries",
			},
		},
	}
}

func cleanAction(cctx *cli.Context) error {
	logger, policy, err := setup(cctx)
	if err != nil {
		return err
	}

	f, err := policy.Attach(cctx.String(flagRoot))
	if err != nil {
		return err
	}

	if cctx.Bool(flagKeepRoot) {
		if err := f.RmFixtures(cctx.Context); err != nil {
			return err
		}
	} else if err := f.RmRootDir(cctx.Context); err != nil {
		return err
	}

	logger.WithField("root", f.Root()).InfoContext(cctx.Context, "cleaned fixture root")

	return nil
}
