package fixturetree

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/gitlab-org/fixturetree/fixture"
	"gitlab.com/gitlab-org/fixturetree/internal/specfile"
)

func newForkCommand() *cli.Command {
	return &cli.Command{
		Name:  "fork",
		Usage: "duplicate a directory tree and write a specification on top",
		Description: `Duplicate the directory tree at --from into a new root and write the files and directories
declared by the optional specification file on top of the copy.

Files are cloned with copy-on-write where the filesystem supports it, depending on the configured
duplication strategy. The directory at --from is never modified. The new root is printed on success.

Example: fixturetree fork --from /tmp/fixtures --spec extra.yaml --root /tmp/forked`,
		HideHelpCommand: true,
		Before:          noPositionalArgs,
		Action:          forkAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagFrom,
				Usage:    "directory tree to duplicate",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagSpec,
				Usage: "path to a specification file written on top of the copy",
			},
			&cli.StringFlag{
				Name:  flagRoot,
				Usage: "directory to fork into",
			},
		},
	}
}

func forkAction(cctx *cli.Context) error {
	logger, policy, err := setup(cctx)
	if err != nil {
		return err
	}

	var extra fixture.Dir
	if path := cctx.String(flagSpec); path != "" {
		if extra, err = specfile.LoadFile(path); err != nil {
			return fmt.Errorf("load specification: %w", err)
		}
	}

	source, err := policy.Attach(cctx.String(flagFrom))
	if err != nil {
		return err
	}

	var opts []fixture.ForkOption
	if root := cctx.String(flagRoot); root != "" {
		opts = append(opts, fixture.ForkTo(root))
	}

	forked, err := source.Fork(cctx.Context, extra, opts...)
	if err != nil {
		return err
	}

	logger.WithField("source", source.Root()).InfoContext(cctx.Context, "forked directory tree")
	fmt.Fprintln(cctx.App.Writer, forked.Root())

	return nil
}
