package fixturetree

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/gitlab-org/fixturetree/fixture"
	"gitlab.com/gitlab-org/fixturetree/internal/specfile"
)

func newMaterializeCommand() *cli.Command {
	return &cli.Command{
		Name:  "materialize",
		Usage: "write a specification file to disk",
		Description: `Write the files and directories declared by a YAML or JSON specification file.

The specification is written into the directory given by --root. Without --root, a new root is
generated below the configured root base. The root is printed on success.

Example: fixturetree materialize --spec fixtures.yaml --root /tmp/fixtures`,
		HideHelpCommand: true,
		Before:          noPositionalArgs,
		Action:          materializeAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagSpec,
				Usage:    "path to the specification file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagRoot,
				Usage: "directory to write the specification into",
			},
		},
	}
}

func materializeAction(cctx *cli.Context) error {
	logger, policy, err := setup(cctx)
	if err != nil {
		return err
	}

	spec, err := specfile.LoadFile(cctx.String(flagSpec))
	if err != nil {
		return fmt.Errorf("load specification: %w", err)
	}

	var opts []fixture.CreateOption
	if root := cctx.String(flagRoot); root != "" {
		opts = append(opts, fixture.AtRoot(root))
	}

	f, err := policy.Create(cctx.Context, spec, opts...)
	if err != nil {
		return fmt.Errorf("materialize: %w", err)
	}

	logger.WithField("paths", f.Paths().Len()).InfoContext(cctx.Context, "materialized specification")
	fmt.Fprintln(cctx.App.Writer, f.Root())

	return nil
}
