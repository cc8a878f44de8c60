package fixturetree

import (
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"gitlab.com/gitlab-org/fixturetree/internal/specfile"
	"gitlab.com/gitlab-org/fixturetree/internal/tree"
)

func newFlattenCommand() *cli.Command {
	return &cli.Command{
		Name:  "flatten",
		Usage: "print the path table of a specification file",
		Description: `Print the paths a YAML or JSON specification file declares when rooted at --root.

Returns a table with the following columns:

- Relative path: Path relative to the root, separated by forward slashes.
- Absolute path: Path the entry is written to.

Nothing is written to disk.

Example: fixturetree flatten --spec fixtures.yaml --root /tmp/fixtures`,
		HideHelpCommand: true,
		Before:          noPositionalArgs,
		Action:          flattenAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagSpec,
				Usage:    "path to the specification file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     flagRoot,
				Usage:    "root directory the paths are computed against",
				Required: true,
			},
		},
	}
}

func flattenAction(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}

	spec, err := specfile.LoadFile(cctx.String(flagSpec))
	if err != nil {
		return fmt.Errorf("load specification: %w", err)
	}

	root, err := filepath.Abs(cctx.String(flagRoot))
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	paths, err := tree.Flatten(spec, root, cfg.UnixStyle)
	if err != nil {
		return fmt.Errorf("flatten: %w", err)
	}

	table := tablewriter.NewWriter(cctx.App.Writer)
	table.SetHeader([]string{"Relative path", "Absolute path"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	for _, key := range paths.Keys() {
		value, _ := paths.Get(key)
		table.Append([]string{key, value})
	}

	table.Render()

	return nil
}
