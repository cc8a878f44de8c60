package fixture

import (
	"gitlab.com/gitlab-org/fixturetree/internal/config"
	"gitlab.com/gitlab-org/fixturetree/internal/duplicate"
	"gitlab.com/gitlab-org/fixturetree/internal/log"
	"gitlab.com/gitlab-org/fixturetree/internal/paths"
	"gitlab.com/gitlab-org/fixturetree/internal/tree"
)

type (
	// Dir is a directory node of a specification. Entries keep their declared
	// order. Keys may contain slashes to declare nested paths at once.
	Dir = tree.Dir
	// Entry is a named child of a directory node.
	Entry = tree.Entry
	// File is a file leaf of a specification.
	File = tree.File
	// Node is either a Dir or a File.
	Node = tree.Node
	// Paths maps the relative paths of a fixture to absolute paths.
	Paths = paths.Table
	// CopyStrategy selects how Fork duplicates files.
	CopyStrategy = duplicate.Strategy
	// Logger is the logger used by policies.
	Logger = log.Logger
	// Config configures a policy, see FromConfig.
	Config = config.Cfg
)

const (
	// CopyAuto clones files with copy-on-write and falls back to copying.
	CopyAuto = duplicate.StrategyAuto
	// CopyClone only clones files.
	CopyClone = duplicate.StrategyClone
	// CopyBytes only copies files.
	CopyBytes = duplicate.StrategyCopy
)

// Text returns a file leaf with the given content.
func Text(content string) File {
	return tree.Text(content)
}
