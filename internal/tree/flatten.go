package tree

import (
	"gitlab.com/gitlab-org/fixturetree/internal/paths"
)

// Flatten computes the flat path table of a specification rooted at root. The
// table has an entry for every file leaf, every directory node and every
// directory implied by a multi-segment key, in declared order with parents
// before their descendants. Flatten does not access the filesystem.
func Flatten(spec Dir, root string, unixStyle bool) (*paths.Table, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}

	table := paths.New(root, unixStyle)
	if err := walk(spec, "", func(relativePath string, _ Node, _ bool) error {
		table.Add(relativePath)
		return nil
	}); err != nil {
		return nil, err
	}

	return table, nil
}
