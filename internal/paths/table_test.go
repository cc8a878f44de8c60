package paths

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTable(root string, unixStyle bool, keys ...string) *Table {
	table := New(root, unixStyle)
	for _, key := range keys {
		table.Add(key)
	}
	return table
}

func TestTable_Add(t *testing.T) {
	t.Parallel()

	root := filepath.Join("/", "fixtures", "r1")
	table := newTable(root, false, "a.txt", "b", "b/a.txt")

	require.Equal(t, []string{"a.txt", "b", "b/a.txt"}, table.Keys())
	require.Equal(t, 3, table.Len())
	require.Equal(t, root, table.Root())

	value, ok := table.Get("b/a.txt")
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "b", "a.txt"), value)

	_, ok = table.Get("missing")
	require.False(t, ok)
}

func TestTable_AddKeepsPosition(t *testing.T) {
	t.Parallel()

	table := newTable("/r", true, "a", "b", "a")
	require.Equal(t, []string{"a", "b"}, table.Keys())
}

func TestTable_unixStyle(t *testing.T) {
	t.Parallel()

	root := filepath.Join("/", "fixtures", "r1")
	table := newTable(root, true, "c/a/a.txt")

	require.Equal(t, filepath.ToSlash(root), table.Root())
	require.True(t, table.UnixStyle())

	value, ok := table.Get("c/a/a.txt")
	require.True(t, ok)
	require.Equal(t, filepath.ToSlash(filepath.Join(root, "c", "a", "a.txt")), value)
}

func TestTable_Rebase(t *testing.T) {
	t.Parallel()

	oldRoot := filepath.Join("/", "fixtures", "r1")
	newRoot := filepath.Join("/", "elsewhere", "r2")

	for _, tc := range []struct {
		desc      string
		unixStyle bool
	}{
		{desc: "native separators"},
		{desc: "unix style", unixStyle: true},
	} {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			table := newTable(oldRoot, tc.unixStyle, "a.txt", "b", "b/a.txt")
			rebased, err := table.Rebase(newRoot, tc.unixStyle)
			require.NoError(t, err)

			expected := newTable(newRoot, tc.unixStyle, "a.txt", "b", "b/a.txt")
			require.Equal(t, expected.Keys(), rebased.Keys())
			require.Empty(t, cmp.Diff(expected.Map(), rebased.Map()))
			require.Equal(t, expected.Root(), rebased.Root())

			// The source table is left untouched.
			require.Equal(t, newTable(oldRoot, tc.unixStyle, "a.txt", "b", "b/a.txt").Map(), table.Map())
		})
	}
}

func TestTable_RebaseKeyEchoingRoot(t *testing.T) {
	t.Parallel()

	// The relative path repeats the name of the root. Only the recorded root
	// prefix may be replaced.
	oldRoot := filepath.Join("/", "tmp", "r1")
	table := newTable(oldRoot, false, "r1", "r1/r1.txt")

	rebased, err := table.Rebase(filepath.Join("/", "tmp", "r2"), false)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"r1":        filepath.Join("/", "tmp", "r2", "r1"),
		"r1/r1.txt": filepath.Join("/", "tmp", "r2", "r1", "r1.txt"),
	}, rebased.Map())
}

func TestTable_RebaseForeignPath(t *testing.T) {
	t.Parallel()

	table := New(filepath.Join("/", "tmp", "a"), false)
	table.set("x", filepath.Join("/", "tmp", "ab", "x"))

	_, err := table.Rebase(filepath.Join("/", "tmp", "c"), false)
	require.ErrorIs(t, err, ErrForeignPath)
}

func TestTable_Merge(t *testing.T) {
	t.Parallel()

	root := filepath.Join("/", "fixtures", "r1")
	previous := newTable(root, false, "a.txt", "b", "b/a.txt")
	current := newTable(root, false, "b/a.txt", "c.txt")

	merged, err := previous.Merge(current)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b", "b/a.txt", "c.txt"}, merged.Keys())

	for _, key := range previous.Keys() {
		expected, _ := previous.Get(key)
		actual, ok := merged.Get(key)
		require.True(t, ok)
		require.Equal(t, expected, actual)
	}
}

func TestTable_MergeRootMismatch(t *testing.T) {
	t.Parallel()

	_, err := newTable("/a", false, "x").Merge(newTable("/b", false, "y"))
	require.ErrorIs(t, err, ErrRootMismatch)
}

func TestCutRoot(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		path, root string
		rest       string
		ok         bool
	}{
		{path: "/tmp/a", root: "/tmp/a", rest: "", ok: true},
		{path: "/tmp/a/b", root: "/tmp/a", rest: "b", ok: true},
		{path: "/tmp/ab", root: "/tmp/a", ok: false},
		{path: "/a/b", root: "/", rest: "a/b", ok: true},
		{path: "/other", root: "/tmp", ok: false},
	} {
		rest, ok := cutRoot(tc.path, tc.root)
		require.Equal(t, tc.ok, ok, "%s in %s", tc.path, tc.root)
		require.Equal(t, tc.rest, rest, "%s in %s", tc.path, tc.root)
	}
}
