package duplicate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/gitlab-org/fixturetree/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.Run(m)
}

func sourceTree(tb testing.TB) string {
	tb.Helper()

	source := filepath.Join(tb.TempDir(), "source")
	testhelper.CreateFS(tb, source, fstest.MapFS{
		".":             {Mode: fs.ModeDir | 0o755},
		"a.txt":         {Mode: 0o644, Data: []byte("a")},
		"b":             {Mode: fs.ModeDir | 0o750},
		"b/a.txt":       {Mode: 0o600, Data: []byte("b-a")},
		"b/empty":       {Mode: fs.ModeDir | 0o755},
		"c":             {Mode: fs.ModeDir | 0o755},
		"c/a":           {Mode: fs.ModeDir | 0o755},
		"c/a/a.txt":     {Mode: 0o755, Data: []byte{0x00, 0xff}},
		"c/a/empty.txt": {Mode: 0o644},
	})
	require.NoError(tb, os.Symlink("../a.txt", filepath.Join(source, "b", "link")))

	return source
}

func expectedTree() testhelper.DirectoryState {
	umask := testhelper.Umask()

	return testhelper.DirectoryState{
		"/":              {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/a.txt":         {Mode: umask.Mask(0o644), Content: []byte("a")},
		"/b":             {Mode: fs.ModeDir | umask.Mask(0o750)},
		"/b/a.txt":       {Mode: umask.Mask(0o600), Content: []byte("b-a")},
		"/b/empty":       {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/b/link":        {Mode: fs.ModeSymlink | 0o777, Content: "../a.txt"},
		"/c":             {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/c/a":           {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/c/a/a.txt":     {Mode: umask.Mask(0o755), Content: []byte{0x00, 0xff}},
		"/c/a/empty.txt": {Mode: umask.Mask(0o644), Content: []byte{}},
	}
}

func TestDuplicator_Tree(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		desc     string
		strategy Strategy
		opts     []Option
	}{
		{desc: "auto", strategy: StrategyAuto},
		{desc: "default strategy"},
		{desc: "copy", strategy: StrategyCopy},
		{desc: "copy with limited concurrency", strategy: StrategyCopy, opts: []Option{WithConcurrency(1)}},
	} {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			ctx := testhelper.Context(t)
			source := sourceTree(t)
			target := filepath.Join(t.TempDir(), "nested", "target")

			metrics := NewMetrics()
			duplicator := New(testhelper.NewLogger(t), metrics, tc.strategy, tc.opts...)
			require.NoError(t, duplicator.Tree(ctx, source, target))

			testhelper.RequireDirectoryState(t, target, "", expectedTree())
			// The source is left as it was.
			testhelper.RequireDirectoryState(t, source, "", expectedTree())

			cloned := testutil.ToFloat64(metrics.filesDuplicatedTotal.WithLabelValues(methodClone))
			copied := testutil.ToFloat64(metrics.filesDuplicatedTotal.WithLabelValues(methodCopy))
			require.Equal(t, float64(4), cloned+copied)
			if tc.strategy == StrategyCopy {
				require.Zero(t, cloned)
				require.Zero(t, testutil.ToFloat64(metrics.cloneFallbacksTotal))
			}
		})
	}
}

func TestDuplicator_TreeCloneOnly(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	source := sourceTree(t)
	target := filepath.Join(t.TempDir(), "target")

	metrics := NewMetrics()
	err := New(testhelper.NewLogger(t), metrics, StrategyClone).Tree(ctx, source, target)
	if err != nil {
		// Whether the temporary directory supports clones depends on the
		// filesystem the tests run on.
		require.ErrorIs(t, err, ErrCloneUnsupported)
		require.Zero(t, testutil.ToFloat64(metrics.filesDuplicatedTotal.WithLabelValues(methodCopy)))
		return
	}

	testhelper.RequireDirectoryState(t, target, "", expectedTree())
	require.Equal(t, float64(4), testutil.ToFloat64(metrics.filesDuplicatedTotal.WithLabelValues(methodClone)))
}

func TestDuplicator_TreeOverwrites(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	source := sourceTree(t)
	target := filepath.Join(t.TempDir(), "target")

	testhelper.CreateFS(t, target, fstest.MapFS{
		".":         {Mode: fs.ModeDir | 0o755},
		"a.txt":     {Mode: 0o644, Data: []byte("a much longer stale content")},
		"extra.txt": {Mode: 0o644, Data: []byte("extra")},
	})

	require.NoError(t, New(testhelper.NewLogger(t), NewMetrics(), StrategyAuto).Tree(ctx, source, target))

	expected := expectedTree()
	expected["/extra.txt"] = testhelper.DirectoryEntry{Mode: testhelper.Umask().Mask(0o644), Content: []byte("extra")}
	testhelper.RequireDirectoryState(t, target, "", expected)
}

func TestDuplicator_TreeRepeated(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{StrategyAuto, StrategyCopy} {
		strategy := strategy
		t.Run(string(strategy), func(t *testing.T) {
			t.Parallel()

			ctx := testhelper.Context(t)
			source := sourceTree(t)
			target := filepath.Join(t.TempDir(), "target")
			duplicator := New(testhelper.NewLogger(t), NewMetrics(), strategy)

			require.NoError(t, duplicator.Tree(ctx, source, target))
			require.NoError(t, duplicator.Tree(ctx, source, target))
			testhelper.RequireDirectoryState(t, target, "", expectedTree())
		})
	}
}

func TestDuplicator_TreeReplacesEntryAtSymlinkPath(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	source := sourceTree(t)
	target := filepath.Join(t.TempDir(), "target")

	testhelper.CreateFS(t, target, fstest.MapFS{
		".":      {Mode: fs.ModeDir | 0o755},
		"b":      {Mode: fs.ModeDir | 0o750},
		"b/link": {Mode: 0o644, Data: []byte("regular file")},
	})

	require.NoError(t, New(testhelper.NewLogger(t), NewMetrics(), StrategyCopy).Tree(ctx, source, target))
	testhelper.RequireDirectoryState(t, target, "", expectedTree())
}

func TestDuplicator_TreeReadOnlyDirectory(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	source := filepath.Join(t.TempDir(), "source")
	target := filepath.Join(t.TempDir(), "target")

	testhelper.CreateFS(t, source, fstest.MapFS{
		".":                {Mode: fs.ModeDir | 0o755},
		"readonly":         {Mode: fs.ModeDir | 0o755},
		"readonly/a.txt":   {Mode: 0o444, Data: []byte("a")},
		"readonly/b":       {Mode: fs.ModeDir | 0o755},
		"readonly/b/c.txt": {Mode: 0o444, Data: []byte("c")},
	})
	require.NoError(t, os.Chmod(filepath.Join(source, "readonly"), 0o555))
	t.Cleanup(func() {
		require.NoError(t, os.Chmod(filepath.Join(source, "readonly"), 0o755))
		require.NoError(t, os.Chmod(filepath.Join(target, "readonly"), 0o755))
	})

	require.NoError(t, New(testhelper.NewLogger(t), NewMetrics(), StrategyCopy).Tree(ctx, source, target))

	umask := testhelper.Umask()
	testhelper.RequireDirectoryState(t, target, "", testhelper.DirectoryState{
		"/":                 {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/readonly":         {Mode: fs.ModeDir | 0o555},
		"/readonly/a.txt":   {Mode: umask.Mask(0o444), Content: []byte("a")},
		"/readonly/b":       {Mode: fs.ModeDir | umask.Mask(0o755)},
		"/readonly/b/c.txt": {Mode: umask.Mask(0o444), Content: []byte("c")},
	})
}

func TestDuplicator_TreeMissingSource(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	dir := t.TempDir()

	err := New(testhelper.NewLogger(t), NewMetrics(), StrategyAuto).Tree(ctx, filepath.Join(dir, "missing"), filepath.Join(dir, "target"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDuplicator_TreeCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(testhelper.Context(t))
	cancel()

	source := sourceTree(t)
	parent := filepath.Join(t.TempDir(), "parent")
	err := New(testhelper.NewLogger(t), NewMetrics(), StrategyAuto).Tree(ctx, source, filepath.Join(parent, "target"))
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(parent)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name             string
		expectedStrategy Strategy
		expectedErr      string
	}{
		{name: "", expectedStrategy: StrategyAuto},
		{name: "auto", expectedStrategy: StrategyAuto},
		{name: "clone", expectedStrategy: StrategyClone},
		{name: "copy", expectedStrategy: StrategyCopy},
		{name: "reflink", expectedErr: `unknown duplication strategy "reflink"`},
	} {
		strategy, err := ParseStrategy(tc.name)
		if tc.expectedErr != "" {
			require.EqualError(t, err, tc.expectedErr)
			continue
		}

		require.NoError(t, err)
		require.Equal(t, tc.expectedStrategy, strategy)
	}
}
