// pkg/storage/storage_test.go
// TEST TYPE: Storage Engine Tests
// DEPENDENCIES: Real filesystem (ALLOWED for storage package) plus afero
// memory FS for symlink-incapable platform scenarios
// PURPOSE: Test tool storage paths, binary writes, self-contents caching,
// and link reconciliation

package storage_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/toolbelt/pkg/config"
	"github.com/arthur-debert/toolbelt/pkg/filesystem"
	"github.com/arthur-debert/toolbelt/pkg/paths"
	"github.com/arthur-debert/toolbelt/pkg/storage"
	"github.com/arthur-debert/toolbelt/pkg/types"
)

// countingFS wraps a types.FS and counts ReadFile calls per path
type countingFS struct {
	types.FS

	mu    sync.Mutex
	reads map[string]int
}

func newCountingFS(inner types.FS) *countingFS {
	return &countingFS{FS: inner, reads: make(map[string]int)}
}

func (c *countingFS) ReadFile(name string) ([]byte, error) {
	c.mu.Lock()
	c.reads[name]++
	c.mu.Unlock()
	return c.FS.ReadFile(name)
}

func (c *countingFS) readCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[name]
}

// failingSymlinkFS wraps a types.FS and fails symlink creation for any
// link path containing the marker
type failingSymlinkFS struct {
	types.FS
	marker string
}

func (f *failingSymlinkFS) Symlink(oldname, newname string) error {
	if f.marker != "" && filepath.Base(newname) == f.marker {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return f.FS.Symlink(oldname, newname)
}

// setupStorage creates a storage over a temp home with a fake manager
// executable, returning the storage, the home, and the executable path.
func setupStorage(t *testing.T, fs types.FS, cfg config.Config, exeContents []byte) (*storage.ToolStorage, paths.Home, string) {
	t.Helper()

	tempDir := t.TempDir()
	home, err := paths.New(filepath.Join(tempDir, "toolbelt-home"))
	require.NoError(t, err)

	exePath := filepath.Join(tempDir, "toolbelt-exe")
	require.NoError(t, fs.WriteFile(exePath, exeContents, 0755))

	store, err := storage.LoadWithExecutable(fs, home, cfg, exePath)
	require.NoError(t, err)

	return store, home, exePath
}

func TestLoadCreatesDirectories(t *testing.T) {
	fs := filesystem.NewOS()
	_, home, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	for _, dir := range []string{home.ToolStorageDir(), home.BinDir()} {
		info, err := fs.Stat(dir)
		require.NoError(t, err, "expected %s to exist", dir)
		assert.True(t, info.IsDir())
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	fs := filesystem.NewOS()
	store, home, exePath := setupStorage(t, fs, config.Default(), []byte("exe"))
	require.NotNil(t, store)

	// Loading again over the same home must succeed
	again, err := storage.LoadWithExecutable(fs, home, config.Default(), exePath)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestToolPathIsPureAndDeterministic(t *testing.T) {
	fs := filesystem.NewOS()
	store, home, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	spec := types.ToolSpec{Author: "acme", Name: "foo", Version: "1.2.3"}

	want := filepath.Join(home.ToolStorageDir(), "acme", "foo", "1.2.3", "foo"+storage.ExeSuffix)
	assert.Equal(t, want, store.ToolPath(spec))
	assert.Equal(t, store.ToolPath(spec), store.ToolPath(spec))

	// Distinct triples yield distinct paths
	other := types.ToolSpec{Author: "acme", Name: "foo", Version: "1.2.4"}
	assert.NotEqual(t, store.ToolPath(spec), store.ToolPath(other))

	// Path derivation performs no I/O: nothing exists on disk yet
	_, err := fs.Stat(store.ToolPath(spec))
	assert.True(t, os.IsNotExist(err))
}

func TestAliasAndManagerPaths(t *testing.T) {
	fs := filesystem.NewOS()
	store, home, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	assert.Equal(t, filepath.Join(home.BinDir(), "foo"+storage.ExeSuffix), store.AliasPath(types.ToolAlias{Name: "foo"}))
	assert.Equal(t, filepath.Join(home.BinDir(), "toolbelt"+storage.ExeSuffix), store.ManagerPath())
}

func TestStoreTool(t *testing.T) {
	fs := filesystem.NewOS()
	store, _, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	spec := types.ToolSpec{Author: "acme", Name: "foo", Version: "1.2.3"}
	contents := []byte{0xDE, 0xAD}
	require.NoError(t, store.StoreTool(spec, contents))

	got, err := fs.ReadFile(store.ToolPath(spec))
	require.NoError(t, err)
	assert.Equal(t, contents, got)

	info, err := fs.Stat(store.ToolPath(spec))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "stored tool should be executable")
}

func TestStoreToolReplacesExistingContents(t *testing.T) {
	fs := filesystem.NewOS()
	store, _, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	spec := types.ToolSpec{Author: "acme", Name: "foo", Version: "1.2.3"}
	require.NoError(t, store.StoreTool(spec, []byte("old contents, longer")))
	require.NoError(t, store.StoreTool(spec, []byte("new")))

	got, err := fs.ReadFile(store.ToolPath(spec))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestSelfContentsReadsDiskExactlyOnce(t *testing.T) {
	fs := newCountingFS(filesystem.NewOS())
	exeContents := []byte("manager binary bytes")
	store, _, exePath := setupStorage(t, fs, config.Default(), exeContents)

	const callers = 8
	results := make([][]byte, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := store.SelfContents()
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, exeContents, got)
	}
	assert.Equal(t, 1, fs.readCount(exePath), "expected exactly one disk read of the executable")

	// Later callers keep hitting the cache
	_, err := store.SelfContents()
	require.NoError(t, err)
	assert.Equal(t, 1, fs.readCount(exePath))
}

func TestReplaceSelfWithExplicitContents(t *testing.T) {
	fs := newCountingFS(filesystem.NewOS())
	store, _, exePath := setupStorage(t, fs, config.Default(), []byte("old bytes"))

	newContents := []byte("updated manager bytes")
	require.NoError(t, store.ReplaceSelf(newContents))

	got, err := fs.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, newContents, got)

	// Explicit contents replace the cache, so no disk read ever happens
	cached, err := store.SelfContents()
	require.NoError(t, err)
	assert.Equal(t, newContents, cached)
	assert.Equal(t, 0, fs.readCount(exePath))
}

func TestReplaceSelfWithoutContentsUsesCurrentExecutable(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("manager binary bytes")
	store, _, _ := setupStorage(t, fs, config.Default(), exeContents)

	require.NoError(t, store.ReplaceSelf(nil))

	got, err := fs.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, exeContents, got)

	info, err := fs.Stat(store.ManagerPath())
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111)
}

func TestCreateToolLink(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("manager binary bytes")
	store, _, _ := setupStorage(t, fs, config.Default(), exeContents)

	alias := types.ToolAlias{Name: "foo"}
	require.NoError(t, store.CreateToolLink(alias))

	// The alias resolves to the manager's bytes, whatever its physical form
	got, err := os.ReadFile(store.AliasPath(alias))
	require.NoError(t, err)
	assert.Equal(t, exeContents, got)
}

func TestCreateToolLinkRejectsInvalidAlias(t *testing.T) {
	fs := filesystem.NewOS()
	store, _, _ := setupStorage(t, fs, config.Default(), []byte("exe"))

	require.Error(t, store.CreateToolLink(types.ToolAlias{Name: ""}))
	require.Error(t, store.CreateToolLink(types.ToolAlias{Name: "a/b"}))
}

func TestRecreateAllLinksFreshInstall(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("manager binary bytes")
	store, home, _ := setupStorage(t, fs, config.Default(), exeContents)

	found, changed, err := store.RecreateAllLinks()
	require.NoError(t, err)
	assert.False(t, found, "no manager entry existed before the call")
	assert.True(t, changed, "absence always counts as changed")

	got, err := fs.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, exeContents, got)

	// Exactly one entry: the manager itself (no known tools yet)
	entries, err := fs.ReadDir(home.BinDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecreateAllLinksSecondRunIsNoOp(t *testing.T) {
	fs := filesystem.NewOS()
	store, _, _ := setupStorage(t, fs, config.Default(), []byte("manager binary bytes"))

	_, _, err := store.RecreateAllLinks()
	require.NoError(t, err)

	found, changed, err := store.RecreateAllLinks()
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, changed)
}

func TestRecreateAllLinksRepairsStaleAliases(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("new manager bytes")
	store, home, _ := setupStorage(t, fs, config.Default(), exeContents)

	// A previous install left an outdated manager binary and a stale
	// "bar" alias written as a full copy of the old bytes
	oldContents := []byte("old manager bytes")
	require.NoError(t, fs.WriteFile(store.ManagerPath(), oldContents, 0755))
	barPath := filepath.Join(home.BinDir(), "bar"+storage.ExeSuffix)
	require.NoError(t, fs.WriteFile(barPath, oldContents, 0755))

	found, changed, err := store.RecreateAllLinks()
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, changed, "manager bytes differed from what was on disk")

	managerGot, err := fs.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, exeContents, managerGot)

	// bar now resolves to the same bytes, via symlink on this platform
	barGot, err := os.ReadFile(barPath)
	require.NoError(t, err)
	assert.Equal(t, exeContents, barGot)

	info, err := fs.Lstat(barPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "expected bar to be a symlink")

	target, err := fs.Readlink(barPath)
	require.NoError(t, err)
	assert.Equal(t, store.ManagerPath(), target)
}

func TestRecreateAllLinksManyAliases(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("manager binary bytes")
	store, home, _ := setupStorage(t, fs, config.Default(), exeContents)

	aliases := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	for _, name := range aliases {
		path := filepath.Join(home.BinDir(), name+storage.ExeSuffix)
		require.NoError(t, fs.WriteFile(path, []byte("stale"), 0755))
	}

	_, _, err := store.RecreateAllLinks()
	require.NoError(t, err)

	for _, name := range aliases {
		path := filepath.Join(home.BinDir(), name+storage.ExeSuffix)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, exeContents, got, "alias %s should resolve to the manager bytes", name)
	}
}

func TestRecreateAllLinksForceCopy(t *testing.T) {
	fs := filesystem.NewOS()
	exeContents := []byte("manager binary bytes")
	cfg := config.Config{ForceCopyLinks: true}
	store, home, _ := setupStorage(t, fs, cfg, exeContents)

	barPath := filepath.Join(home.BinDir(), "bar"+storage.ExeSuffix)
	require.NoError(t, fs.WriteFile(barPath, []byte("stale"), 0755))

	_, _, err := store.RecreateAllLinks()
	require.NoError(t, err)

	info, err := fs.Lstat(barPath)
	require.NoError(t, err)
	assert.Zero(t, info.Mode()&os.ModeSymlink, "expected bar to be a full copy, not a link")

	got, err := fs.ReadFile(barPath)
	require.NoError(t, err)
	assert.Equal(t, exeContents, got)
}

func TestRecreateAllLinksWithoutSymlinkSupport(t *testing.T) {
	// afero's memory filesystem has no symlink support, standing in for
	// a platform without symbolic links
	fs := filesystem.NewAfero(afero.NewMemMapFs())
	exeContents := []byte("manager binary bytes")
	store, home, _ := setupStorage(t, fs, config.Default(), exeContents)

	barPath := filepath.Join(home.BinDir(), "bar"+storage.ExeSuffix)
	require.NoError(t, fs.WriteFile(barPath, []byte("stale"), 0755))

	found, changed, err := store.RecreateAllLinks()
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, changed)

	// Every alias is a byte-for-byte copy
	got, err := fs.ReadFile(barPath)
	require.NoError(t, err)
	assert.Equal(t, exeContents, got)

	managerGot, err := fs.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, exeContents, managerGot)
}

func TestRecreateAllLinksFirstErrorAborts(t *testing.T) {
	inner := filesystem.NewOS()
	fs := &failingSymlinkFS{FS: inner, marker: "bad" + storage.ExeSuffix}
	exeContents := []byte("manager binary bytes")
	store, home, _ := setupStorage(t, fs, config.Default(), exeContents)

	require.NoError(t, inner.WriteFile(filepath.Join(home.BinDir(), "good"+storage.ExeSuffix), []byte("stale"), 0755))
	require.NoError(t, inner.WriteFile(filepath.Join(home.BinDir(), "bad"+storage.ExeSuffix), []byte("stale"), 0755))

	_, _, err := store.RecreateAllLinks()
	require.Error(t, err)

	// The manager entry is written before any alias, so it is intact
	// even though the reconciliation failed
	managerGot, err := inner.ReadFile(store.ManagerPath())
	require.NoError(t, err)
	assert.Equal(t, exeContents, managerGot)

	// Re-running after fixing the cause succeeds: idempotent recovery
	fs.marker = ""
	_, _, err = store.RecreateAllLinks()
	require.NoError(t, err)
}
