package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/toolbelt/pkg/config"
	"github.com/arthur-debert/toolbelt/pkg/errors"
	"github.com/arthur-debert/toolbelt/pkg/logging"
	"github.com/arthur-debert/toolbelt/pkg/paths"
	"github.com/arthur-debert/toolbelt/pkg/types"
)

// ManagerName is the name of the toolbelt binary itself, as installed
// into the bin directory.
const ManagerName = "toolbelt"

// ToolStorage stores tool binaries and their alias entry points.
//
// A ToolStorage is created once per process via Load and may be shared
// freely between goroutines: the directory paths are immutable and the
// only mutable state, the cached manager executable contents, is guarded
// by a mutex.
type ToolStorage struct {
	fs         types.FS
	toolsDir   string
	aliasesDir string

	selfExePath string
	symlinks    bool

	// selfMu guards selfContents. It is held only across the
	// check-and-populate of the cache, never across disk writes.
	selfMu       sync.Mutex
	selfContents []byte

	logger zerolog.Logger
}

// Load initializes storage under the given home: it creates the tool and
// alias directories if absent and resolves the path of the currently
// running executable. Directory creation and executable resolution run
// concurrently; executable resolution can block on some platforms, so it
// gets its own goroutine.
func Load(fsys types.FS, home paths.Home, cfg config.Config) (*ToolStorage, error) {
	return load(fsys, home, cfg, resolveExecutable)
}

// LoadWithExecutable is like Load but treats exePath as the manager
// executable instead of resolving the currently running one.
func LoadWithExecutable(fsys types.FS, home paths.Home, cfg config.Config, exePath string) (*ToolStorage, error) {
	return load(fsys, home, cfg, func() (string, error) {
		return filepath.Abs(exePath)
	})
}

func load(fsys types.FS, home paths.Home, cfg config.Config, resolveExe func() (string, error)) (*ToolStorage, error) {
	toolsDir := home.ToolStorageDir()
	aliasesDir := home.BinDir()

	type exeResult struct {
		path string
		err  error
	}
	exeCh := make(chan exeResult, 1)
	go func() {
		path, err := resolveExe()
		exeCh <- exeResult{path: path, err: err}
	}()

	if err := fsys.MkdirAll(toolsDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create tool storage directory %s", toolsDir)
	}
	if err := fsys.MkdirAll(aliasesDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create bin directory %s", aliasesDir)
	}

	exe := <-exeCh
	if exe.err != nil {
		return nil, errors.Wrap(exe.err, errors.ErrExeResolve, "failed to resolve current executable")
	}

	s := &ToolStorage{
		fs:          fsys,
		toolsDir:    toolsDir,
		aliasesDir:  aliasesDir,
		selfExePath: exe.path,
		symlinks:    !cfg.ForceCopyLinks && probeSymlinks(fsys, aliasesDir),
		logger:      logging.GetLogger("storage"),
	}

	s.logger.Debug().
		Str("toolsDir", toolsDir).
		Str("aliasesDir", aliasesDir).
		Str("selfExe", exe.path).
		Bool("symlinks", s.symlinks).
		Msg("Tool storage loaded")

	return s, nil
}

// resolveExecutable returns the absolute path of the running executable
func resolveExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Abs(exe)
}

// toolPaths returns the version directory and binary file path for a spec
func (s *ToolStorage) toolPaths(spec types.ToolSpec) (string, string) {
	toolDir := filepath.Join(s.toolsDir, spec.Author, spec.Name, spec.Version)
	toolFile := filepath.Join(toolDir, spec.Name+ExeSuffix)
	return toolDir, toolFile
}

// ToolPath returns the path to the binary for the given tool.
//
// Note that this does not check if the binary actually exists.
func (s *ToolStorage) ToolPath(spec types.ToolSpec) string {
	_, toolFile := s.toolPaths(spec)
	return toolFile
}

// AliasPath returns the path to the entry point for the given alias.
func (s *ToolStorage) AliasPath(alias types.ToolAlias) string {
	return filepath.Join(s.aliasesDir, alias.Name+ExeSuffix)
}

// ManagerPath returns the path to the toolbelt binary's own entry point.
func (s *ToolStorage) ManagerPath() string {
	return filepath.Join(s.aliasesDir, ManagerName+ExeSuffix)
}

// StoreTool writes the binary contents for the given tool, replacing any
// previous contents for that version.
func (s *ToolStorage) StoreTool(spec types.ToolSpec, contents []byte) error {
	toolDir, toolFile := s.toolPaths(spec)
	if err := s.fs.MkdirAll(toolDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create tool directory %s", toolDir)
	}
	if err := writeExecutableFile(s.fs, toolFile, contents); err != nil {
		return err
	}

	s.logger.Debug().Str("tool", spec.String()).Str("path", toolFile).Msg("Stored tool binary")
	return nil
}

// SelfContents returns the bytes of the running manager executable.
//
// The first call reads the executable from disk; the result is cached for
// the process lifetime, so concurrent callers trigger at most one read
// and all observe identical bytes. Callers must not modify the returned
// slice.
func (s *ToolStorage) SelfContents() ([]byte, error) {
	s.selfMu.Lock()
	defer s.selfMu.Unlock()

	if s.selfContents != nil {
		return s.selfContents, nil
	}

	contents, err := s.fs.ReadFile(s.selfExePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileRead, "failed to read current executable %s", s.selfExePath)
	}
	s.selfContents = contents

	s.logger.Debug().Str("path", s.selfExePath).Int("bytes", len(contents)).Msg("Cached current executable contents")
	return contents, nil
}

// ReplaceSelf writes the manager binary's entry point in the bin
// directory.
//
// If contents is non-nil it becomes the new cached executable contents
// (self-update); if nil, the current contents are used, read from disk at
// most once (link reconciliation).
func (s *ToolStorage) ReplaceSelf(contents []byte) error {
	if contents != nil {
		s.selfMu.Lock()
		s.selfContents = contents
		s.selfMu.Unlock()
	} else {
		var err error
		contents, err = s.SelfContents()
		if err != nil {
			return err
		}
	}
	return writeExecutableFile(s.fs, s.ManagerPath(), contents)
}

// CreateToolLink creates or refreshes the entry point for a single tool
// alias, pointing it at the manager binary.
//
// Note that if the entry point already exists, it will be overwritten.
func (s *ToolStorage) CreateToolLink(alias types.ToolAlias) error {
	if err := alias.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "refusing to create tool link")
	}

	if s.symlinks {
		// A symlink is useless without its target; make sure the
		// manager entry point exists before pointing at it.
		if _, err := s.fs.Stat(s.ManagerPath()); err != nil {
			if err := s.ReplaceSelf(nil); err != nil {
				return err
			}
		}
		return writeExecutableLink(s.fs, s.ManagerPath(), s.AliasPath(alias))
	}

	contents, err := s.SelfContents()
	if err != nil {
		return err
	}
	return writeExecutableFile(s.fs, s.AliasPath(alias), contents)
}

// RecreateAllLinks reconciles every entry point in the bin directory
// against the manager binary. This includes the entry point for toolbelt
// itself, which is always rewritten; all other entries are re-pointed at
// it (symlink platforms) or rewritten as full copies.
//
// It returns two booleans for the caller's reporting:
//
//   - found: an entry point for toolbelt already existed before this call
//   - changed: the manager binary written differs from what was on disk
func (s *ToolStorage) RecreateAllLinks() (found bool, changed bool, err error) {
	contents, err := s.SelfContents()
	if err != nil {
		return false, false, err
	}
	managerPath := s.ManagerPath()

	var linkPaths []string
	entries, err := s.fs.ReadDir(s.aliasesDir)
	if err != nil {
		return false, false, errors.Wrapf(err, errors.ErrDirRead, "failed to read bin directory %s", s.aliasesDir)
	}
	for _, entry := range entries {
		path := filepath.Join(s.aliasesDir, entry.Name())
		if path == managerPath {
			found = true
			continue
		}
		s.logger.Debug().Str("path", path).Msg("Found existing link")
		linkPaths = append(linkPaths, path)
	}

	// A failed read means no usable prior binary; compare against empty
	// so a first install always counts as changed.
	existing, readErr := s.fs.ReadFile(managerPath)
	if readErr != nil {
		existing = nil
	}
	changed = !bytes.Equal(existing, contents)

	// Always write the manager binary first so no alias can ever point
	// at a missing or stale entry point.
	if err := writeExecutableFile(s.fs, managerPath, contents); err != nil {
		return found, changed, err
	}

	// The remaining links are independent of each other; write them
	// concurrently and surface the first failure. Completed writes are
	// not rolled back - the whole operation is idempotent and the
	// caller retries by re-running it.
	var wg sync.WaitGroup
	errCh := make(chan error, len(linkPaths))
	for _, linkPath := range linkPaths {
		wg.Add(1)
		go func(linkPath string) {
			defer wg.Done()
			if s.symlinks {
				errCh <- writeExecutableLink(s.fs, managerPath, linkPath)
			} else {
				errCh <- writeExecutableFile(s.fs, linkPath, contents)
			}
		}(linkPath)
	}
	wg.Wait()
	close(errCh)
	for writeErr := range errCh {
		if writeErr != nil {
			return found, changed, writeErr
		}
	}

	s.logger.Debug().
		Int("links", len(linkPaths)).
		Bool("found", found).
		Bool("changed", changed).
		Msg("Recreated all links")

	return found, changed, nil
}
