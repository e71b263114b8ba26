package storage

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/arthur-debert/toolbelt/pkg/errors"
	"github.com/arthur-debert/toolbelt/pkg/types"
)

// ExeSuffix is the platform suffix for executable files: ".exe" on
// Windows, empty elsewhere.
var ExeSuffix = func() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}()

// writeExecutableFile writes contents to path with executable permission
// bits. The write goes to a sibling temp file first and is moved into
// place with a rename, so readers never observe partial contents.
func writeExecutableFile(fsys types.FS, path string, contents []byte) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", filepath.Base(path), time.Now().UnixNano()))

	if err := fsys.WriteFile(tmpPath, contents, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write executable file %s", path)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to move executable file into place at %s", path)
	}
	return nil
}

// writeExecutableLink points linkPath at target via a symbolic link,
// replacing whatever file or link was there before.
func writeExecutableLink(fsys types.FS, target, linkPath string) error {
	// If the link already exists and points at the target, do nothing.
	if current, err := fsys.Readlink(linkPath); err == nil && current == target {
		return nil
	}

	// If it exists but is wrong (or is a regular file), remove it first.
	if _, err := fsys.Lstat(linkPath); err == nil {
		if err := fsys.Remove(linkPath); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to remove existing entry at %s", linkPath)
		}
	}

	if err := fsys.Symlink(target, linkPath); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to create symlink %s -> %s", linkPath, target)
	}
	return nil
}

// probeSymlinks reports whether the filesystem backing dir supports
// symbolic links, by creating and removing a throwaway link.
func probeSymlinks(fsys types.FS, dir string) bool {
	probePath := filepath.Join(dir, fmt.Sprintf(".symlink-probe-%d", time.Now().UnixNano()))
	if err := fsys.Symlink(dir, probePath); err != nil {
		return false
	}
	_ = fsys.Remove(probePath)
	return true
}
