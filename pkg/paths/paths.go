// Package paths provides centralized path handling for toolbelt.
// It resolves the toolbelt home directory and derives the fixed
// storage locations beneath it.
package paths

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/toolbelt/pkg/errors"
)

// Environment variable names
const (
	// EnvToolbeltHome overrides the toolbelt home directory
	EnvToolbeltHome = "TOOLBELT_HOME"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
// IMPORTANT: These constants define toolbelt's on-disk storage structure
// and are NOT user-configurable. They must remain consistent across all
// installations so that existing storage keeps working after upgrades.
const (
	// DefaultHomeDir is the default toolbelt home directory name, under $HOME
	DefaultHomeDir = ".toolbelt"

	// ToolStorageDirName is the directory holding per-version tool binaries
	ToolStorageDirName = "tool-storage"

	// BinDirName is the directory holding alias entry points
	BinDirName = "bin"

	// ConfigFileName is the name of the optional settings file
	ConfigFileName = "toolbelt.toml"
)

// Home provides centralized path management for a toolbelt installation
type Home struct {
	root string
}

// New creates a Home rooted at the given directory. If root is empty,
// it is resolved from TOOLBELT_HOME or defaults to ~/.toolbelt.
func New(root string) (Home, error) {
	if root == "" {
		if env := os.Getenv(EnvToolbeltHome); env != "" {
			root = env
		} else {
			homeDir, err := userHomeDir()
			if err != nil {
				return Home{}, err
			}
			root = filepath.Join(homeDir, DefaultHomeDir)
		}
	}

	root = ExpandHome(root)
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Home{}, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for toolbelt home")
	}

	return Home{root: absRoot}, nil
}

// Root returns the toolbelt home directory
func (h Home) Root() string {
	return h.root
}

// ToolStorageDir returns the directory holding per-version tool binaries
func (h Home) ToolStorageDir() string {
	return filepath.Join(h.root, ToolStorageDirName)
}

// BinDir returns the directory holding alias entry points
func (h Home) BinDir() string {
	return filepath.Join(h.root, BinDirName)
}

// ConfigFilePath returns the path to the optional settings file
func (h Home) ConfigFilePath() string {
	return filepath.Join(h.root, ConfigFileName)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the current user's home)
	return path
}

// userHomeDir returns the user's home directory, falling back to $HOME
func userHomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrNotFound, "failed to get home directory")
	}
	return homeDir, nil
}
