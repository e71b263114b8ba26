// Package config loads the optional toolbelt settings file.
//
// The settings file lives at <home>/toolbelt.toml. A missing file is not
// an error: every setting has a working default.
package config

import (
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/toolbelt/pkg/errors"
	"github.com/arthur-debert/toolbelt/pkg/paths"
	"github.com/arthur-debert/toolbelt/pkg/types"
	"github.com/pelletier/go-toml/v2"
)

// Config holds user-tunable toolbelt settings
type Config struct {
	// ForceCopyLinks makes the storage engine write full copies for tool
	// aliases even when the platform supports symbolic links. Useful on
	// filesystems where symlinks exist but misbehave (network mounts,
	// some FAT variants).
	ForceCopyLinks bool `toml:"force_copy_links"`
}

// Default returns the default configuration
func Default() Config {
	return Config{}
}

// Load reads the settings file for the given home, returning defaults
// if the file does not exist.
func Load(filesystem types.FS, home paths.Home) (Config, error) {
	data, err := filesystem.ReadFile(home.ConfigFilePath())
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", home.ConfigFilePath())
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", home.ConfigFilePath())
	}

	return cfg, nil
}
