// Package system contains the small shims between toolbelt and the
// surrounding environment, currently the PATH search-variable helpers
// used by self-install.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arthur-debert/toolbelt/pkg/logging"
	"github.com/arthur-debert/toolbelt/pkg/paths"
)

// profileFiles are the POSIX shell profiles AddToPath considers, in order.
// The first one that exists is amended; ~/.profile is created when none do.
var profileFiles = []string{".profile", ".bashrc", ".zshenv"}

// ExistsInPath reports whether the toolbelt bin directory is present in
// the PATH environment variable.
func ExistsInPath(home paths.Home) bool {
	binDir := filepath.Clean(home.BinDir())
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry == "" {
			continue
		}
		if filepath.Clean(paths.ExpandHome(entry)) == binDir {
			return true
		}
	}
	return false
}

// AddToPath tries to add the toolbelt bin directory to the PATH for
// future shell sessions. It returns true if anything was changed, false
// if the directory was already configured or the platform is unsupported.
func AddToPath(home paths.Home) (bool, error) {
	if runtime.GOOS == "windows" {
		// PATH lives in the registry there; out of scope for this shim.
		return false, nil
	}
	return addToProfile(home)
}

func addToProfile(home paths.Home) (bool, error) {
	logger := logging.GetLogger("system")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return false, fmt.Errorf("failed to get home directory: %w", err)
	}

	exportLine := fmt.Sprintf(`export PATH="$PATH:%s"`, home.BinDir())

	profilePath := filepath.Join(homeDir, profileFiles[0])
	for _, name := range profileFiles {
		candidate := filepath.Join(homeDir, name)
		if _, err := os.Stat(candidate); err == nil {
			profilePath = candidate
			break
		}
	}

	existing, err := os.ReadFile(profilePath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read shell profile %s: %w", profilePath, err)
	}
	if strings.Contains(string(existing), exportLine) {
		return false, nil
	}

	file, err := os.OpenFile(profilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open shell profile %s: %w", profilePath, err)
	}
	defer func() { _ = file.Close() }()

	snippet := fmt.Sprintf("\n# Added by toolbelt self-install\n%s\n", exportLine)
	if _, err := file.WriteString(snippet); err != nil {
		return false, fmt.Errorf("failed to update shell profile %s: %w", profilePath, err)
	}

	logger.Info().Str("profile", profilePath).Msg("Added toolbelt bin directory to PATH")
	return true, nil
}
