package selfinstall

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/toolbelt/pkg/config"
	"github.com/arthur-debert/toolbelt/pkg/filesystem"
	"github.com/arthur-debert/toolbelt/pkg/logging"
	"github.com/arthur-debert/toolbelt/pkg/paths"
	"github.com/arthur-debert/toolbelt/pkg/storage"
	"github.com/arthur-debert/toolbelt/pkg/system"
)

// NewCommand creates the self-install command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "self-install",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		Args:    cobra.NoArgs,
		RunE:    run,
	}
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("selfinstall")

	homeFlag, _ := cmd.Flags().GetString("home")
	home, err := paths.New(homeFlag)
	if err != nil {
		return err
	}

	fs := filesystem.NewOS()
	cfg, err := config.Load(fs, home)
	if err != nil {
		return err
	}

	store, err := storage.Load(fs, home, cfg)
	if err != nil {
		return err
	}

	spinner := newSpinner("Linking")

	found, changed, err := store.RecreateAllLinks()
	if err != nil {
		failSpinner(spinner, "Linking failed")
		return fmt.Errorf("failed to recreate tool links (your installation may be corrupted): %w", err)
	}

	updateSpinner(spinner, "Pathifying")

	pathErrored := false
	pathChanged, err := system.AddToPath(home)
	if err != nil {
		pathErrored = true
		logger.Warn().Err(err).Msg(strings.ReplaceAll(MsgPathWarning, "\n", " "))
	}
	pathContains := system.ExistsInPath(home)

	stopSpinner(spinner)

	// Prompt the user to restart their terminal if PATH was changed, or
	// if the bin dir is still missing from PATH and adding it did not error.
	restartTerminal := pathChanged || (!pathErrored && !pathContains)

	var mainMessage string
	switch {
	case !found:
		mainMessage = MsgInstalled
	case changed:
		mainMessage = MsgRelinked
	default:
		mainMessage = MsgUpToDate
	}

	printOutcome(cmd, mainMessage, restartTerminal)
	return nil
}

func printOutcome(cmd *cobra.Command, mainMessage string, restartTerminal bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, mainMessage)
	if restartTerminal {
		fmt.Fprintln(out)
		fmt.Fprintln(out, MsgRestartTerminal)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, MsgGetStarted)
}

// Spinner helpers: pterm writes control sequences, so the spinner is only
// shown when stdout is a terminal.

func interactive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func newSpinner(text string) *pterm.SpinnerPrinter {
	if !interactive() {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return nil
	}
	return spinner
}

func updateSpinner(spinner *pterm.SpinnerPrinter, text string) {
	if spinner != nil {
		spinner.UpdateText(text)
	}
}

func stopSpinner(spinner *pterm.SpinnerPrinter) {
	if spinner != nil {
		_ = spinner.Stop()
	}
}

func failSpinner(spinner *pterm.SpinnerPrinter, text string) {
	if spinner != nil {
		spinner.Fail(text)
	}
}
