package selfinstall

// Message constants
const (
	MsgShort = "Install / re-install toolbelt and refresh all tool links"
	MsgLong  = `The 'self-install' command sets up toolbelt on this machine:
  - Writes the toolbelt binary into the bin directory
  - Recreates the alias entry point for every known tool
  - Adds the bin directory to your PATH if it isn't there yet

It is safe to run repeatedly; a corrupted or interrupted installation is
repaired by simply running it again.`

	MsgExample = `  # First-time installation
  toolbelt self-install

  # Repair links after a crashed install
  toolbelt self-install

  # Install into a custom home
  toolbelt --home ~/my-tools self-install`

	// Outcome messages, picked by what RecreateAllLinks reported
	MsgInstalled = "toolbelt has been installed successfully!"
	MsgRelinked  = "toolbelt was re-linked successfully!"
	MsgUpToDate  = "toolbelt links are already up-to-date."

	MsgRestartTerminal = "Executables for toolbelt and tools have been added to $PATH.\nPlease restart your terminal for the changes to take effect."
	MsgPathWarning     = "Failed to automatically add toolbelt to your PATH!\nPlease add the bin directory manually to be able to run tools."
	MsgGetStarted      = "Run `toolbelt --help` to get started."
)
