// Package cli defines the shelf command tree.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	prefsPath  string
	apiURL     string
	output     string
	verbose    bool
	version    string
}

// NewRootCmd builds the shelf command tree. Running shelf with no subcommand
// opens the terminal UI.
func NewRootCmd(version string) *cobra.Command {
	g := &globalOptions{version: version}

	cmd := &cobra.Command{
		Use:   "shelf",
		Short: "Terminal client for your personal book library",
		Long: `Shelf talks to a personal book-library server. Sign in, browse and search
your books, upload covers and book files, manage your profile, and, as an
administrator, review and ban accounts.

Run without a subcommand to open the terminal UI.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g, 0, false)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default ~/.config/shelf/config.toml, or $SHELF_CONFIG)")
	flags.StringVar(&g.prefsPath, "prefs", "", "preferences file (default ~/.config/shelf/prefs.toml)")
	flags.StringVar(&g.apiURL, "api-url", "", "server API address, overrides config and $SHELF_API_URL")
	flags.StringVarP(&g.output, "output", "o", "", "output format: text, json or yaml (default from preferences)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "also write log entries to stderr")

	cmd.AddCommand(
		newTUICmd(g),
		newLoginCmd(g),
		newRegisterCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newBooksCmd(g),
		newProfileCmd(g),
		newAdminCmd(g),
		newLogsCmd(g),
	)
	return cmd
}
