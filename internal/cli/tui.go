package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

func newTUICmd(g *globalOptions) *cobra.Command {
	var refresh int
	var ephemeral bool

	cmd := &cobra.Command{
		Use:     "tui",
		Short:   "Open the terminal UI",
		Example: `  shelf tui --refresh 30`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g, refresh, ephemeral)
		},
	}
	cmd.Flags().IntVar(&refresh, "refresh", 0, "reload the library every N seconds, 0 disables")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "do not store the sign-in on disk")
	return cmd
}

func runTUI(cmd *cobra.Command, g *globalOptions, refresh int, ephemeral bool) error {
	return app.Run(cmd.Context(), app.Options{
		ConfigPath:   g.configPath,
		PrefsPath:    g.prefsPath,
		APIURL:       g.apiURL,
		RefreshEvery: refresh,
		Version:      g.version,
		Verbose:      g.verbose,
		Ephemeral:    ephemeral,
	})
}
