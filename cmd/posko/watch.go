package main

import (
	"github.com/Veraticus/posko/internal/tui"
	"github.com/Veraticus/posko/internal/tui/themes"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live terminal dashboard",
		Long: `Open the terminal dashboard. All sources are fetched again every
refresh interval (default 10s); press r to refresh immediately.

Logs go to logging.file, or to posko.log in the config directory.`,
		RunE: runWatch,
	}

	cmd.Flags().Duration("interval", 0, "refresh interval (overrides refresh_interval)")
	cmd.Flags().String("theme", "", "colour theme (default, catppuccin-mocha)")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	interval := a.dash.RefreshInterval
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		interval = d
	}
	theme := a.dash.Theme
	if name, _ := cmd.Flags().GetString("theme"); name != "" {
		theme = name
	}

	a.logger.Info("starting dashboard", "sources", len(a.cfg.Sources()), "interval", interval)

	return tui.Run(ctx, a.memo(nil),
		tui.WithTheme(themes.GetTheme(theme)),
		tui.WithRefreshInterval(interval),
	)
}
