package main

import (
	"fmt"

	"github.com/Veraticus/posko/internal/cli"
	"github.com/Veraticus/posko/internal/config"
	"github.com/Veraticus/posko/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		RunE:  runSources,
	}
}

func runSources(cmd *cobra.Command, _ []string) error {
	dash, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(dash.Sources)+1)
	for _, src := range dash.Sources {
		rows = append(rows, []string{src.ID, src.Label, string(src.Backend), location(src)})
	}
	if dash.LogSource != nil {
		src := *dash.LogSource
		rows = append(rows, []string{src.ID, src.Label + " (log)", string(src.Backend), location(src)})
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Label", "Backend", "Location"}, rows))
	return err
}

func location(src model.Source) string {
	switch src.Backend {
	case model.BackendSheets:
		if src.Worksheet != "" {
			return src.SpreadsheetID + " / " + src.Worksheet
		}
		return src.SpreadsheetID
	case model.BackendSQLite:
		return src.Path + " : " + src.Table
	default:
		if src.Worksheet != "" {
			return src.Path + " / " + src.Worksheet
		}
		return src.Path
	}
}
