package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/posko/internal/cli"
	"github.com/Veraticus/posko/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the unified table to an Excel workbook",
		RunE:  runExport,
	}

	cmd.Flags().StringP("output", "o", "", "output file (default: posko-YYYYMMDD-HHMM.xlsx)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	res, err := a.pipeline().Run(ctx)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = fmt.Sprintf("posko-%s.xlsx", res.StartedAt.Format("20060102-1504"))
	}

	if err := export.WriteFile(res, output); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Exported %d records from %d source(s) to %s in %s",
		res.Table.Len(), len(res.Sources)-len(res.Failed()), output, res.Duration.Round(time.Millisecond))))
	return nil
}
