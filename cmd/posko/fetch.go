package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/posko/internal/cli"
	"github.com/Veraticus/posko/internal/server"
	"github.com/spf13/cobra"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run the pipeline once and print a summary",
		RunE:  runFetch,
	}

	cmd.Flags().Bool("json", false, "print the unified table as JSON instead of a summary")

	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		res, runErr := a.pipeline().Run(ctx)
		if runErr != nil {
			return runErr
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewTableResponse(res))
	}

	progress := cli.NewFetchProgress(cmd.ErrOrStderr(), len(a.cfg.Sources()))
	res, err := a.pipeline(progress.Option()).Run(ctx)
	progress.Finish()
	if err != nil {
		return err
	}

	if failed := progress.Failed(); len(failed) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf("%d source(s) failed and were skipped", len(failed))))
	}

	return cli.PrintSummary(cmd.OutOrStdout(), res)
}
