package main

import (
	"github.com/spf13/cobra"

	"vivassit/converter/internal/config"
	"vivassit/converter/internal/inspect"
	"vivassit/converter/internal/rewriter"
)

func newInspectCmd(cfg *config.Config) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [workflow.json]",
		Short: "Summarise a workflow export: nodes, connections and dangling edges",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.InputPath
			if len(args) == 1 {
				path = args[0]
			}
			wf, err := rewriter.Load(path)
			if err != nil {
				return err
			}
			return inspect.Render(cmd.OutOrStdout(), inspect.Summarize(wf), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", inspect.FormatYAML, "Output format: yaml, json, table or markdown")
	return cmd
}
