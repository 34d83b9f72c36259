package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPanelCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "panel [company ...]",
		Short: "Reassemble the firm-year panel from persisted artifacts",
		Long:  "Merges every company's persisted firm-year metrics into the sorted\ncross-company panel without recomputing any scores.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			companies, err := resolveCompanies(cliCtx, args)
			if err != nil {
				return err
			}

			p, err := newPipeline(cliCtx)
			if err != nil {
				return err
			}

			panel, err := p.AssemblePanelFromArtifacts(cmd.Context(), companies)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cliCtx.Out, panel)
			}

			fmt.Fprintf(cliCtx.Out, "Panel assembled: %d rows across %d companies\n", len(panel), len(companies))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the panel as JSON")
	return cmd
}
