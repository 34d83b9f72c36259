package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run [company ...]",
		Short: "Run the full pipeline for the given companies",
		Long:  "Builds the citation network, computes CDt scores, aggregates firm-year\nmetrics and assembles the cross-company panel.  Without arguments every\nroster in the input directory is processed.",
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

			summary, err := p.RunBatch(cmd.Context(), companies)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cliCtx.Out, summary)
			}

			fmt.Fprintf(cliCtx.Out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Truncate(time.Millisecond))
			fmt.Fprintf(cliCtx.Out, "  succeeded: %d\n", len(summary.Succeeded))
			fmt.Fprintf(cliCtx.Out, "  failed:    %d\n", len(summary.Failed))
			fmt.Fprintf(cliCtx.Out, "  panel:     %d rows\n", summary.PanelRows)
			for _, f := range summary.Failed {
				fmt.Fprintf(cliCtx.Out, "  FAILED %s: [%s] %s\n", f.Company, f.ErrorCode, f.Error)
			}
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d of %d companies failed", len(summary.Failed), len(companies))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the batch summary as JSON")
	return cmd
}
