package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNetworkCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "network <company>",
		Short: "Build and persist the citation network for one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			p, err := newPipeline(cliCtx)
			if err != nil {
				return err
			}

			stats, err := p.BuildNetworkOnly(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cliCtx.Out, stats)
			}

			fmt.Fprintf(cliCtx.Out, "Network for %s\n", stats.Company)
			fmt.Fprintf(cliCtx.Out, "  focal patents:     %d\n", stats.FocalPatents)
			fmt.Fprintf(cliCtx.Out, "  citation edges:    %d\n", stats.CitationEdges)
			fmt.Fprintf(cliCtx.Out, "  backward:          %d\n", stats.BackwardCitations)
			fmt.Fprintf(cliCtx.Out, "  forward:           %d\n", stats.ForwardCitations)
			fmt.Fprintf(cliCtx.Out, "  predecessors:      %d\n", stats.PredecessorPatents)
			fmt.Fprintf(cliCtx.Out, "  citing patents:    %d\n", stats.CitingPatents)
			fmt.Fprintf(cliCtx.Out, "  citations/patent:  %.2f\n", stats.CitationsPerPatent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print network statistics as JSON")
	return cmd
}
