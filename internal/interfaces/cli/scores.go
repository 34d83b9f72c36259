package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScoresCommand() *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "scores <company>",
		Short: "Recompute CDt scores from the persisted network artifacts",
		Long:  "Reads the company's persisted network artifacts and re-runs only the\nscoring stage.  The network must have been built first, either by a full\nrun or by the network command.",
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

			scores, err := p.ComputeScoresFromArtifacts(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cliCtx.Out, scores)
			}

			shown := scores
			if limit > 0 && limit < len(shown) {
				shown = shown[:limit]
			}
			fmt.Fprintf(cliCtx.Out, "%d patents scored for %s\n", len(scores), args[0])
			for _, s := range shown {
				fmt.Fprintf(cliCtx.Out, "  %-16s CDt=%+.4f  fwd=%d  bwd=%d\n", s.PatentID, s.CDt, s.NForward, s.NBackward)
			}
			if len(shown) < len(scores) {
				fmt.Fprintf(cliCtx.Out, "  ... %d more\n", len(scores)-len(shown))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print scores as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum scores to print (0 = all)")
	return cmd
}
