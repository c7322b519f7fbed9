package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voice-timelog-go/internal/actionable"
	"voice-timelog-go/internal/aggregator"
	"voice-timelog-go/internal/apperrors"
)

func NewReportCmd(deps *Dependencies) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show logged hours per customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := deps.App.Store.Rows(cmd.Context())
			if err != nil && !errors.Is(err, apperrors.ErrDestinationNotFound) {
				return err
			}
			rep := aggregator.Aggregate(rows)
			card := actionable.Generate(rep)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					aggregator.Report
					Action actionable.ActionCard `json:"action"`
				}{rep, card})
			}
			return writeReport(cmd.OutOrStdout(), rep, card)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeReport(w io.Writer, rep aggregator.Report, card actionable.ActionCard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CUSTOMER\tMEETINGS\tHOURS")
	for _, c := range rep.Customers {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Customer, c.Meetings, c.Hours)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\n", rep.TotalRows, rep.TotalHours)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n-> %s\n", card.Insight, card.Action)
	return err
}
