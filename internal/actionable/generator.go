package actionable

import (
	"fmt"

	"voice-timelog-go/internal/aggregator"
)

// ActionCard is a one-line takeaway printed under a time report.
type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// concentrationShare is the share of logged minutes above which one customer
// is called out.
const concentrationShare = 0.5

func Generate(rep aggregator.Report) ActionCard {
	if rep.TotalRows == 0 {
		return ActionCard{
			Insight: "No meetings logged yet",
			Action:  "Record a voice memo after your next customer meeting",
			Impact:  "Nothing to report until the first row is stored",
		}
	}
	if rep.Unparsed > 0 {
		return ActionCard{
			Insight: fmt.Sprintf("%d of %d rows have a Total Hours value that could not be read", rep.Unparsed, rep.TotalRows),
			Action:  "Correct the Total Hours cells to the \"Xh Ym\" form",
			Impact:  "Those meetings are counted but add no time to the totals",
		}
	}
	if len(rep.Customers) > 1 && rep.TotalMinutes > 0 {
		top := rep.Customers[0]
		share := float64(top.Minutes) / float64(rep.TotalMinutes)
		if share >= concentrationShare {
			return ActionCard{
				Insight: fmt.Sprintf("%s accounts for %.0f%% of logged time (%s)", top.Customer, share*100, top.Hours),
				Action:  "Review whether the engagement scope matches the hours spent",
				Impact:  "Billing and staffing for the remaining customers",
			}
		}
	}
	return ActionCard{
		Insight: fmt.Sprintf("%s logged across %d customer(s)", rep.TotalHours, len(rep.Customers)),
		Action:  "No action needed",
		Impact:  "Low",
	}
}
