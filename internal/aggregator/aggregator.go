package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"voice-timelog-go/internal/normalize"
	"voice-timelog-go/internal/types"
)

// CustomerTotal is the logged time for one customer.
type CustomerTotal struct {
	Customer string `json:"customer"`
	Meetings int    `json:"meetings"`
	Minutes  int    `json:"minutes"`
	Hours    string `json:"hours"`
}

type Report struct {
	Customers    []CustomerTotal `json:"customers"`
	TotalRows    int             `json:"total_rows"`
	TotalMinutes int             `json:"total_minutes"`
	TotalHours   string          `json:"total_hours"`
	// Unparsed counts rows whose duration could not be read; they still count as meetings.
	Unparsed int `json:"unparsed_durations"`
}

// UnknownCustomer groups rows stored without a customer name.
const UnknownCustomer = "(unknown)"

// Aggregate sums meetings and minutes per customer. Customer names are
// grouped case-insensitively; the first spelling seen is reported.
func Aggregate(rows []types.Row) Report {
	byKey := map[string]*CustomerTotal{}
	var order []string
	rep := Report{TotalRows: len(rows)}

	for _, r := range rows {
		name := strings.TrimSpace(types.Value(r.CustomerName, ""))
		if name == "" {
			name = UnknownCustomer
		}
		key := strings.ToLower(name)
		ct, ok := byKey[key]
		if !ok {
			ct = &CustomerTotal{Customer: name}
			byKey[key] = ct
			order = append(order, key)
		}
		ct.Meetings++

		mins, ok := normalize.Minutes(normalize.Duration(types.Value(r.TotalHours, "")))
		if !ok {
			rep.Unparsed++
			continue
		}
		ct.Minutes += mins
		rep.TotalMinutes += mins
	}

	rep.Customers = make([]CustomerTotal, 0, len(order))
	for _, k := range order {
		ct := byKey[k]
		ct.Hours = formatMinutes(ct.Minutes)
		rep.Customers = append(rep.Customers, *ct)
	}
	sort.SliceStable(rep.Customers, func(i, j int) bool {
		return rep.Customers[i].Minutes > rep.Customers[j].Minutes
	})
	rep.TotalHours = formatMinutes(rep.TotalMinutes)
	return rep
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
