package aggregator

import (
	"testing"

	"voice-timelog-go/internal/types"
)

func row(customer, hours string) types.Row {
	r := types.Row{Timestamp: "2025-01-01 10:00:00"}
	if customer != "" {
		r.CustomerName = types.Ptr(customer)
	}
	if hours != "" {
		r.TotalHours = types.Ptr(hours)
	}
	return r
}

func TestAggregateGroupsByCustomer(t *testing.T) {
	rep := Aggregate([]types.Row{
		row("Acme Corp", "1h 30m"),
		row("Globex", "0h 45m"),
		row("acme corp", "2h 0m"),
		row("", "0h 15m"),
		row("Globex", "about an hour"),
		row("Initech", "1.25"),
	})

	if rep.TotalRows != 6 || rep.Unparsed != 1 {
		t.Fatalf("unexpected counters %+v", rep)
	}
	if rep.TotalMinutes != 90+45+120+15+75 {
		t.Fatalf("unexpected total minutes %d", rep.TotalMinutes)
	}
	if rep.TotalHours != "5h 45m" {
		t.Fatalf("unexpected total hours %q", rep.TotalHours)
	}
	first := rep.Customers[0]
	if first.Customer != "Acme Corp" || first.Meetings != 2 || first.Minutes != 210 || first.Hours != "3h 30m" {
		t.Fatalf("unexpected top customer %+v", first)
	}
	var globex CustomerTotal
	for _, c := range rep.Customers {
		if c.Customer == "Globex" {
			globex = c
		}
	}
	if globex.Meetings != 2 || globex.Minutes != 45 {
		t.Fatalf("unparsed duration should count as a meeting only: %+v", globex)
	}
	last := rep.Customers[len(rep.Customers)-1]
	if last.Customer != UnknownCustomer {
		t.Fatalf("expected unknown customer last, got %+v", last)
	}
}

func TestAggregateEmpty(t *testing.T) {
	rep := Aggregate(nil)
	if len(rep.Customers) != 0 || rep.TotalHours != "0h 0m" {
		t.Fatalf("unexpected empty report %+v", rep)
	}
}
