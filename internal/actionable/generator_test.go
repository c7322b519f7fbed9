package actionable

import (
	"strings"
	"testing"

	"voice-timelog-go/internal/aggregator"
	"voice-timelog-go/internal/types"
)

func rows(pairs ...string) []types.Row {
	var out []types.Row
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Row{Fields: types.Fields{
			CustomerName: types.Ptr(pairs[i]),
			TotalHours:   types.Ptr(pairs[i+1]),
		}})
	}
	return out
}

func TestGenerate(t *testing.T) {
	cases := []struct {
		name string
		rows []types.Row
		want string
	}{
		{"empty", nil, "No meetings logged yet"},
		{"unparsed", rows("Acme", "a while"), "could not be read"},
		{"concentrated", rows("Acme", "3h 0m", "Globex", "1h 0m"), "Acme accounts for 75%"},
		{"balanced", rows("Acme", "1h 0m", "Globex", "1h 0m", "Initech", "1h 0m"), "3h 0m logged across 3 customer(s)"},
	}
	for _, tc := range cases {
		card := Generate(aggregator.Aggregate(tc.rows))
		if !strings.Contains(card.Insight, tc.want) {
			t.Fatalf("%s: insight %q does not contain %q", tc.name, card.Insight, tc.want)
		}
	}
}
