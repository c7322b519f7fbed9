// Package normalize converts free-form values returned by the extraction
// provider into the canonical forms stored in a meeting record.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical meeting date layout.
const DateLayout = "2006-01-02"

var (
	durationPattern = regexp.MustCompile(`^(\d+)h (\d+)m$`)
	ordinalSuffix   = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
)

// Duration converts a numeric hours value into "Xh Ym". Values already in
// that form pass through, and anything that does not parse as a number is
// returned verbatim.
func Duration(raw string) string {
	s := strings.TrimSpace(raw)
	if durationPattern.MatchString(s) {
		return s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return raw
	}
	return Hours(v)
}

// Hours formats a decimal hour count as "Xh Ym".
func Hours(v float64) string {
	h := math.Floor(v)
	m := math.Round((v - h) * 60)
	if m >= 60 {
		// 1.999h rounds to 60 minutes
		h++
		m -= 60
	}
	return fmt.Sprintf("%dh %dm", int(h), int(m))
}

// Minutes parses an "Xh Ym" duration back into total minutes.
func Minutes(s string) (int, bool) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, true
}

// Date converts a free-form date to YYYY-MM-DD. Relative words are resolved
// against now. Unparseable input is returned verbatim.
func Date(raw string, now time.Time) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "today":
		return now.Format(DateLayout)
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(DateLayout)
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, s); err == nil {
		return s
	}
	cleaned := ordinalSuffix.ReplaceAllString(s, "$1")
	t, err := dateparse.ParseIn(cleaned, now.Location())
	if err != nil {
		return raw
	}
	return t.Format(DateLayout)
}
