package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/types"
)

type columns struct {
	timestamp, customer, date, start, end, hours, notes int
}

// detectColumns maps header cells to fields by name so workbooks edited by
// hand (reordered or extra columns) still read back.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "timestamp") || l == "logged at":
			if c.timestamp == -1 {
				c.timestamp = i
			}
		case strings.Contains(l, "customer") || strings.Contains(l, "client"):
			if c.customer == -1 {
				c.customer = i
			}
		case strings.Contains(l, "date"):
			if c.date == -1 {
				c.date = i
			}
		case strings.Contains(l, "start"):
			if c.start == -1 {
				c.start = i
			}
		case strings.Contains(l, "end"):
			if c.end == -1 {
				c.end = i
			}
		case strings.Contains(l, "hours") || strings.Contains(l, "duration"):
			if c.hours == -1 {
				c.hours = i
			}
		case strings.Contains(l, "note") || strings.Contains(l, "summary"):
			if c.notes == -1 {
				c.notes = i
			}
		}
	}
	// fall back to the layout this package writes
	if c.customer == -1 && c.hours == -1 && len(header) >= len(Header) {
		c = columns{0, 1, 2, 3, 4, 5, 6}
	}
	return c
}

func cell(r []string, idx int) *string {
	if idx < 0 || idx >= len(r) {
		return nil
	}
	v := strings.TrimSpace(r[idx])
	if v == "" {
		return nil
	}
	return &v
}

// ReadRows loads the meeting rows of sheet from the workbook at path. An
// empty sheet yields no rows and no error.
func ReadRows(path, sheet string) ([]types.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.DestinationNotFound(fmt.Sprintf("workbook %s does not exist", path), err)
		}
		return nil, apperrors.StorageTransport("open workbook", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx == -1 {
		return nil, apperrors.DestinationNotFound(fmt.Sprintf("sheet %q not found", sheet), err)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.StorageTransport("read rows", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	c := detectColumns(rows[0])
	out := make([]types.Row, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := types.Row{
			Timestamp: types.Value(cell(r, c.timestamp), ""),
			Fields: types.Fields{
				CustomerName: cell(r, c.customer),
				MeetingDate:  cell(r, c.date),
				StartTime:    cell(r, c.start),
				EndTime:      cell(r, c.end),
				TotalHours:   cell(r, c.hours),
				Notes:        cell(r, c.notes),
			},
		}
		if row.Timestamp == "" && row.CustomerName == nil && row.TotalHours == nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
