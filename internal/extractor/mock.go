package extractor

import (
	"context"

	"voice-timelog-go/internal/types"
)

// Mock returns canned fields, or Err when set.
type Mock struct {
	Fields types.Fields
	Err    error
}

func NewMock() *Mock {
	return &Mock{Fields: types.Fields{
		CustomerName: types.Ptr("Acme Corp"),
		MeetingDate:  types.Ptr("today"),
		StartTime:    types.Ptr("2:00 PM"),
		EndTime:      types.Ptr("3:30 PM"),
		TotalHours:   types.Ptr("1.5"),
		Notes:        types.Ptr("Discussed requirements"),
	}}
}

func (m *Mock) Extract(ctx context.Context, text string) (types.Fields, error) {
	if m.Err != nil {
		return types.Fields{}, m.Err
	}
	return m.Fields, nil
}
