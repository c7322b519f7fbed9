// internal/types/record.go
package types

import (
	"strings"
	"time"

	"voice-timelog-go/internal/apperrors"
)

// TimestampLayout is the layout used when a record timestamp is written to a sheet or message.
const TimestampLayout = "2006-01-02 15:04:05"

// --------------------------------------------
// Meeting fields. nil means unknown.
// --------------------------------------------
type Fields struct {
	CustomerName *string `json:"customer_name"`
	MeetingDate  *string `json:"meeting_date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	TotalHours   *string `json:"total_hours"`
	Notes        *string `json:"notes"`
}

// Merge copies every non-blank value of src over f. Keys src leaves unset keep their value.
func (f *Fields) Merge(src Fields) {
	mergeValue(&f.CustomerName, src.CustomerName)
	mergeValue(&f.MeetingDate, src.MeetingDate)
	mergeValue(&f.StartTime, src.StartTime)
	mergeValue(&f.EndTime, src.EndTime)
	mergeValue(&f.TotalHours, src.TotalHours)
	mergeValue(&f.Notes, src.Notes)
}

func mergeValue(dst **string, src *string) {
	if src == nil || strings.TrimSpace(*src) == "" {
		return
	}
	v := *src
	*dst = &v
}

// Complete is the gate checked before storage: customer and duration must be known.
func (f Fields) Complete() bool {
	return f.CustomerName != nil && f.TotalHours != nil
}

// Missing lists the required fields that are still unknown.
func (f Fields) Missing() []string {
	var out []string
	if f.CustomerName == nil {
		out = append(out, "customer_name")
	}
	if f.TotalHours == nil {
		out = append(out, "total_hours")
	}
	return out
}

// Value dereferences p, returning def when unknown.
func Value(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// --------------------------------------------
// Errors collected while processing
// --------------------------------------------
type StageError struct {
	Stage   Stage  `json:"stage"`
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// --------------------------------------------
// ProcessingRecord accumulates every stage output for one submission.
// --------------------------------------------
type ProcessingRecord struct {
	ProcessingID       string             `json:"processing_id"`
	Timestamp          time.Time          `json:"timestamp"`
	Transcript         *string            `json:"transcript"`
	TranscriptProvider string             `json:"transcript_provider,omitempty"`
	TranscriptModel    string             `json:"transcript_model,omitempty"`
	Fields             Fields             `json:"fields"`
	ExtractionStatus   ExtractionStatus   `json:"extraction_status"`
	StorageStatus      StorageStatus      `json:"storage_status"`
	RowReference       string             `json:"row_reference,omitempty"`
	NotificationStatus NotificationStatus `json:"notification_status"`
	NotificationReason SkipReason         `json:"notification_reason,omitempty"`
	Channels           []ChannelResult    `json:"notification_channels,omitempty"`
	Errors             []StageError       `json:"errors"`
}

func NewRecord(id string, now time.Time) *ProcessingRecord {
	return &ProcessingRecord{
		ProcessingID:       id,
		Timestamp:          now,
		ExtractionStatus:   ExtractionPending,
		StorageStatus:      StoragePending,
		NotificationStatus: NotificationPending,
		Errors:             []StageError{},
	}
}

// SetExtraction moves the extraction status forward. It returns false when the move would regress.
func (r *ProcessingRecord) SetExtraction(next ExtractionStatus) bool {
	if !r.ExtractionStatus.canMoveTo(next) {
		return false
	}
	r.ExtractionStatus = next
	return true
}

func (r *ProcessingRecord) SetStorage(next StorageStatus) bool {
	if !r.StorageStatus.canMoveTo(next) {
		return false
	}
	r.StorageStatus = next
	return true
}

func (r *ProcessingRecord) SetNotification(next NotificationStatus) bool {
	if !r.NotificationStatus.canMoveTo(next) {
		return false
	}
	r.NotificationStatus = next
	return true
}

// Skip marks the notification stage skipped with a reason.
func (r *ProcessingRecord) Skip(reason SkipReason) bool {
	if !r.SetNotification(NotificationSkipped) {
		return false
	}
	r.NotificationReason = reason
	return true
}

// AddError appends err to the record's error list under stage.
func (r *ProcessingRecord) AddError(stage Stage, err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, StageError{
		Stage:   stage,
		Kind:    string(apperrors.KindOf(err)),
		Code:    apperrors.CodeOf(err),
		Message: err.Error(),
	})
}

// Row is what storage receives: the fields plus the record timestamp.
func (r *ProcessingRecord) Row() Row {
	return Row{Timestamp: r.Timestamp.Format(TimestampLayout), Fields: r.Fields}
}

// Row is one appended line in the meeting log.
type Row struct {
	Timestamp string
	Fields
}
