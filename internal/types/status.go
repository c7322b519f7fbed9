// internal/types/status.go
package types

// --------------------------------------------
// Stages
// --------------------------------------------
type Stage string

const (
	StageValidation    Stage = "validation"
	StageTranscription Stage = "transcription"
	StageExtraction    Stage = "extraction"
	StageStorage       Stage = "storage"
	StageNotification  Stage = "notification"
)

// --------------------------------------------
// Extraction: pending -> processing -> complete|incomplete|failed
// --------------------------------------------
type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionProcessing ExtractionStatus = "processing"
	ExtractionComplete   ExtractionStatus = "complete"
	ExtractionIncomplete ExtractionStatus = "incomplete"
	ExtractionFailed     ExtractionStatus = "failed"
)

func (s ExtractionStatus) Terminal() bool {
	return s == ExtractionComplete || s == ExtractionIncomplete || s == ExtractionFailed
}

func (s ExtractionStatus) canMoveTo(next ExtractionStatus) bool {
	switch s {
	case ExtractionPending:
		return next == ExtractionProcessing || next == ExtractionFailed
	case ExtractionProcessing:
		return next.Terminal()
	}
	return false
}

// Succeeded reports whether extraction produced fields (complete or not).
func (s ExtractionStatus) Succeeded() bool {
	return s == ExtractionComplete || s == ExtractionIncomplete
}

// --------------------------------------------
// Storage: pending -> stored|failed
// --------------------------------------------
type StorageStatus string

const (
	StoragePending StorageStatus = "pending"
	StorageStored  StorageStatus = "stored"
	StorageFailed  StorageStatus = "failed"
)

func (s StorageStatus) canMoveTo(next StorageStatus) bool {
	return s == StoragePending && (next == StorageStored || next == StorageFailed)
}

// --------------------------------------------
// Notification: pending -> sent|partial|failed|skipped
// --------------------------------------------
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationPartial NotificationStatus = "partial"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

func (s NotificationStatus) canMoveTo(next NotificationStatus) bool {
	return s == NotificationPending && next != NotificationPending
}

// SkipReason explains a skipped notification stage.
type SkipReason string

const (
	SkipNotRequested      SkipReason = "not_requested"
	SkipNoChannelsEnabled SkipReason = "no_channels_enabled"
	SkipNotStored         SkipReason = "not_stored"

	// every enabled channel declined for lack of settings
	SkipChannelsUnconfigured SkipReason = "channels_unconfigured"
)

// --------------------------------------------
// Per-channel delivery outcome
// --------------------------------------------
type ChannelStatus string

const (
	ChannelSent    ChannelStatus = "sent"
	ChannelSkipped ChannelStatus = "skipped"
	ChannelFailed  ChannelStatus = "failed"
)

type ChannelResult struct {
	Channel  string        `json:"channel"`
	Status   ChannelStatus `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Attempts int           `json:"attempts"`
}
