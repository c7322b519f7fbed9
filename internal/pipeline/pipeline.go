// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/extractor"
	"voice-timelog-go/internal/normalize"
	"voice-timelog-go/internal/storage"
	"voice-timelog-go/internal/transcription"
	"voice-timelog-go/internal/types"
)

// Notifier is the notification stage as seen by the orchestrator.
type Notifier interface {
	Enabled() int
	Dispatch(ctx context.Context, fields types.Fields) (types.NotificationStatus, []types.ChannelResult)
}

// Submission is one recording to process.
type Submission struct {
	Audio        transcription.Audio
	CustomerHint string
	DateHint     string
	Notify       bool
	// SkipDelivery stops after extraction: nothing is stored or sent.
	SkipDelivery bool
}

// Orchestrator runs transcription, extraction, storage and notification for
// one submission at a time. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	transcriber transcription.Port
	extractor   extractor.Port
	store       storage.Port
	notifier    Notifier
	now         func() time.Time
	log         *logrus.Entry
}

func New(t transcription.Port, e extractor.Port, s storage.Port, n Notifier, now func() time.Time, log *logrus.Entry) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		transcriber: t,
		extractor:   e,
		store:       s,
		notifier:    n,
		now:         now,
		log:         log.WithField("module", "pipeline"),
	}
}

// Process runs every stage it can and returns the record. The error is
// non-nil only when the submission is invalid, transcription fails or ctx is
// cancelled; later stage failures are recorded on the record instead.
func (o *Orchestrator) Process(ctx context.Context, sub Submission) (*types.ProcessingRecord, error) {
	rec := types.NewRecord(uuid.New().String(), o.now())
	log := o.log.WithField("processing_id", rec.ProcessingID)

	if len(sub.Audio.Data) == 0 {
		err := apperrors.Validation("audio payload is empty", apperrors.ErrEmptyAudio)
		rec.AddError(types.StageValidation, err)
		return rec, err
	}
	log.WithFields(logrus.Fields{"bytes": len(sub.Audio.Data), "file": sub.Audio.Filename}).Info("processing started")

	tr, err := o.transcriber.Transcribe(ctx, sub.Audio)
	if err != nil {
		if apperrors.KindOf(err) == "" {
			err = apperrors.Transcription("transcription failed", err)
		}
		rec.AddError(types.StageTranscription, err)
		log.WithError(err).Error("transcription failed")
		return rec, err
	}
	rec.Transcript = &tr.Text
	rec.TranscriptProvider = tr.Provider
	rec.TranscriptModel = tr.Model
	if err := o.checkpoint(ctx, rec, types.StageExtraction); err != nil {
		return rec, err
	}

	o.extract(ctx, rec, sub, log)

	if sub.SkipDelivery {
		rec.Skip(types.SkipNotRequested)
		log.Info("delivery skipped on request")
		return rec, nil
	}
	if err := o.checkpoint(ctx, rec, types.StageStorage); err != nil {
		return rec, err
	}

	o.persist(ctx, rec, log)
	if err := o.checkpoint(ctx, rec, types.StageNotification); err != nil {
		return rec, err
	}

	o.notify(ctx, rec, sub.Notify, log)

	log.WithFields(logrus.Fields{
		"extraction":   rec.ExtractionStatus,
		"storage":      rec.StorageStatus,
		"notification": rec.NotificationStatus,
		"errors":       len(rec.Errors),
	}).Info("processing finished")
	return rec, nil
}

// ExtractText runs only the extraction stage on text the caller already
// has. Nothing is stored or sent.
func (o *Orchestrator) ExtractText(ctx context.Context, text, customerHint, dateHint string) *types.ProcessingRecord {
	rec := types.NewRecord(uuid.New().String(), o.now())
	rec.Transcript = &text
	log := o.log.WithField("processing_id", rec.ProcessingID)
	o.extract(ctx, rec, Submission{CustomerHint: customerHint, DateHint: dateHint}, log)
	rec.Skip(types.SkipNotRequested)
	return rec
}

func (o *Orchestrator) extract(ctx context.Context, rec *types.ProcessingRecord, sub Submission, log *logrus.Entry) {
	rec.SetExtraction(types.ExtractionProcessing)
	rec.Fields.Notes = types.Ptr(*rec.Transcript)

	fields, err := o.extractor.Extract(ctx, withHints(*rec.Transcript, sub.CustomerHint, sub.DateHint))
	if err != nil {
		if apperrors.KindOf(err) == "" {
			err = apperrors.Extraction("extraction failed", err)
		}
		rec.SetExtraction(types.ExtractionFailed)
		rec.AddError(types.StageExtraction, err)
		log.WithError(err).Warn("extraction failed, continuing")
		return
	}

	rec.Fields.Merge(fields)
	if rec.Fields.MeetingDate != nil {
		rec.Fields.MeetingDate = types.Ptr(normalize.Date(*rec.Fields.MeetingDate, rec.Timestamp))
	}
	if rec.Fields.TotalHours != nil {
		rec.Fields.TotalHours = types.Ptr(normalize.Duration(*rec.Fields.TotalHours))
	}

	if rec.Fields.Complete() {
		rec.SetExtraction(types.ExtractionComplete)
	} else {
		rec.SetExtraction(types.ExtractionIncomplete)
		log.WithField("missing", rec.Fields.Missing()).Warn("extraction incomplete")
	}
}

func (o *Orchestrator) persist(ctx context.Context, rec *types.ProcessingRecord, log *logrus.Entry) {
	if !rec.ExtractionStatus.Succeeded() {
		return
	}
	conf, err := o.store.Store(ctx, rec.Row())
	if err != nil {
		if apperrors.KindOf(err) == "" {
			err = apperrors.StorageTransport("store failed", err)
		}
		rec.SetStorage(types.StorageFailed)
		rec.AddError(types.StageStorage, err)
		log.WithError(err).Warn("storage failed, continuing")
		return
	}
	rec.SetStorage(types.StorageStored)
	rec.RowReference = conf.RowReference
}

func (o *Orchestrator) notify(ctx context.Context, rec *types.ProcessingRecord, requested bool, log *logrus.Entry) {
	switch {
	case !requested:
		rec.Skip(types.SkipNotRequested)
		return
	case o.notifier == nil || o.notifier.Enabled() == 0:
		rec.Skip(types.SkipNoChannelsEnabled)
		return
	case rec.StorageStatus != types.StorageStored:
		rec.Skip(types.SkipNotStored)
		return
	}

	status, results := o.notifier.Dispatch(ctx, rec.Fields)
	rec.Channels = results
	rec.SetNotification(status)
	for _, r := range results {
		if r.Status == types.ChannelFailed {
			rec.AddError(types.StageNotification, apperrors.Notification(r.Channel, r.Detail, nil))
		}
	}
	if status == types.NotificationSkipped {
		rec.NotificationReason = types.SkipChannelsUnconfigured
	}
	log.WithField("status", status).Info("notification stage finished")
}

// checkpoint stops the run between stages once ctx is done. Work already
// committed, such as a stored row, stays in place.
func (o *Orchestrator) checkpoint(ctx context.Context, rec *types.ProcessingRecord, next types.Stage) error {
	if err := ctx.Err(); err != nil {
		rec.AddError(next, err)
		return err
	}
	return nil
}

// withHints appends caller hints as plain sentences after the transcript.
func withHints(text, customer, date string) string {
	customer = strings.TrimSpace(customer)
	date = strings.TrimSpace(date)
	if customer == "" && date == "" {
		return text
	}
	hint := "Additional information:"
	if customer != "" {
		hint += " Customer is " + customer + "."
	}
	if date != "" {
		hint += " Meeting date is " + date + "."
	}
	return text + "\n\n" + hint
}
