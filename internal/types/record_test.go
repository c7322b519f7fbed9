package types

import (
	"errors"
	"testing"
	"time"

	"voice-timelog-go/internal/apperrors"
)

func TestNewRecordStartsPending(t *testing.T) {
	rec := NewRecord("id-1", time.Now())
	if rec.ExtractionStatus != ExtractionPending || rec.StorageStatus != StoragePending || rec.NotificationStatus != NotificationPending {
		t.Fatalf("expected all statuses pending, got %+v", rec)
	}
	if rec.Errors == nil || len(rec.Errors) != 0 {
		t.Fatalf("expected empty non-nil error list")
	}
}

func TestStatusesNeverRegress(t *testing.T) {
	rec := NewRecord("id-1", time.Now())
	if !rec.SetExtraction(ExtractionProcessing) {
		t.Fatalf("pending -> processing should be allowed")
	}
	if !rec.SetExtraction(ExtractionComplete) {
		t.Fatalf("processing -> complete should be allowed")
	}
	if rec.SetExtraction(ExtractionFailed) || rec.SetExtraction(ExtractionPending) {
		t.Fatalf("terminal extraction status must not change")
	}
	if rec.ExtractionStatus != ExtractionComplete {
		t.Fatalf("expected complete, got %s", rec.ExtractionStatus)
	}

	if !rec.SetStorage(StorageFailed) {
		t.Fatalf("pending -> failed should be allowed")
	}
	if rec.SetStorage(StorageStored) {
		t.Fatalf("failed storage must not become stored")
	}

	if !rec.Skip(SkipNotStored) {
		t.Fatalf("pending -> skipped should be allowed")
	}
	if rec.SetNotification(NotificationSent) || rec.Skip(SkipNotRequested) {
		t.Fatalf("terminal notification status must not change")
	}
	if rec.NotificationReason != SkipNotStored {
		t.Fatalf("skip reason overwritten: %s", rec.NotificationReason)
	}
}

func TestExtractionCannotSkipProcessingToComplete(t *testing.T) {
	rec := NewRecord("id-1", time.Now())
	if rec.SetExtraction(ExtractionComplete) {
		t.Fatalf("pending -> complete must go through processing")
	}
}

func TestMergeKeepsKnownValues(t *testing.T) {
	f := Fields{Notes: Ptr("raw transcript"), CustomerName: Ptr("Acme")}
	f.Merge(Fields{CustomerName: nil, TotalHours: Ptr("1h 30m"), Notes: Ptr("  ")})

	if Value(f.CustomerName, "") != "Acme" {
		t.Fatalf("nil source value must not clear customer")
	}
	if Value(f.Notes, "") != "raw transcript" {
		t.Fatalf("blank source value must not replace notes")
	}
	if Value(f.TotalHours, "") != "1h 30m" {
		t.Fatalf("expected total hours merged")
	}

	f.Merge(Fields{CustomerName: Ptr("Globex")})
	if Value(f.CustomerName, "") != "Globex" {
		t.Fatalf("explicit non-nil value should replace prior one")
	}
}

func TestCompleteness(t *testing.T) {
	f := Fields{CustomerName: Ptr("Acme")}
	if f.Complete() {
		t.Fatalf("missing total hours should be incomplete")
	}
	if got := f.Missing(); len(got) != 1 || got[0] != "total_hours" {
		t.Fatalf("unexpected missing list: %v", got)
	}
	f.TotalHours = Ptr("2h 0m")
	if !f.Complete() {
		t.Fatalf("expected complete")
	}
}

func TestAddErrorCapturesKindAndCode(t *testing.T) {
	rec := NewRecord("id-1", time.Now())
	rec.AddError(StageStorage, apperrors.DestinationNotFound("workbook missing", nil))
	rec.AddError(StageNotification, errors.New("plain"))
	rec.AddError(StageNotification, nil)

	if len(rec.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(rec.Errors))
	}
	if rec.Errors[0].Kind != "storage" || rec.Errors[0].Code != apperrors.CodeDestinationNotFound {
		t.Fatalf("unexpected first error: %+v", rec.Errors[0])
	}
	if rec.Errors[1].Stage != StageNotification || rec.Errors[1].Kind != "" {
		t.Fatalf("unexpected second error: %+v", rec.Errors[1])
	}
}
