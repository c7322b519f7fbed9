package transcription

import (
	"context"

	"voice-timelog-go/internal/apperrors"
)

// MockTranscript is returned by the mock backend.
const MockTranscript = "Meeting with Acme Corp from 2 PM to 3:30 PM, discussed requirements"

// Mock returns a fixed transcript, or Err when set.
type Mock struct {
	Text string
	Err  error
}

func (m *Mock) Transcribe(ctx context.Context, audio Audio) (Result, error) {
	if m.Err != nil {
		return Result{}, m.Err
	}
	if len(audio.Data) == 0 {
		return Result{}, apperrors.Validation("audio payload is empty", apperrors.ErrEmptyAudio)
	}
	return Result{Text: m.Text, Provider: "mock", Model: "mock"}, nil
}
