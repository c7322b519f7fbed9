package app

import (
	"time"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/extractor"
	"voice-timelog-go/internal/logger"
	"voice-timelog-go/internal/notify"
	"voice-timelog-go/internal/pipeline"
	"voice-timelog-go/internal/storage"
	"voice-timelog-go/internal/transcription"
)

// App holds every collaborator, built once at startup.
type App struct {
	Config      *config.Config
	Log         *logger.Logger
	Transcriber transcription.Port
	Extractor   extractor.Port
	Store       *storage.SheetStore
	Fanout      *notify.Fanout
	Pipeline    *pipeline.Orchestrator
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	transcriber := transcription.New(cfg.Transcribe, log.Entry)
	ext, err := extractor.New(cfg.Extract, log.Entry)
	if err != nil {
		return nil, err
	}
	store := storage.NewSheetStore(cfg.Storage, log.Entry)
	fanout := notify.FromConfig(cfg.Notification, log.Entry)

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	return &App{
		Config:      cfg,
		Log:         log,
		Transcriber: transcriber,
		Extractor:   ext,
		Store:       store,
		Fanout:      fanout,
		Pipeline:    pipeline.New(transcriber, ext, store, fanout, clock, log.Entry),
	}, nil
}
