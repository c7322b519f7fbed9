package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/logger"
	"voice-timelog-go/internal/pipeline"
	"voice-timelog-go/internal/transcription"
	"voice-timelog-go/internal/types"
)

// Processor is the orchestrator surface the handlers use.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*types.ProcessingRecord, error)
	ExtractText(ctx context.Context, text, customerHint, dateHint string) *types.ProcessingRecord
}

// RowSource feeds the report endpoint.
type RowSource interface {
	Rows(ctx context.Context) ([]types.Row, error)
}

type Deps struct {
	Pipeline      Processor
	Transcriber   transcription.Port
	Rows          RowSource
	DefaultNotify bool
	Log           *logger.Logger
}

type Server struct {
	cfg  config.ServerConfig
	deps Deps
	log  *logger.Logger
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{cfg: cfg, deps: deps, log: deps.Log}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /speech/upload", s.handleUpload)
	mux.HandleFunc("POST /speech/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /speech/process", s.handleProcess)
	mux.HandleFunc("POST /extraction/extract", s.handleExtract)
	mux.HandleFunc("GET /report", s.handleReport)
	return s.withRequestLog(mux)
}

// HTTPServer builds the listener-facing server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithRequest(r).WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request completed")
	})
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(env)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ok", Data: map[string]string{"status": "healthy"}})
}
