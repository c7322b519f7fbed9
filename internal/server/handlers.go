package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"voice-timelog-go/internal/actionable"
	"voice-timelog-go/internal/aggregator"
	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/pipeline"
	"voice-timelog-go/internal/transcription"
	"voice-timelog-go/internal/types"
)

// DefaultMaxUploadBytes caps one recording at 25 MB.
const DefaultMaxUploadBytes = 25 << 20

var allowedExtensions = map[string]bool{
	".mp3": true, ".mp4": true, ".mpeg": true, ".mpga": true,
	".m4a": true, ".wav": true, ".webm": true,
}

type uploadForm struct {
	audio        transcription.Audio
	customerHint string
	dateHint     string
	notify       *bool
}

// readUpload pulls the audio part and hints out of a multipart request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (uploadForm, error) {
	var form uploadForm
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return form, apperrors.Validation(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes), err)
		}
		return form, apperrors.Validation("expected a multipart form with a file field", err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return form, apperrors.Validation("missing file field", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !allowedExtensions[ext] {
		return form, apperrors.Validation(fmt.Sprintf("unsupported audio format %q", ext), nil)
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return form, apperrors.Validation("read upload", err)
	}
	if len(data) == 0 {
		return form, apperrors.Validation("uploaded file is empty", apperrors.ErrEmptyAudio)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return form, apperrors.Validation(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
	}

	form.audio = transcription.Audio{Data: data, Filename: hdr.Filename}
	form.customerHint = strings.TrimSpace(r.FormValue("customer_hint"))
	form.dateHint = strings.TrimSpace(r.FormValue("meeting_date_hint"))
	if v := strings.TrimSpace(r.FormValue("notify")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return form, apperrors.Validation("notify must be true or false", err)
		}
		form.notify = &b
	}
	return form, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.runPipeline(w, r, false)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.runPipeline(w, r, true)
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request, skipDelivery bool) {
	log := s.log.WithRequest(r)
	form, err := s.readUpload(w, r)
	if err != nil {
		log.WithError(err).Warn("upload rejected")
		writeJSON(w, http.StatusBadRequest, Envelope{Message: err.Error()})
		return
	}
	notify := s.deps.DefaultNotify
	if form.notify != nil {
		notify = *form.notify
	}

	rec, err := s.deps.Pipeline.Process(r.Context(), pipeline.Submission{
		Audio:        form.audio,
		CustomerHint: form.customerHint,
		DateHint:     form.dateHint,
		Notify:       notify,
		SkipDelivery: skipDelivery,
	})
	if err != nil {
		status := http.StatusBadGateway
		if apperrors.IsKind(err, apperrors.KindValidation) {
			status = http.StatusBadRequest
		}
		log.WithError(err).Warn("processing failed")
		writeJSON(w, status, Envelope{Message: "processing failed: " + err.Error(), Data: rec})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: summarize(rec), Data: rec})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r)
	form, err := s.readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Message: err.Error()})
		return
	}
	res, err := s.deps.Transcriber.Transcribe(r.Context(), form.audio)
	if err != nil {
		log.WithError(err).Warn("transcription failed")
		writeJSON(w, http.StatusBadGateway, Envelope{Message: "transcription failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "transcription completed", Data: res})
}

type extractRequest struct {
	Text            string `json:"text"`
	CustomerHint    string `json:"customer_hint"`
	MeetingDateHint string `json:"meeting_date_hint"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "text is required"})
		return
	}
	rec := s.deps.Pipeline.ExtractText(r.Context(), req.Text, req.CustomerHint, req.MeetingDateHint)
	ok := rec.ExtractionStatus.Succeeded()
	msg := "extraction " + string(rec.ExtractionStatus)
	writeJSON(w, http.StatusOK, Envelope{Success: ok, Message: msg, Data: rec})
}

type reportResponse struct {
	aggregator.Report
	Action actionable.ActionCard `json:"action"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Rows.Rows(r.Context())
	if err != nil && !errors.Is(err, apperrors.ErrDestinationNotFound) {
		s.log.WithRequest(r).WithError(err).Error("report read failed")
		writeJSON(w, http.StatusInternalServerError, Envelope{Message: err.Error()})
		return
	}
	rep := aggregator.Aggregate(rows)
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: fmt.Sprintf("%d meeting(s) logged", rep.TotalRows),
		Data:    reportResponse{Report: rep, Action: actionable.Generate(rep)},
	})
}

func summarize(rec *types.ProcessingRecord) string {
	switch {
	case rec.StorageStatus == types.StorageStored:
		return "audio processed and data stored"
	case rec.ExtractionStatus == types.ExtractionFailed:
		return "audio transcribed; extraction failed"
	case rec.StorageStatus == types.StorageFailed:
		return "audio processed; storage failed"
	}
	return "audio processed"
}
