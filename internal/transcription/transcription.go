package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/config"
)

// Audio is one uploaded recording. Size and format are validated by the caller.
type Audio struct {
	Data     []byte
	Filename string
}

type Result struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Port turns recorded audio into text.
type Port interface {
	Transcribe(ctx context.Context, audio Audio) (Result, error)
}

// New picks the backend named in the config.
func New(cfg config.TranscribeConfig, log *logrus.Entry) Port {
	if cfg.Provider == config.ProviderMock {
		return &Mock{Text: MockTranscript}
	}
	return NewWhisperClient(cfg, log)
}

// WhisperClient calls an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperClient struct {
	baseURL      string
	apiKey       string
	model        string
	language     string
	maxRetryTime time.Duration
	httpClient   *http.Client
	log          *logrus.Entry
}

func NewWhisperClient(cfg config.TranscribeConfig, log *logrus.Entry) *WhisperClient {
	return &WhisperClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		language:     cfg.Language,
		maxRetryTime: cfg.MaxRetryTime,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          log.WithField("module", "transcription"),
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio Audio) (Result, error) {
	if len(audio.Data) == 0 {
		return Result{}, apperrors.Validation("audio payload is empty", apperrors.ErrEmptyAudio)
	}
	body, contentType, err := c.multipartBody(audio)
	if err != nil {
		return Result{}, apperrors.Transcription("build upload", err)
	}

	endpoint := c.baseURL + "/audio/transcriptions"
	c.log.WithFields(logrus.Fields{"bytes": len(audio.Data), "model": c.model}).Info("starting transcription")

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	}

	var resp whisperResponse
	if err := c.doJSON(ctx, newReq, &resp); err != nil {
		c.log.WithError(err).Error("transcription failed")
		return Result{}, apperrors.Transcription("provider call failed", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Result{}, apperrors.Transcription("provider returned an empty transcript", nil)
	}
	c.log.WithField("text_length", len(text)).Info("transcription completed")
	return Result{Text: text, Provider: "openai", Model: c.model}, nil
}

func (c *WhisperClient) multipartBody(audio Audio) ([]byte, string, error) {
	name := audio.Filename
	if name == "" {
		name = "recording.mp3"
	}
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", err
	}
	if c.language != "" {
		if err := w.WriteField("language", c.language); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("temperature", "0"); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}

// doJSON retries transport and 5xx failures; 4xx answers are permanent.
func (c *WhisperClient) doJSON(ctx context.Context, newReq func() (*http.Request, error), target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetryTime
	var lastErr error
	op := func() error {
		req, err := newReq()
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("transcription request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}
