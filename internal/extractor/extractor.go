package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/types"
)

// Port turns transcript text into meeting fields. Values come back raw:
// dates and durations are normalized by the caller.
type Port interface {
	Extract(ctx context.Context, text string) (types.Fields, error)
}

// New picks the backend named in the config.
func New(cfg config.ExtractConfig, log *logrus.Entry) (Port, error) {
	if cfg.Provider == config.ProviderMock {
		return NewMock(), nil
	}
	c, err := NewLLMClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LLMClient calls an OpenAI-compatible chat completions endpoint in JSON mode.
type LLMClient struct {
	baseURL      string
	apiKey       string
	model        string
	temperature  float64
	maxRetryTime time.Duration
	httpClient   *http.Client
	schema       *jsonschema.Schema
	log          *logrus.Entry
}

func NewLLMClient(cfg config.ExtractConfig, log *logrus.Entry) (*LLMClient, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &LLMClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxRetryTime: cfg.MaxRetryTime,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		schema:       schema,
		log:          log.WithField("module", "extractor"),
	}, nil
}

func (c *LLMClient) Extract(ctx context.Context, text string) (types.Fields, error) {
	if strings.TrimSpace(text) == "" {
		return types.Fields{}, apperrors.Validation("transcript text is empty", nil)
	}

	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": SystemPrompt},
			{"role": "user", "content": text},
		},
		"temperature":     c.temperature,
		"response_format": map[string]string{"type": "json_object"},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return types.Fields{}, apperrors.Extraction("encode request", err)
	}
	log := c.log.WithFields(logrus.Fields{"model": c.model, "text_length": len(text)})
	log.Debug("LLM request payload size: ", len(data))

	var extracted map[string]any
	var lastErr error

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			lastErr = fmt.Errorf("llm client error %d: %s", resp.StatusCode, truncate(string(body), 300))
			return backoff.Permanent(lastErr)
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm server error %d", resp.StatusCode)
			return lastErr
		}

		raw := extractContentFromChoices(body)
		if raw == "" {
			raw = extractJSON(string(body))
		}
		if raw == "" {
			lastErr = fmt.Errorf("no JSON found in LLM output")
			return lastErr
		}
		m, err := c.decode(raw)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm output rejected")
			return lastErr
		}
		extracted = m
		lastErr = nil
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return types.Fields{}, apperrors.Extraction("llm extract failed", lastErr)
	}

	fields := fieldsFromMap(extracted)
	log.WithFields(logrus.Fields{
		"customer":    types.Value(fields.CustomerName, ""),
		"date":        types.Value(fields.MeetingDate, ""),
		"total_hours": types.Value(fields.TotalHours, ""),
	}).Info("llm extraction parsed")
	return fields, nil
}

func (c *LLMClient) decode(raw string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("unmarshal llm json: %w", err)
	}
	if err := c.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("llm json does not match schema: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("llm json is not an object")
	}
	return m, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
