package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/logger"
	"voice-timelog-go/internal/types"
)

func chatBody(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return b
}

func testClient(t *testing.T, url string) *LLMClient {
	t.Helper()
	c, err := NewLLMClient(config.ExtractConfig{
		BaseURL:      url,
		APIKey:       "sk-test",
		Model:        "gpt-4o-mini",
		Temperature:  0.1,
		Timeout:      5 * time.Second,
		MaxRetryTime: time.Second,
	}, logger.Nop().Entry)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestExtractParsesFencedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if rf, _ := req["response_format"].(map[string]any); rf["type"] != "json_object" {
			t.Errorf("expected json mode, got %v", req["response_format"])
		}
		w.Write(chatBody("```json\n{\"customer_name\":\"Acme Corp\",\"meeting_date\":\"today\",\"start_time\":\"2:00 PM\",\"end_time\":\"3:30 PM\",\"total_hours\":1.5,\"notes\":null}\n```"))
	}))
	defer srv.Close()

	f, err := testClient(t, srv.URL).Extract(context.Background(), "Meeting with Acme Corp")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if types.Value(f.CustomerName, "") != "Acme Corp" || types.Value(f.TotalHours, "") != "1.5" {
		t.Fatalf("unexpected fields %+v", f)
	}
	if f.Notes != nil {
		t.Fatalf("null notes should stay absent, got %q", *f.Notes)
	}
}

func TestExtractBlankStringsBecomeAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(`{"customer_name":"  ","total_hours":"2"}`))
	}))
	defer srv.Close()

	f, err := testClient(t, srv.URL).Extract(context.Background(), "two hours of something")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.CustomerName != nil || types.Value(f.TotalHours, "") != "2" {
		t.Fatalf("unexpected fields %+v", f)
	}
}

func TestExtractClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Extract(context.Background(), "hello")
	if !apperrors.IsKind(err, apperrors.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestExtractRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(chatBody(`{"customer_name":"Globex"}`))
	}))
	defer srv.Close()

	f, err := testClient(t, srv.URL).Extract(context.Background(), "met Globex")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if types.Value(f.CustomerName, "") != "Globex" {
		t.Fatalf("unexpected fields %+v", f)
	}
}

func TestExtractRejectsSchemaViolations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(`{"customer_name":{"nested":true}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Extract(context.Background(), "hello")
	if !apperrors.IsKind(err, apperrors.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractEmptyText(t *testing.T) {
	_, err := testClient(t, "http://127.0.0.1:0").Extract(context.Background(), "  ")
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"no braces", ""},
		{`prefix {"a":1} suffix`, `{"a":1}`},
		{"```json\n{\"a\":\"}\"}\n```", `{"a":"}"}`},
		{`{"a":{"b":2}} {"c":3}`, `{"a":{"b":2}}`},
		{`{"unterminated": true`, ""},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
