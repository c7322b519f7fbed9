package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voice-timelog-go/internal/apperrors"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all application configuration. It is built once at startup
// and handed to every constructor; nothing reads the environment afterwards.
type Config struct {
	Environment  string             `yaml:"environment"`
	LogLevel     string             `yaml:"log_level"`
	Timezone     string             `yaml:"timezone"`
	Server       ServerConfig       `yaml:"server"`
	Transcribe   TranscribeConfig   `yaml:"transcription"`
	Extract      ExtractConfig      `yaml:"extraction"`
	Storage      StorageConfig      `yaml:"storage"`
	Notification NotificationConfig `yaml:"notification"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type TranscribeConfig struct {
	Provider     string        `yaml:"provider"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	Language     string        `yaml:"language"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetryTime time.Duration `yaml:"max_retry_time"`
}

type ExtractConfig struct {
	Provider     string        `yaml:"provider"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetryTime time.Duration `yaml:"max_retry_time"`
}

type StorageConfig struct {
	WorkbookPath    string `yaml:"workbook_path"`
	SheetName       string `yaml:"sheet_name"`
	CreateIfMissing bool   `yaml:"create_if_missing"`
}

type NotificationConfig struct {
	// DefaultNotify is used when a request does not say whether to notify.
	DefaultNotify bool        `yaml:"default_notify"`
	Email         EmailConfig `yaml:"email"`
	Chat          ChatConfig  `yaml:"chat"`
}

type EmailConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Sender      string        `yaml:"sender"`
	Password    string        `yaml:"password"`
	Recipients  []string      `yaml:"recipients"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ChatConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns the configuration used before any file or env override.
func Default() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		Timezone:    "Local",
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 25 << 20,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   120 * time.Second,
			IdleTimeout:    120 * time.Second,
		},
		Transcribe: TranscribeConfig{
			Provider:     ProviderOpenAI,
			BaseURL:      "https://api.openai.com/v1",
			Model:        "whisper-1",
			Language:     "en",
			Timeout:      60 * time.Second,
			MaxRetryTime: 90 * time.Second,
		},
		Extract: ExtractConfig{
			Provider:     ProviderOpenAI,
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			Temperature:  0.1,
			Timeout:      25 * time.Second,
			MaxRetryTime: 45 * time.Second,
		},
		Storage: StorageConfig{
			WorkbookPath:    "meeting_logs.xlsx",
			SheetName:       "Meeting Logs",
			CreateIfMissing: true,
		},
		Notification: NotificationConfig{
			Email: EmailConfig{
				Port:        587,
				MaxAttempts: 3,
				RetryDelay:  2 * time.Second,
				Timeout:     15 * time.Second,
			},
			Chat: ChatConfig{
				Timeout: 10 * time.Second,
			},
		},
	}
}

// Load reads .env, an optional YAML file named by VOICELOG_CONFIG, then
// environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("VOICELOG_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		c.Transcribe.Provider = ProviderMock
	}
	c.Transcribe.Provider = getEnv("TRANSCRIBE_PROVIDER", c.Transcribe.Provider)
	c.Transcribe.BaseURL = getEnv("TRANSCRIBE_URL", c.Transcribe.BaseURL)
	c.Transcribe.APIKey = getEnv("TRANSCRIBE_API_KEY", firstNonEmpty(apiKey, c.Transcribe.APIKey))
	c.Transcribe.Model = getEnv("TRANSCRIBE_MODEL", c.Transcribe.Model)
	c.Transcribe.Language = getEnv("TRANSCRIBE_LANGUAGE", c.Transcribe.Language)
	c.Transcribe.Timeout = getEnvAsDuration("TRANSCRIBE_TIMEOUT", c.Transcribe.Timeout)

	if os.Getenv("USE_MOCK_LLM") == "true" {
		c.Extract.Provider = ProviderMock
	}
	c.Extract.Provider = getEnv("LLM_PROVIDER", c.Extract.Provider)
	c.Extract.BaseURL = getEnv("LLM_GATEWAY_URL", c.Extract.BaseURL)
	c.Extract.APIKey = getEnv("LLM_API_KEY", firstNonEmpty(apiKey, c.Extract.APIKey))
	c.Extract.Model = getEnv("LLM_MODEL", c.Extract.Model)
	c.Extract.Temperature = getEnvAsFloat("LLM_TEMPERATURE", c.Extract.Temperature)
	c.Extract.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.Extract.Timeout)

	c.Storage.WorkbookPath = getEnv("WORKBOOK_PATH", c.Storage.WorkbookPath)
	c.Storage.SheetName = getEnv("SHEET_NAME", c.Storage.SheetName)
	c.Storage.CreateIfMissing = getEnvAsBool("WORKBOOK_CREATE_IF_MISSING", c.Storage.CreateIfMissing)

	n := &c.Notification
	n.DefaultNotify = getEnvAsBool("NOTIFICATIONS_DEFAULT", n.DefaultNotify)
	n.Email.Enabled = getEnvAsBool("ENABLE_EMAIL_NOTIFICATIONS", n.Email.Enabled)
	n.Email.Host = getEnv("SMTP_SERVER", n.Email.Host)
	n.Email.Port = getEnvAsInt("SMTP_PORT", n.Email.Port)
	n.Email.Sender = getEnv("SENDER_EMAIL", n.Email.Sender)
	n.Email.Password = getEnv("SENDER_PASSWORD", n.Email.Password)
	if v := os.Getenv("RECIPIENT_EMAILS"); v != "" {
		n.Email.Recipients = splitList(v)
	}
	n.Email.MaxAttempts = getEnvAsInt("EMAIL_MAX_ATTEMPTS", n.Email.MaxAttempts)
	n.Email.RetryDelay = getEnvAsDuration("EMAIL_RETRY_DELAY", n.Email.RetryDelay)
	n.Chat.Enabled = getEnvAsBool("ENABLE_SLACK_NOTIFICATIONS", n.Chat.Enabled)
	n.Chat.WebhookURL = getEnv("SLACK_WEBHOOK_URL", n.Chat.WebhookURL)
}

// Location resolves the configured timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate reports missing required settings as configuration errors.
// Incomplete notification settings are not errors: those channels skip at send time.
func (c *Config) Validate() error {
	var missing []string
	if c.Transcribe.Provider == ProviderOpenAI && c.Transcribe.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY (transcription)")
	}
	if c.Transcribe.Provider != ProviderOpenAI && c.Transcribe.Provider != ProviderMock {
		missing = append(missing, "TRANSCRIBE_PROVIDER must be openai or mock")
	}
	if c.Extract.Provider == ProviderOpenAI && c.Extract.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY (extraction)")
	}
	if c.Extract.Provider != ProviderOpenAI && c.Extract.Provider != ProviderMock {
		missing = append(missing, "LLM_PROVIDER must be openai or mock")
	}
	if c.Storage.WorkbookPath == "" {
		missing = append(missing, "WORKBOOK_PATH")
	}
	if c.Storage.SheetName == "" {
		missing = append(missing, "SHEET_NAME")
	}
	if c.Notification.Email.MaxAttempts < 1 {
		missing = append(missing, "EMAIL_MAX_ATTEMPTS must be >= 1")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("invalid settings: " + strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
