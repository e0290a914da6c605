// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds the docqa client configuration.
type Config struct {
	BackendURL            string        `validate:"required,url"`
	RequestTimeout        time.Duration `validate:"gte=0"`
	ReloadDelay           time.Duration `validate:"gte=0"`
	DocumentExtension     string        `validate:"required,startswith=."`
	PickerFilterExtension bool
	DropDir               string // watched for new documents when set
	SampleQuestions       []string
	LogPath               string `validate:"required"`
	LogLevel              string `validate:"oneof=debug info warn error"`
	GlamourStyle          string `validate:"required"`
}

// StubConfig holds the contract stub backend configuration.
type StubConfig struct {
	Port           string        `validate:"required,numeric"`
	DBPath         string        `validate:"required"`
	SessionTTL     time.Duration `validate:"gt=0"`
	MaxUploadBytes int64         `validate:"gt=0"`
	TopK           int           `validate:"gte=1,lte=50"`
	CORSOrigins    []string      `validate:"min=1,dive,required"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
}

// Load reads client configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:            getEnv("BACKEND_URL", "http://localhost:5000"),
		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
		ReloadDelay:           getEnvDuration("RELOAD_DELAY", time.Second),
		DocumentExtension:     strings.ToLower(getEnv("DOCUMENT_EXTENSION", ".pdf")),
		PickerFilterExtension: getEnvBool("PICKER_FILTER_EXTENSION", false),
		DropDir:               getEnv("DROP_DIR", ""),
		SampleQuestions:       getEnvList("SAMPLE_QUESTIONS", "|"),
		LogPath:               getEnv("LOG_PATH", "./data/logs/docqa.log"),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		GlamourStyle:          getEnv("GLAMOUR_STYLE", "dark"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// LoadStub reads stub backend configuration from environment variables.
func LoadStub() (*StubConfig, error) {
	cfg := &StubConfig{
		Port:           getEnv("STUB_PORT", "5000"),
		DBPath:         getEnv("STUB_DB_PATH", "./data/stub.db"),
		SessionTTL:     getEnvDuration("STUB_SESSION_TTL", 60*time.Minute),
		MaxUploadBytes: int64(getEnvInt("STUB_MAX_UPLOAD_BYTES", 50*1024*1024)),
		TopK:           getEnvInt("STUB_TOP_K", 5),
		CORSOrigins:    getEnvList("STUB_CORS_ORIGINS", ","),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stub configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags.
func (c *StubConfig) Validate() error {
	return validate.Struct(c)
}

// SlogLevel maps LogLevel to a slog level.
func (c *StubConfig) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// SecureCookies reports whether session cookies should carry the Secure
// flag. Only an explicit origin list served over https needs it.
func (c *StubConfig) SecureCookies() bool {
	for _, o := range c.CORSOrigins {
		if strings.HasPrefix(o, "https://") {
			return true
		}
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a variable on sep, dropping blank items.
func getEnvList(key, sep string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
