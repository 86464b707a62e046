// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration. Missing optional values degrade
// capability; nothing here is required to start.
type Config struct {
	Port       string
	CronSecret string
	LogLevel   string

	ModelProvider   string
	ModelName       string
	AnthropicAPIKey string
	CohereAPIKey    string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3UsePathStyle bool

	KafkaBrokers      []string
	KafkaTriggerTopic string
	KafkaGroupID      string

	SourcesFile     string
	Timezone        string
	Location        *time.Location
	MorningCron     string
	EveningCron     string
	FetchTimeout    time.Duration
	ExtractSnippets bool
}

// Presence reports which optional capabilities are configured without
// exposing their values.
type Presence struct {
	CronSecret bool `json:"cron_secret"`
	ModelKey   bool `json:"model_key"`
	// ModelReady is set by the process once a model client was built.
	ModelReady    bool   `json:"model_ready"`
	Database      bool   `json:"database"`
	Redis         bool   `json:"redis"`
	S3            bool   `json:"s3"`
	Kafka         bool   `json:"kafka"`
	SourcesFile   bool   `json:"sources_file"`
	ModelProvider string `json:"model_provider"`
}

// Load reads .env if present, then the environment. It fails only on values
// that are set but malformed.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              GetEnvOrDefault("PORT", DefaultPort),
		CronSecret:        os.Getenv("CRON_SECRET"),
		LogLevel:          GetEnvOrDefault("LOG_LEVEL", "info"),
		ModelProvider:     strings.ToLower(GetEnvOrDefault("MODEL_PROVIDER", DefaultModelProvider)),
		ModelName:         os.Getenv("MODEL_NAME"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		CohereAPIKey:      os.Getenv("COHERE_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Prefix:          normalizePrefix(os.Getenv("S3_PREFIX")),
		S3Region:          strings.TrimSpace(os.Getenv("S3_REGION")),
		S3UsePathStyle:    strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTriggerTopic: GetEnvOrDefault("KAFKA_TRIGGER_TOPIC", DefaultKafkaTopic),
		KafkaGroupID:      GetEnvOrDefault("KAFKA_GROUP_ID", DefaultKafkaGroupID),
		SourcesFile:       os.Getenv("SOURCES_FILE"),
		Timezone:          GetEnvOrDefault("TZ_NAME", DefaultTimezone),
		MorningCron:       GetEnvOrDefault("MORNING_CRON", DefaultMorningCron),
		EveningCron:       GetEnvOrDefault("EVENING_CRON", DefaultEveningCron),
		FetchTimeout:      DefaultFetchTimeout,
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TZ_NAME %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("FETCH_TIMEOUT %q: must be a positive duration", v)
		}
		cfg.FetchTimeout = d
	}
	if v := os.Getenv("EXTRACT_SNIPPETS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("EXTRACT_SNIPPETS %q: %w", v, err)
		}
		cfg.ExtractSnippets = b
	}
	return cfg, nil
}

// GetEnvOrDefault returns the trimmed value of key, or def when unset or blank.
func GetEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ModelKey returns the credential for the selected provider.
func (c *Config) ModelKey() string {
	if c.ModelProvider == "cohere" {
		return c.CohereAPIKey
	}
	return c.AnthropicAPIKey
}

func (c *Config) Presence() Presence {
	return Presence{
		CronSecret:    c.CronSecret != "",
		ModelKey:      c.ModelKey() != "",
		Database:      c.DatabaseURL != "",
		Redis:         c.RedisAddr != "",
		S3:            c.S3Bucket != "",
		Kafka:         len(c.KafkaBrokers) > 0,
		SourcesFile:   c.SourcesFile != "",
		ModelProvider: c.ModelProvider,
	}
}

func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
