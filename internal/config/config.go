// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig holds service identity and listen addresses.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
}

// SessionConfig holds session coordinator settings.
type SessionConfig struct {
	FlushInterval     time.Duration
	InterimConfidence float64
	Language          string
}

// QualityConfig holds quality monitor settings.
type QualityConfig struct {
	WindowSize int
}

// SpeakerConfig holds speaker matcher settings.
type SpeakerConfig struct {
	MatchThreshold float64
}

// STTConfig holds speech-to-text adapter settings.
type STTConfig struct {
	Provider       string // mock, google
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// KafkaConfig holds segment broadcast settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicInterim string
	TopicFinal   string
	Principal    string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Session       SessionConfig
	Quality       QualityConfig
	Speaker       SpeakerConfig
	STT           STTConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment, falling back to defaults.
// A local .env file is honored when present.
func Load() *Configuration {
	_ = godotenv.Load()

	return &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-collab-transcript"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
		},
		Session: SessionConfig{
			FlushInterval:     envDuration("SESSION_FLUSH_INTERVAL", time.Second),
			InterimConfidence: envFloat("SESSION_INTERIM_CONFIDENCE", 0.5),
			Language:          envOrDefault("SESSION_LANGUAGE", "en-US"),
		},
		Quality: QualityConfig{
			WindowSize: envInt("QUALITY_WINDOW_SIZE", 100),
		},
		Speaker: SpeakerConfig{
			MatchThreshold: envFloat("SPEAKER_MATCH_THRESHOLD", 0.7),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envInt("STT_SAMPLE_RATE_HZ", 8000),
			InterimResults: envBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		Kafka: KafkaConfig{
			Enabled:      envBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS", nil),
			TopicInterim: envOrDefault("KAFKA_TOPIC_INTERIM", "transcript.segment.interim"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "transcript.segment.final"),
			Principal:    envOrDefault("SERVICE_PRINCIPAL", "svc-collab-transcript"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
