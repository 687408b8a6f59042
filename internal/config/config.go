package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/weather-digest-service/internal/adapter/bark"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/cwa"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/feed"
	"github.com/couchcryptid/weather-digest-service/internal/adapter/llm"
	"github.com/couchcryptid/weather-digest-service/internal/forecast"
	"github.com/couchcryptid/weather-digest-service/internal/summary"
	"github.com/couchcryptid/weather-digest-service/internal/warning"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CWA cwa.Options

	Cities      []forecast.City
	ScanTargets []warning.ScanTarget
	Counties    []string

	LLM                 llm.Config
	DigestFallbackRunes int

	BarkKey     string
	BarkBaseURL string

	FeedPath      string
	FeedLink      string
	ForecastHours int

	// KafkaBrokers is empty when the alert sink is disabled.
	KafkaBrokers    []string
	KafkaAlertTopic string

	HTTPAddr        string
	RunInterval     time.Duration
	ShutdownTimeout time.Duration
	PushgatewayURL  string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first; values
// already in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cwaTimeout, err := parseDuration("CWA_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	llmTimeout, err := parseDuration("LLM_TIMEOUT", llm.DefaultTimeout.String())
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "12h")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseNonNegativeInt("CWA_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	llmRetries, err := parseNonNegativeInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	rpm, err := parsePositiveInt("LLM_RPM", llm.DefaultRPM)
	if err != nil {
		return nil, err
	}
	forecastHours, err := parsePositiveInt("FORECAST_HOURS", feed.DefaultForecastHours)
	if err != nil {
		return nil, err
	}
	fallbackRunes, err := parsePositiveInt("DIGEST_FALLBACK_MAX_RUNES", summary.DefaultFallbackRunes)
	if err != nil {
		return nil, err
	}

	ratePerSec, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CWA_RATE_LIMIT", "5"), 64)
	if err != nil || ratePerSec < 0 {
		return nil, errors.New("invalid CWA_RATE_LIMIT")
	}

	cities := table{
		Cities:      forecast.DefaultCities,
		ScanTargets: warning.DefaultScanTargets,
		Counties:    warning.DefaultCounties,
	}
	if path := os.Getenv("CITIES_FILE"); path != "" {
		if cities, err = loadTable(path); err != nil {
			return nil, err
		}
	}

	llmKey := firstEnv("LLM_API_KEY", "DOUBAO_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	cfg := &Config{
		CWA: cwa.Options{
			APIKey:     os.Getenv("CWA_API_KEY"),
			BaseURL:    sharedcfg.EnvOrDefault("CWA_BASE_URL", cwa.DefaultBaseURL),
			Timeout:    cwaTimeout,
			MaxRetries: maxRetries,
			RatePerSec: ratePerSec,
		},

		Cities:      cities.Cities,
		ScanTargets: cities.ScanTargets,
		Counties:    cities.Counties,

		LLM: llm.Config{
			Provider:      sharedcfg.EnvOrDefault("SUMMARIZER_PROVIDER", defaultProvider(llmKey, geminiKey)),
			APIKey:        llmKey,
			BaseURL:       sharedcfg.EnvOrDefault("LLM_BASE_URL", llm.DefaultBaseURL),
			Model:         sharedcfg.EnvOrDefault("LLM_MODEL", llm.DefaultModel),
			GeminiAPIKey:  geminiKey,
			GeminiModel:   sharedcfg.EnvOrDefault("GEMINI_MODEL", llm.DefaultGeminiModel),
			GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
			Timeout:       llmTimeout,
			RPM:           rpm,
			MaxRetries:    llmRetries,
		},
		DigestFallbackRunes: fallbackRunes,

		BarkKey:     os.Getenv("BARK_KEY"),
		BarkBaseURL: sharedcfg.EnvOrDefault("BARK_BASE_URL", bark.DefaultBaseURL),

		FeedPath:      sharedcfg.EnvOrDefault("FEED_PATH", feed.DefaultPath),
		FeedLink:      sharedcfg.EnvOrDefault("RSS_FEED_LINK", feed.DefaultLink),
		ForecastHours: forecastHours,

		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "weather-alerts"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		RunInterval:     runInterval,
		ShutdownTimeout: shutdownTimeout,
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.CWA.APIKey == "" {
		return nil, errors.New("CWA_API_KEY is required")
	}
	if len(cfg.Cities) == 0 {
		return nil, errors.New("at least one city is required")
	}
	switch cfg.LLM.Provider {
	case llm.ProviderOpenAI:
		if cfg.LLM.APIKey == "" {
			return nil, errors.New("LLM_API_KEY is required when SUMMARIZER_PROVIDER is openai")
		}
	case llm.ProviderGemini:
		if cfg.LLM.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required when SUMMARIZER_PROVIDER is gemini")
		}
	case llm.ProviderNone:
	default:
		return nil, fmt.Errorf("invalid SUMMARIZER_PROVIDER %q", cfg.LLM.Provider)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func defaultProvider(llmKey, geminiKey string) string {
	switch {
	case llmKey != "":
		return llm.ProviderOpenAI
	case geminiKey != "":
		return llm.ProviderGemini
	default:
		return llm.ProviderNone
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	n, err := parseNonNegativeInt(key, fallback)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
