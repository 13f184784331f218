package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputPath  string
	InputSheet string
	OutputPath string

	PeriodColumn      string
	GranularityColumn string
	IrrelevantColumns []string

	RunInterval     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ChartCacheSize  int

	// Kafka publication of the cleaned table.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	runInterval, err := parseRunInterval()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseChartCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:         strings.TrimSpace(os.Getenv("INPUT_PATH")),
		InputSheet:        os.Getenv("INPUT_SHEET"),
		OutputPath:        sharedcfg.EnvOrDefault("OUTPUT_PATH", "cleaned_monthly_data.csv"),
		PeriodColumn:      sharedcfg.EnvOrDefault("PERIOD_COLUMN", "Months"),
		GranularityColumn: sharedcfg.EnvOrDefault("GRANULARITY_COLUMN", "Schemes"),
		IrrelevantColumns: parseList(sharedcfg.EnvOrDefault("IRRELEVANT_COLUMNS", "Unnamed: 224")),
		RunInterval:       runInterval,
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		ChartCacheSize:    cacheSize,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "water-utility-monthly"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if strings.TrimSpace(cfg.PeriodColumn) == "" {
		return nil, errors.New("PERIOD_COLUMN must not be empty")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseRunInterval() (time.Duration, error) {
	s := sharedcfg.EnvOrDefault("RUN_INTERVAL", "0")
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid RUN_INTERVAL %q", s)
	}
	return d, nil
}

func parseChartCacheSize() (int, error) {
	s := os.Getenv("CHART_CACHE_SIZE")
	if s == "" {
		return 64, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid CHART_CACHE_SIZE %q", s)
	}
	return n, nil
}

// parseList splits a comma-separated variable, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
