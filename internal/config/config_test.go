package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInput = "/data/monthly_report.xlsx"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INPUT_PATH", testInput)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testInput, cfg.InputPath)
	assert.Empty(t, cfg.InputSheet)
	assert.Equal(t, "cleaned_monthly_data.csv", cfg.OutputPath)
	assert.Equal(t, "Months", cfg.PeriodColumn)
	assert.Equal(t, "Schemes", cfg.GranularityColumn)
	assert.Equal(t, []string{"Unnamed: 224"}, cfg.IrrelevantColumns)
	assert.Zero(t, cfg.RunInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 64, cfg.ChartCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "water-utility-monthly", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATH", "report.csv")
	t.Setenv("INPUT_SHEET", "FY2023")
	t.Setenv("OUTPUT_PATH", "/out/clean.csv")
	t.Setenv("PERIOD_COLUMN", "Month")
	t.Setenv("GRANULARITY_COLUMN", "Scheme")
	t.Setenv("IRRELEVANT_COLUMNS", "Unnamed: 224, Notes ,,")
	t.Setenv("RUN_INTERVAL", "15m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CHART_CACHE_SIZE", "8")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "monthly")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "report.csv", cfg.InputPath)
	assert.Equal(t, "FY2023", cfg.InputSheet)
	assert.Equal(t, "/out/clean.csv", cfg.OutputPath)
	assert.Equal(t, "Month", cfg.PeriodColumn)
	assert.Equal(t, "Scheme", cfg.GranularityColumn)
	assert.Equal(t, []string{"Unnamed: 224", "Notes"}, cfg.IrrelevantColumns)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8, cfg.ChartCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "monthly", cfg.KafkaTopic)
}

func TestLoad_MissingInputPath(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_PATH")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("INPUT_PATH", testInput)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidRunInterval(t *testing.T) {
	for _, v := range []string{"soon", "-5m"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("INPUT_PATH", testInput)
			t.Setenv("RUN_INTERVAL", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "RUN_INTERVAL")
		})
	}
}

func TestLoad_InvalidChartCacheSize(t *testing.T) {
	for _, v := range []string{"0", "-1", "many"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("INPUT_PATH", testInput)
			t.Setenv("CHART_CACHE_SIZE", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "CHART_CACHE_SIZE")
		})
	}
}

func TestLoad_BlankPeriodColumn(t *testing.T) {
	t.Setenv("INPUT_PATH", testInput)
	t.Setenv("PERIOD_COLUMN", "   ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERIOD_COLUMN")
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList(""))
	assert.Equal(t, []string{"a", "b"}, parseList(" a ,b,"))
}
