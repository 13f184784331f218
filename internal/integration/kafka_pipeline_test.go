//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/water-utility-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/water-utility-etl/internal/adapter/kafka"
	"github.com/couchcryptid/water-utility-etl/internal/config"
	"github.com/couchcryptid/water-utility-etl/internal/dashboard"
	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
	"github.com/couchcryptid/water-utility-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-water-utility-monthly"

const reportCSV = "Schemes,Months,Volume Produced,Power Usage,Unnamed: 224\n" +
	"Zomba,2023-1,100,10,\n" +
	"Machinga,2023-1,50,0,\n" +
	"Zomba Qtr,2023-1,999,999,\n" +
	"Zomba,2023-2,0,,\n" +
	"Zomba,,70,1,\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("water-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPipelinePublishesCleanedTable runs the CSV report through the real
// pipeline and checks the artifact, the dashboard store, and the Kafka topic.
func TestPipelinePublishesCleanedTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	input := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(input, []byte(reportCSV), 0o600))
	output := filepath.Join(dir, "cleaned_monthly_data.csv")

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	publisher := kafka.NewPublisher(cfg, logger)
	t.Cleanup(func() { _ = publisher.Close() })
	store := dashboard.NewStore()

	normalizer := pipeline.NewNormalizer(domain.Options{
		PeriodColumn:      "Months",
		GranularityColumn: "Schemes",
		IrrelevantColumns: []string{"Unnamed: 224"},
	}, logger, metrics)
	p := pipeline.New(csvfile.NewReader(input, logger), normalizer, csvfile.NewArtifactWriter(output, logger), logger, metrics,
		pipeline.WithPublisher(publisher),
		pipeline.WithNotifier(store),
	)

	res, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Table.Len())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Months,Schemes,Volume Produced,Power Usage\n"+
		"2023-01,Zomba,150,10\n"+
		"2023-02,Zomba,-,NaN\n", string(data))

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, res.Table.Fingerprint(), latest.Fingerprint())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	want := []struct {
		key  string
		body map[string]string
	}{
		{"2023-01", map[string]string{"Months": "2023-01", "Schemes": "Zomba", "Volume Produced": "150", "Power Usage": "10"}},
		{"2023-02", map[string]string{"Months": "2023-02", "Schemes": "Zomba", "Volume Produced": "-", "Power Usage": "NaN"}},
	}
	for _, w := range want {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from topic")

		assert.Equal(t, w.key, string(msg.Key))
		var body map[string]string
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, w.body, body)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, w.key, headers["period"])
		assert.NotEmpty(t, headers["generated_at"])
	}
}
