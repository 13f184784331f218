package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/water-utility-etl/internal/config"
	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the Publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per cleaned period to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// Publish sends every row of the table in a single WriteMessages call. Rows
// are keyed by period so a topic with compaction keeps the latest value of
// each month.
func (p *Publisher) Publish(ctx context.Context, table domain.CleanedTable) error {
	if table.Len() == 0 {
		return nil
	}
	generatedAt := p.clock.Now().UTC()
	msgs := make([]kafkago.Message, table.Len())
	for i := range table.Rows {
		msg, err := serializeRow(table, i, generatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish cleaned table: %w", err)
	}
	p.logger.Debug("cleaned table published", "periods", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRow encodes one period as a JSON object whose keys follow the
// table's column order.
func serializeRow(table domain.CleanedTable, i int, generatedAt time.Time) (kafkago.Message, error) {
	row := table.Rows[i]
	var buf bytes.Buffer
	buf.WriteByte('{')
	for c, name := range table.Columns {
		if c > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return kafkago.Message{}, fmt.Errorf("serialize column %q: %w", name, err)
		}
		v, err := json.Marshal(row.Cells[c])
		if err != nil {
			return kafkago.Message{}, fmt.Errorf("serialize period %s: %w", row.Period, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	period := row.Period.String()
	return kafkago.Message{
		Key:   []byte(period),
		Value: buf.Bytes(),
		Headers: []kafkago.Header{
			{Key: "period", Value: []byte(period)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
