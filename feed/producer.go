package feed

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/flux-exchange/matchcore/outbox"
)

// Producer is a one-shot kafka-go writer used by cmd/backfill to push
// a historical range of outbox records to a topic without running the
// Publisher's continuous drain loop. Kept as a distinct client from
// Publisher (sarama) deliberately: a backfill job and the live drain
// loop have different delivery-guarantee and batching needs, and the
// corpus models them with two different client libraries rather than
// one shared abstraction.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns a Producer writing to topic on brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// SendRecord encodes rec and writes it with rec.Seq as the message key.
func (p *Producer) SendRecord(ctx context.Context, rec outbox.Record) error {
	payload, err := encodeEvent(rec)
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	for i := 0; i < 8; i++ {
		key[i] = byte(rec.Seq >> (8 * (7 - i)))
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
