// Package feed drains the trade outbox onto a market-data topic. It
// reads outbox.Store through ScanFrom (as does cmd/backfill) and runs
// entirely outside the matching core's write path.
package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/flux-exchange/matchcore/outbox"
)

// Publisher periodically scans the outbox for records at or after its
// cursor and publishes each one to a Kafka topic via a synchronous
// sarama producer, deleting a record from the outbox only once it has
// been acknowledged by the broker.
type Publisher struct {
	store    *outbox.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration

	mu     sync.Mutex
	cursor uint64
}

// New dials brokers and returns a Publisher that will drain store onto
// topic once Start is called.
func New(store *outbox.Store, brokers []string, topic string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
	}, nil
}

// Start launches the drain loop in its own goroutine. It returns
// immediately; the loop runs until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	log.Println("[feed] publisher started")
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.drainOnce()
			}
		}
	}()
}

func (p *Publisher) drainOnce() {
	p.mu.Lock()
	from := p.cursor
	p.mu.Unlock()

	var advanced uint64
	err := p.store.ScanFrom(from, func(rec outbox.Record) error {
		payload, err := encodeEvent(rec)
		if err != nil {
			log.Printf("[feed] encode seq %d: %v", rec.Seq, err)
			return nil // skip malformed record, don't block the drain
		}

		_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: p.topic,
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			log.Printf("[feed] publish seq %d: %v", rec.Seq, err)
			return errStop // stop draining, retry this record next tick
		}

		if err := p.store.Delete(rec.Seq); err != nil {
			log.Printf("[feed] delete seq %d after publish: %v", rec.Seq, err)
		}
		advanced = rec.Seq + 1
		return nil
	})
	if err != nil && err != errStop {
		log.Printf("[feed] scan: %v", err)
	}

	if advanced > from {
		p.mu.Lock()
		p.cursor = advanced
		p.mu.Unlock()
	}
}

// errStop is a sentinel used only to break out of ScanFrom's callback
// loop early; it never escapes drainOnce.
var errStop = &stopError{}

type stopError struct{}

func (*stopError) Error() string { return "feed: stop scan" }

// Close releases the underlying producer connection.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
