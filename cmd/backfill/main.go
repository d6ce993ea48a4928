// Command backfill pushes a historical range of outbox trade records
// to Kafka using the kafka-go producer, independent of the live
// feed.Publisher drain loop. Useful for re-seeding a market-data
// consumer that fell behind or was rebuilt from scratch.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/flux-exchange/matchcore/feed"
	"github.com/flux-exchange/matchcore/outbox"
)

func main() {
	outboxDir := flag.String("outbox-dir", "./outbox_data", "pebble outbox directory")
	brokers := flag.String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	topic := flag.String("kafka-topic", "matchcore.trades.backfill", "Kafka topic to backfill onto")
	from := flag.Uint64("from", 0, "sequence number to start the backfill from")
	flag.Parse()

	store, err := outbox.Open(*outboxDir)
	if err != nil {
		log.Fatalf("outbox open failed: %v", err)
	}
	defer store.Close()

	producer := feed.NewProducer(strings.Split(*brokers, ","), *topic)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent := 0
	err = store.ScanFrom(*from, func(rec outbox.Record) error {
		if err := producer.SendRecord(ctx, rec); err != nil {
			return err
		}
		sent++
		return nil
	})
	if err != nil {
		log.Fatalf("backfill stopped after %d records: %v", sent, err)
	}

	log.Printf("backfill complete: %d records sent to %s", sent, *topic)
}
