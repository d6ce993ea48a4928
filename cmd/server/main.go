// Command server wires the matching core to its surrounding
// infrastructure: a pebble-backed trade outbox, a Kafka publisher
// draining it, Prometheus metrics, and a gRPC front end. The core
// itself (book.Book) has no knowledge of any of this.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"

	"github.com/flux-exchange/matchcore/api/bookservice"
	"github.com/flux-exchange/matchcore/book"
	"github.com/flux-exchange/matchcore/feed"
	"github.com/flux-exchange/matchcore/metrics"
	"github.com/flux-exchange/matchcore/outbox"
)

func main() {
	listenAddr := flag.String("listen", ":50051", "gRPC listen address")
	metricsAddr := flag.String("metrics", ":9090", "Prometheus metrics listen address")
	outboxDir := flag.String("outbox-dir", "./outbox_data", "pebble outbox directory")
	brokers := flag.String("kafka-brokers", "", "comma-separated Kafka broker addresses; empty disables the publisher")
	topic := flag.String("kafka-topic", "matchcore.trades", "Kafka topic for published trades")
	maxPrice := flag.Uint("max-price", 250000, "inclusive maximum valid price")
	maxOrderID := flag.Uint("max-order-id", 5_000_000, "exclusive maximum valid order id")
	flag.Parse()

	// ---------------- Outbox ----------------

	store, err := outbox.Open(*outboxDir)
	if err != nil {
		log.Fatalf("outbox open failed: %v", err)
	}
	defer store.Close()

	// ---------------- Core ----------------

	b := book.New(book.Config{
		MaxPrice:   book.Price(*maxPrice),
		MaxOrderID: book.OrderID(*maxOrderID),
	})
	b.SetTradeSink(store)

	// ---------------- Metrics ----------------

	m := metrics.New("matchcore")
	m.Serve(*metricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------- Publisher ----------------

	if *brokers != "" {
		pub, err := feed.New(store, strings.Split(*brokers, ","), *topic)
		if err != nil {
			log.Fatalf("feed publisher init failed: %v", err)
		}
		defer pub.Close()
		pub.Start(ctx)
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			bestBid, bestAsk := b.BestBid(), b.BestAsk()
			m.SetBestPrice("bid", float64(bestBid))
			m.SetBestPrice("ask", float64(bestAsk))
			m.SetBookDepth("bid", float64(b.LevelDepth(book.Buy, bestBid)))
			m.SetBookDepth("ask", float64(b.LevelDepth(book.Sell, bestAsk)))
		}
	}()

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer()
	bookservice.Register(grpcSrv, bookservice.NewServer(b, m))

	log.Printf("matchcore engine running on %s (metrics on %s)", *listenAddr, *metricsAddr)
	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("gRPC server exited: %v", err)
	}
}
