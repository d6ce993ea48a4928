// Command replay drives a line-oriented event stream (see package
// ingest) into a fresh book.Book and prints the resulting best prices
// and fill count. It is the offline counterpart to cmd/server: no
// persistence, and no network unless -metrics is set, just the core
// and its driver.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flux-exchange/matchcore/book"
	"github.com/flux-exchange/matchcore/ingest"
	"github.com/flux-exchange/matchcore/metrics"
)

func main() {
	path := flag.String("file", "", "path to the event stream; defaults to stdin")
	maxPrice := flag.Uint("max-price", 250000, "inclusive maximum valid price")
	maxOrderID := flag.Uint("max-order-id", 5_000_000, "exclusive maximum valid order id")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics listen address; empty disables metrics")
	flag.Parse()

	in := os.Stdin
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatalf("open %s: %v", *path, err)
		}
		defer f.Close()
		in = f
	}

	b := book.New(book.Config{
		MaxPrice:   book.Price(*maxPrice),
		MaxOrderID: book.OrderID(*maxOrderID),
	})

	tradeCount := 0
	b.SetTradeSink(countingSink(func() { tradeCount++ }))

	m := metrics.New("matchcore_replay")
	if *metricsAddr != "" {
		m.Serve(*metricsAddr)
	}

	seq := ingest.NewSequencer(0)
	n, err := ingest.Run(in, b, seq, m)
	if err != nil {
		log.Fatalf("replay stopped after %d events: %v", n, err)
	}

	fmt.Printf("events applied: %d\n", n)
	fmt.Printf("final sequence: %d\n", seq.Current())
	fmt.Printf("trades executed: %d\n", tradeCount)
	fmt.Printf("best bid: %d\n", b.BestBid())
	fmt.Printf("best ask: %d\n", b.BestAsk())
}

type countingSink func()

func (f countingSink) OnTrade(book.Trade) { f() }
