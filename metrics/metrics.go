// Package metrics exposes Prometheus counters and histograms for the
// matching core's hot-path operations. None of this sits in the
// AddOrder/CancelOrder call path inside book.Book itself: it is
// recorded around each call by whichever edge is driving the book —
// package ingest's Apply for a replayed event stream, and
// api/bookservice's Server for the live gRPC server — so the core
// stays free of observability concerns. Book depth and best-price
// gauges are set separately, on a timer, by cmd/server.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and instrument set for one matchcore
// process.
type Metrics struct {
	registry *prometheus.Registry

	ordersAdded     prometheus.Counter
	ordersCancelled prometheus.Counter
	tradesExecuted  prometheus.Counter
	arenaExhausted  prometheus.Counter

	addLatency    prometheus.Histogram
	cancelLatency prometheus.Histogram

	bookDepth *prometheus.GaugeVec
	bestPrice *prometheus.GaugeVec
}

// New builds and registers the full instrument set under namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ordersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_added_total",
			Help:      "Total AddOrder calls accepted by the core.",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Total CancelOrder calls, including no-op cancels of unknown ids.",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total fills produced during matching.",
		}),
		arenaExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_exhausted_total",
			Help:      "Total AddOrder calls rejected with ErrArenaExhausted.",
		}),
		addLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "add_order_latency_nanoseconds",
			Help:      "AddOrder call latency in nanoseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		}),
		cancelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cancel_order_latency_nanoseconds",
			Help:      "CancelOrder call latency in nanoseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		}),
		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "book_depth",
			Help:      "Aggregate resting quantity at the best price, by side.",
		}, []string{"side"}),
		bestPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_price",
			Help:      "Current best price, by side.",
		}, []string{"side"}),
	}

	registry.MustRegister(
		m.ordersAdded,
		m.ordersCancelled,
		m.tradesExecuted,
		m.arenaExhausted,
		m.addLatency,
		m.cancelLatency,
		m.bookDepth,
		m.bestPrice,
	)

	return m
}

// Registry returns the underlying Prometheus registry, for callers
// that need to gather or serve it themselves rather than through
// Serve (tests, mainly).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve starts a background HTTP server exposing /metrics on addr.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics: server on %s stopped: %v", addr, err)
		}
	}()
}

func (m *Metrics) RecordAdd(latencyNanos float64) {
	m.ordersAdded.Inc()
	m.addLatency.Observe(latencyNanos)
}

func (m *Metrics) RecordCancel(latencyNanos float64) {
	m.ordersCancelled.Inc()
	m.cancelLatency.Observe(latencyNanos)
}

func (m *Metrics) RecordTrade() {
	m.tradesExecuted.Inc()
}

func (m *Metrics) RecordArenaExhausted() {
	m.arenaExhausted.Inc()
}

func (m *Metrics) SetBookDepth(side string, depth float64) {
	m.bookDepth.WithLabelValues(side).Set(depth)
}

func (m *Metrics) SetBestPrice(side string, price float64) {
	m.bestPrice.WithLabelValues(side).Set(price)
}
