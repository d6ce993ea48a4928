// Package ingest is the driver: it owns no matching logic, only the
// line-oriented wire format of the replayed event stream and the
// translation from each line into a book.AddOrder / book.CancelOrder
// call. Parsing, the timing harness, and persistence all live outside
// the core by design; this package is the thin, swappable edge that
// talks to it.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/flux-exchange/matchcore/book"
	"github.com/flux-exchange/matchcore/metrics"
)

// EventType distinguishes the two lines the wire format carries.
type EventType byte

const (
	EventAdd    EventType = 'A'
	EventCancel EventType = 'C'
)

// Event is one parsed line of the driver's input stream. Seq is
// stamped by Run from a Sequencer, not by ParseLine — a line by itself
// carries no ordering information beyond its position in the stream.
type Event struct {
	Type    EventType
	Side    book.Side
	OrderID book.OrderID
	Price   book.Price
	Qty     book.Quantity
	Seq     uint64
}

// ParseLine parses one comma-delimited line into an Event:
//
//	A,<B|S>,<order_id>,<price>,<quantity>
//	C,<B|S>,<order_id>
//
// The side field on a Cancel line is accepted but ignored, per §6: the
// core resolves Cancel entirely through the order index.
func ParseLine(line string) (Event, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) == 0 || fields[0] == "" {
		return Event{}, fmt.Errorf("ingest: empty line")
	}

	switch fields[0] {
	case "A":
		if len(fields) != 5 {
			return Event{}, fmt.Errorf("ingest: Add line wants 5 fields, got %d: %q", len(fields), line)
		}
		side, err := parseSide(fields[1])
		if err != nil {
			return Event{}, err
		}
		id, err := parseUint(fields[2], "order_id")
		if err != nil {
			return Event{}, err
		}
		price, err := parseUint(fields[3], "price")
		if err != nil {
			return Event{}, err
		}
		qty, err := parseUint(fields[4], "quantity")
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventAdd, Side: side, OrderID: book.OrderID(id), Price: book.Price(price), Qty: book.Quantity(qty)}, nil

	case "C":
		if len(fields) != 3 {
			return Event{}, fmt.Errorf("ingest: Cancel line wants 3 fields, got %d: %q", len(fields), line)
		}
		id, err := parseUint(fields[2], "order_id")
		if err != nil {
			return Event{}, err
		}
		return Event{Type: EventCancel, OrderID: book.OrderID(id)}, nil

	default:
		return Event{}, fmt.Errorf("ingest: unknown event type %q in line %q", fields[0], line)
	}
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "B":
		return book.Buy, nil
	case "S":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("ingest: unknown side %q", s)
	}
}

func parseUint(s, field string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ingest: invalid %s %q: %w", field, s, err)
	}
	return v, nil
}

// Apply drives a single Event into b. It never returns an error for a
// malformed Cancel (the core treats an unknown id as a silent no-op)
// but surfaces book.ErrArenaExhausted verbatim, since that is fatal. m
// may be nil, in which case no metrics are recorded.
func Apply(b *book.Book, ev Event, m *metrics.Metrics) error {
	switch ev.Type {
	case EventAdd:
		return applyAdd(b, ev, m)
	case EventCancel:
		applyCancel(b, ev, m)
		return nil
	default:
		return fmt.Errorf("ingest: unhandled event type %q", ev.Type)
	}
}

// applyAdd drives a single AddOrder, timing the call and counting the
// trades it produces through a TradeSink that wraps whatever sink was
// already installed — a persistent sink (an outbox, say) still sees
// every trade, it's just observed on the way through.
func applyAdd(b *book.Book, ev Event, m *metrics.Metrics) error {
	if m == nil {
		return b.AddOrder(ev.OrderID, ev.Side, ev.Price, ev.Qty)
	}

	prior := b.SwapTradeSink(nil)
	b.SetTradeSink(countingTradeSink{m: m, prior: prior})
	defer b.SetTradeSink(prior)

	start := time.Now()
	err := b.AddOrder(ev.OrderID, ev.Side, ev.Price, ev.Qty)
	if err != nil {
		if errors.Is(err, book.ErrArenaExhausted) {
			m.RecordArenaExhausted()
		}
		return err
	}
	m.RecordAdd(float64(time.Since(start).Nanoseconds()))
	return nil
}

func applyCancel(b *book.Book, ev Event, m *metrics.Metrics) {
	if m == nil {
		b.CancelOrder(ev.OrderID)
		return
	}
	start := time.Now()
	b.CancelOrder(ev.OrderID)
	m.RecordCancel(float64(time.Since(start).Nanoseconds()))
}

// countingTradeSink records one trade per OnTrade call and forwards to
// prior, which may be nil.
type countingTradeSink struct {
	m     *metrics.Metrics
	prior book.TradeSink
}

func (s countingTradeSink) OnTrade(t book.Trade) {
	s.m.RecordTrade()
	if s.prior != nil {
		s.prior.OnTrade(t)
	}
}

// Run reads newline-delimited events from r and drives them into b in
// order, stopping at the first parse error or fatal book error. Each
// event is stamped with the next value from seq before being applied;
// the stamp appears in Run's error messages and is not passed to the
// core or to the trade sink. m may be nil to disable
// metrics recording; otherwise each Add/Cancel call is timed and
// trades and arena exhaustion are counted through it. Run returns the
// number of events successfully applied.
func Run(r io.Reader, b *book.Book, seq *Sequencer, m *metrics.Metrics) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ev, err := ParseLine(line)
		if err != nil {
			return n, err
		}
		ev.Seq = seq.Next()
		if err := Apply(b, ev, m); err != nil {
			return n, fmt.Errorf("ingest: applying event %d (seq %d, %q): %w", n, ev.Seq, line, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("ingest: reading stream: %w", err)
	}
	return n, nil
}
