// Package outbox is a durable, append-only staging table for trades
// produced by the core. It is fed exclusively through book.TradeSink
// and is never read back into a live book: the core has no recovery
// path, and the outbox does not give it one. It exists only so a
// market-data publisher can drain trades independently of matching
// throughput.
package outbox

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/flux-exchange/matchcore/book"
)

// Store is a pebble-backed sequence-keyed table of trade records. It
// implements book.TradeSink, so it can be attached directly to a
// book.Book with SetTradeSink.
type Store struct {
	db *pebble.DB

	mu  sync.Mutex
	seq uint64
}

// Open opens (creating if absent) a pebble store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox: open %s: %w", dir, err)
	}
	s := &Store{db: db}
	iter, err := db.NewIter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("outbox: new iterator: %w", err)
	}
	if iter.Last() {
		s.seq = seqFromKey(iter.Key())
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, fmt.Errorf("outbox: close iterator: %w", err)
	}
	return s, nil
}

// Close closes the underlying pebble database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnTrade implements book.TradeSink. It stamps the trade with the
// store's own internal sequence counter and writes it synchronously.
// TradeSink carries no error return — Book is not allowed to unwind
// on a sink failure — so a write failure here is logged, not
// propagated. A durability problem in the outbox is an operational
// concern, not a matching-correctness one.
func (s *Store) OnTrade(t book.Trade) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	rec := Record{
		Seq:          seq,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		Price:        t.Price,
		Qty:          t.Qty,
	}
	if err := s.db.Set(key(seq), encodeRecord(rec), pebble.Sync); err != nil {
		log.Printf("outbox: write seq %d failed: %v", seq, err)
	}
}

// Append inserts rec directly, for callers (such as a replay driver)
// that already carry an externally assigned sequence number instead
// of relying on the store's own counter.
func (s *Store) Append(rec Record) error {
	return s.db.Set(key(rec.Seq), encodeRecord(rec), pebble.Sync)
}

// Get returns the record stored at seq.
func (s *Store) Get(seq uint64) (Record, error) {
	val, closer, err := s.db.Get(key(seq))
	if err != nil {
		return Record{}, fmt.Errorf("outbox: get seq %d: %w", seq, err)
	}
	defer closer.Close()
	return decodeRecord(seq, val)
}

// Delete removes the record at seq, once a publisher has confirmed
// delivery.
func (s *Store) Delete(seq uint64) error {
	return s.db.Delete(key(seq), pebble.Sync)
}

// ScanFrom iterates all records with seq >= from in ascending order,
// calling fn for each. It stops and returns fn's error if fn returns
// one. This is the only read path a publisher needs.
func (s *Store) ScanFrom(from uint64, fn func(Record) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: key(from),
	})
	if err != nil {
		return fmt.Errorf("outbox: new iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq := seqFromKey(iter.Key())
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}
