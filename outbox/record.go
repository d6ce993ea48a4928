package outbox

import (
	"encoding/binary"
	"fmt"

	"github.com/flux-exchange/matchcore/book"
)

// Record is the durable form of a book.Trade, keyed by a sequence
// number: the Store's own counter for trades written through OnTrade,
// or the caller's Seq for records written through Append.
type Record struct {
	Seq          uint64
	MakerOrderID book.OrderID
	TakerOrderID book.OrderID
	Price        book.Price
	Qty          book.Quantity
}

// recordLen is the fixed wire size of an encoded Record, excluding the
// key (the sequence number lives in the key, not the value, so range
// scans stay ordered without decoding).
const recordLen = 4 + 4 + 4 + 8 // makerID, takerID, price, qty

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.MakerOrderID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(r.TakerOrderID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(r.Price))
	binary.BigEndian.PutUint64(buf[12:20], uint64(r.Qty))
	return buf
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	if len(b) != recordLen {
		return Record{}, fmt.Errorf("outbox: record for seq %d has length %d, want %d", seq, len(b), recordLen)
	}
	return Record{
		Seq:          seq,
		MakerOrderID: book.OrderID(binary.BigEndian.Uint32(b[0:4])),
		TakerOrderID: book.OrderID(binary.BigEndian.Uint32(b[4:8])),
		Price:        book.Price(binary.BigEndian.Uint32(b[8:12])),
		Qty:          book.Quantity(binary.BigEndian.Uint64(b[12:20])),
	}, nil
}

// key encodes seq as a fixed-width big-endian key so pebble's
// lexicographic iteration order matches sequence order.
func key(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func seqFromKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k)
}
