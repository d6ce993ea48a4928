package feed

import (
	"encoding/json"

	"github.com/flux-exchange/matchcore/outbox"
)

// Event is the wire shape published to the market-data topic. It is
// deliberately flatter than outbox.Record: consumers outside this
// module should never need to know about sequence-keyed storage.
type Event struct {
	Seq          uint64 `json:"seq"`
	MakerOrderID uint32 `json:"maker_order_id"`
	TakerOrderID uint32 `json:"taker_order_id"`
	Price        uint32 `json:"price"`
	Qty          uint64 `json:"qty"`
}

func eventFromRecord(r outbox.Record) Event {
	return Event{
		Seq:          r.Seq,
		MakerOrderID: uint32(r.MakerOrderID),
		TakerOrderID: uint32(r.TakerOrderID),
		Price:        uint32(r.Price),
		Qty:          uint64(r.Qty),
	}
}

func encodeEvent(r outbox.Record) ([]byte, error) {
	return json.Marshal(eventFromRecord(r))
}
