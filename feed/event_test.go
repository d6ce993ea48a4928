package feed

import (
	"encoding/json"
	"testing"

	"github.com/flux-exchange/matchcore/outbox"
)

func TestEncodeEventRoundTrip(t *testing.T) {
	rec := outbox.Record{Seq: 7, MakerOrderID: 1, TakerOrderID: 2, Price: 150, Qty: 20}
	payload, err := encodeEvent(rec)
	if err != nil {
		t.Fatal(err)
	}

	var got Event
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatal(err)
	}
	want := Event{Seq: 7, MakerOrderID: 1, TakerOrderID: 2, Price: 150, Qty: 20}
	if got != want {
		t.Fatalf("got = %+v, want %+v", got, want)
	}
}
