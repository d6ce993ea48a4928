package bookservice

// Side mirrors book.Side on the wire as a small integer rather than
// importing the book package's type directly into request structs,
// keeping the wire schema decoupled from internal representation.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

type PlaceOrderRequest struct {
	OrderID uint32 `json:"order_id"`
	Side    Side   `json:"side"`
	Price   uint32 `json:"price"`
	Qty     uint64 `json:"qty"`
}

type PlaceOrderResponse struct {
	Status string  `json:"status"`
	Trades []Trade `json:"trades,omitempty"`
}

type Trade struct {
	MakerOrderID uint32 `json:"maker_order_id"`
	TakerOrderID uint32 `json:"taker_order_id"`
	Price        uint32 `json:"price"`
	Qty          uint64 `json:"qty"`
}

type CancelOrderRequest struct {
	OrderID uint32 `json:"order_id"`
}

type CancelOrderResponse struct {
	Status string `json:"status"`
}

type SnapshotRequest struct {
	Side  Side   `json:"side"`
	Price uint32 `json:"price"`
}

type SnapshotResponse struct {
	BestBid uint32       `json:"best_bid"`
	BestAsk uint32       `json:"best_ask"`
	Levels  []LevelEntry `json:"levels"`
}

type LevelEntry struct {
	Price      uint32 `json:"price"`
	Quantity   uint64 `json:"quantity"`
	OrderCount int    `json:"order_count"`
}
