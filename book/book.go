package book

// Trade is one fill produced during the matching phase of an AddOrder
// call: the resting (maker) order matched against the incoming
// (taker) order, t units at price. Trades are a pure side effect of
// quantity decrement — the sink never influences book state.
type Trade struct {
	MakerOrderID OrderID
	TakerOrderID OrderID
	Price        Price
	Qty          Quantity
}

// TradeSink receives trades in the order they occur during a single
// AddOrder call. It must not call back into the Book it was handed to;
// Book is single-writer and not reentrant.
type TradeSink interface {
	OnTrade(Trade)
}

// Config fixes the compile-time-in-spirit bounds a Book is built with:
// the inclusive price domain, the exclusive order-id domain, and the
// order arena's capacity.
type Config struct {
	MaxPrice   Price   // inclusive upper bound on valid prices
	MaxOrderID OrderID // exclusive upper bound on valid order-ids

	// ArenaCapacity bounds the number of simultaneously resting orders.
	// It defaults to MaxOrderID (every id could theoretically rest at
	// once), but a harness that knows its workload's peak depth may
	// size it smaller to catch runaway resting-order growth as
	// ErrArenaExhausted instead of growing memory unbounded.
	ArenaCapacity int
}

const (
	defaultMaxPrice   Price   = 25000
	defaultMaxOrderID OrderID = 3_000_000
)

func (c Config) withDefaults() Config {
	if c.MaxPrice == 0 {
		c.MaxPrice = defaultMaxPrice
	}
	if c.MaxOrderID == 0 {
		c.MaxOrderID = defaultMaxOrderID
	}
	if c.ArenaCapacity == 0 {
		c.ArenaCapacity = int(c.MaxOrderID)
	}
	return c
}

// Book composes the bid/ask level arrays, the two level bitmaps, the
// order index, and the order arena into the matching engine. It is
// exclusively owned by its single caller: there is no internal
// locking, and Book must never be shared across goroutines without
// the caller's own synchronization.
//
// bestBid/bestAsk cache the top of book, but the sentinel values (0
// for an empty bid side, MaxPrice for an empty ask side) legally
// coincide with a real resting price at the domain's boundary — see
// DESIGN.md. bidCount/askCount disambiguate "empty" from "resting
// exactly at the sentinel" and are the source of truth the matching
// loop, rest and the walk helpers actually branch on.
type Book struct {
	cfg Config

	bids []priceLevel
	asks []priceLevel

	bidBitmap *bitmap
	askBitmap *bitmap

	index *orderIndex
	arena *arena

	bestBid  Price
	bestAsk  Price
	bidCount int
	askCount int

	sink TradeSink
}

// New constructs a Book with all memory reserved up front: the two
// level arrays, the two bitmaps, the order index, and the arena. No
// allocation occurs on the AddOrder/CancelOrder hot path afterward,
// other than the arena's freelist pop/push.
func New(cfg Config) *Book {
	cfg = cfg.withDefaults()
	n := int(cfg.MaxPrice) + 1
	b := &Book{
		cfg:       cfg,
		bids:      make([]priceLevel, n),
		asks:      make([]priceLevel, n),
		bidBitmap: newBitmap(cfg.MaxPrice),
		askBitmap: newBitmap(cfg.MaxPrice),
		index:     newOrderIndex(cfg.MaxOrderID),
		arena:     newArena(cfg.ArenaCapacity),
		bestBid:   0,
		bestAsk:   cfg.MaxPrice,
	}
	for i := range b.bids {
		b.bids[i].head, b.bids[i].tail = slotAbsent, slotAbsent
	}
	for i := range b.asks {
		b.asks[i].head, b.asks[i].tail = slotAbsent, slotAbsent
	}
	return b
}

// SetTradeSink installs an optional sink that observes trades produced
// during matching. Passing nil disables trade reporting; this never
// affects book state either way.
func (b *Book) SetTradeSink(sink TradeSink) {
	b.sink = sink
}

// SwapTradeSink installs sink and returns whatever sink was previously
// installed, so a caller can temporarily intercept trades (to collect
// the fills from one AddOrder call, say) and restore the original
// afterward. Safe only because Book is single-writer: no trade can
// occur between the swap out and the matching swap back.
func (b *Book) SwapTradeSink(sink TradeSink) TradeSink {
	prior := b.sink
	b.sink = sink
	return prior
}

// BestBid returns the highest price with a non-empty bid level, or 0
// if the bid side is empty.
func (b *Book) BestBid() Price { return b.bestBid }

// BestAsk returns the lowest price with a non-empty ask level, or
// MaxPrice if the ask side is empty.
func (b *Book) BestAsk() Price { return b.bestAsk }

// AddOrder matches the incoming order against the opposite side
// starting at the cached best price, then rests any residual quantity
// on the incoming side. price must be <= Config.MaxPrice, id must be <
// Config.MaxOrderID and not currently live, and qty must be > 0 — the
// driver is responsible for these; violating them is undefined here.
//
// AddOrder returns ErrArenaExhausted if residual quantity remains and
// the arena's freelist is empty; the book is left with the matching
// phase already applied (trades are not rolled back) and must not be
// used again.
func (b *Book) AddOrder(id OrderID, side Side, price Price, qty Quantity) error {
	if side == Buy {
		qty = b.matchBuy(id, price, qty)
	} else {
		qty = b.matchSell(id, price, qty)
	}
	if qty == 0 {
		return nil
	}
	return b.rest(id, side, price, qty)
}

// matchBuy walks the ask side head-first, best price first, consuming
// resting quantity until the incoming order is filled or no further
// ask level crosses price.
func (b *Book) matchBuy(takerID OrderID, price Price, qty Quantity) Quantity {
	for qty > 0 && b.askCount > 0 && b.bestAsk <= price {
		lvl := &b.asks[b.bestAsk]
		if lvl.empty() {
			b.advanceBestAsk(b.bestAsk + 1)
			continue
		}
		qty = b.drainLevel(lvl, takerID, qty)
		if lvl.empty() {
			b.closeAskLevel(b.bestAsk)
		}
	}
	return qty
}

// matchSell is matchBuy's mirror against the bid side.
func (b *Book) matchSell(takerID OrderID, price Price, qty Quantity) Quantity {
	for qty > 0 && b.bidCount > 0 && b.bestBid >= price {
		lvl := &b.bids[b.bestBid]
		if lvl.empty() {
			if b.bestBid == 0 {
				break
			}
			b.advanceBestBid(b.bestBid - 1)
			continue
		}
		qty = b.drainLevel(lvl, takerID, qty)
		if lvl.empty() {
			b.closeBidLevel(b.bestBid)
		}
	}
	return qty
}

// drainLevel consumes resting orders from the head of lvl against an
// incoming order of qty, in strict arrival order (price-time
// priority within a level is simply FIFO). It returns the incoming
// quantity still unfilled after the level is exhausted or the
// incoming order is fully filled.
func (b *Book) drainLevel(lvl *priceLevel, takerID OrderID, qty Quantity) Quantity {
	for qty > 0 && !lvl.empty() {
		s := lvl.head
		r := b.arena.get(s)
		t := qty
		if r.qty < t {
			t = r.qty
		}
		r.qty -= t
		lvl.aggQty -= t
		qty -= t

		if b.sink != nil {
			b.sink.OnTrade(Trade{MakerOrderID: r.orderID, TakerOrderID: takerID, Price: r.price, Qty: t})
		}

		if r.qty == 0 {
			makerID := r.orderID
			b.index.clear(makerID)
			lvl.detach(b.arena, s)
			b.arena.release(s)
		} else {
			break
		}
	}
	return qty
}

func (b *Book) advanceBestAsk(from Price) {
	if from > b.cfg.MaxPrice {
		b.bestAsk = b.cfg.MaxPrice
		return
	}
	next, ok := b.askBitmap.findLowestAtOrAbove(from)
	if ok {
		b.bestAsk = next
	} else {
		b.bestAsk = b.cfg.MaxPrice
	}
}

func (b *Book) advanceBestBid(from Price) {
	prev, ok := b.bidBitmap.findHighestAtOrBelow(from)
	if ok {
		b.bestBid = prev
	} else {
		b.bestBid = 0
	}
}

// closeAskLevel clears an emptied ask level's bitmap bit and, since the
// matching loop only ever drains the current best level, advances
// bestAsk past it.
func (b *Book) closeAskLevel(price Price) {
	b.clearAskLevel(price)
	if price == b.cfg.MaxPrice {
		b.bestAsk = b.cfg.MaxPrice
		return
	}
	b.advanceBestAsk(price + 1)
}

// closeBidLevel is closeAskLevel's mirror for the bid side.
func (b *Book) closeBidLevel(price Price) {
	b.clearBidLevel(price)
	if price == 0 {
		b.bestBid = 0
		return
	}
	b.advanceBestBid(price - 1)
}

func (b *Book) clearAskLevel(price Price) {
	b.askBitmap.clear(price)
	b.askCount--
}

func (b *Book) clearBidLevel(price Price) {
	b.bidBitmap.clear(price)
	b.bidCount--
}

// rest allocates a slot for the residual quantity, appends it to the
// same-side level's tail, indexes it, and updates the cached best if
// this price improves it.
func (b *Book) rest(id OrderID, side Side, price Price, qty Quantity) error {
	s, ok := b.arena.allocate()
	if !ok {
		return ErrArenaExhausted
	}
	r := b.arena.get(s)
	*r = record{orderID: id, price: price, side: side, qty: qty, prev: slotAbsent, next: slotAbsent}
	b.index.set(id, s)

	if side == Buy {
		lvl := &b.bids[price]
		wasEmpty := lvl.empty()
		lvl.append(b.arena, s)
		if wasEmpty {
			b.bidBitmap.set(price)
			b.bidCount++
		}
		if b.bidCount == 1 || price > b.bestBid {
			b.bestBid = price
		}
	} else {
		lvl := &b.asks[price]
		wasEmpty := lvl.empty()
		lvl.append(b.arena, s)
		if wasEmpty {
			b.askBitmap.set(price)
			b.askCount++
		}
		if b.askCount == 1 || price < b.bestAsk {
			b.bestAsk = price
		}
	}
	return nil
}

// CancelOrder removes a resting order from the book. An id that is out
// of range or not currently live is a silent no-op: Cancel never
// returns an error because the harness, not the core, is responsible
// for tracking which ids are live.
func (b *Book) CancelOrder(id OrderID) {
	s, ok := b.index.lookup(id)
	if !ok {
		return
	}
	r := b.arena.get(s)
	price, side := r.price, r.side

	var lvl *priceLevel
	if side == Buy {
		lvl = &b.bids[price]
	} else {
		lvl = &b.asks[price]
	}

	lvl.detach(b.arena, s)
	b.index.clear(id)
	b.arena.release(s)

	if !lvl.empty() {
		return
	}

	// Clearing the bit is always correct; only a level that was the
	// cached top of book requires walking the bitmap to find the new
	// best — an empty level elsewhere never touches bestBid/bestAsk.
	if side == Buy {
		b.clearBidLevel(price)
		if price == b.bestBid {
			if price == 0 {
				b.bestBid = 0
			} else {
				b.advanceBestBid(price - 1)
			}
		}
	} else {
		b.clearAskLevel(price)
		if price == b.bestAsk {
			if price == b.cfg.MaxPrice {
				b.bestAsk = b.cfg.MaxPrice
			} else {
				b.advanceBestAsk(price + 1)
			}
		}
	}
}

// WalkBids visits every resting order on the bid side, best price
// first, in arrival order within each level. fn must not mutate the
// book.
func (b *Book) WalkBids(fn func(price Price, id OrderID, qty Quantity)) {
	if b.bidCount == 0 {
		return
	}
	p, ok := b.bidBitmap.findHighestAtOrBelow(b.cfg.MaxPrice)
	for ok {
		b.walkLevel(&b.bids[p], p, fn)
		if p == 0 {
			return
		}
		p, ok = b.bidBitmap.findHighestAtOrBelow(p - 1)
	}
}

// WalkAsks visits every resting order on the ask side, best price
// first, in arrival order within each level.
func (b *Book) WalkAsks(fn func(price Price, id OrderID, qty Quantity)) {
	if b.askCount == 0 {
		return
	}
	p, ok := b.askBitmap.findLowestAtOrAbove(0)
	for ok {
		b.walkLevel(&b.asks[p], p, fn)
		if p == b.cfg.MaxPrice {
			return
		}
		p, ok = b.askBitmap.findLowestAtOrAbove(p + 1)
	}
}

func (b *Book) walkLevel(lvl *priceLevel, price Price, fn func(Price, OrderID, Quantity)) {
	for s := lvl.head; s != slotAbsent; s = b.arena.get(s).next {
		r := b.arena.get(s)
		fn(price, r.orderID, r.qty)
	}
}

// LevelDepth reports the aggregate resting quantity at a price on a
// side. Returns 0 for an empty or out-of-range level; used by tests
// and by external inspectors scanning the book per spec's white-box
// option.
func (b *Book) LevelDepth(side Side, price Price) Quantity {
	if price > b.cfg.MaxPrice {
		return 0
	}
	if side == Buy {
		return b.bids[price].aggQty
	}
	return b.asks[price].aggQty
}

// LevelOrderCount reports the number of resting orders at a price on
// a side, alongside LevelDepth's aggregate quantity.
func (b *Book) LevelOrderCount(side Side, price Price) int {
	if price > b.cfg.MaxPrice {
		return 0
	}
	if side == Buy {
		return b.bids[price].orders
	}
	return b.asks[price].orders
}

// HasOrder reports whether id currently names a live resting order.
func (b *Book) HasOrder(id OrderID) bool {
	_, ok := b.index.lookup(id)
	return ok
}
