package book

import "testing"

func newTestBook() *Book {
	return New(Config{MaxPrice: 500, MaxOrderID: 100})
}

// Scenario 1: rest without matching.
func TestRestWithoutMatching(t *testing.T) {
	b := newTestBook()

	if err := b.AddOrder(1, Buy, 100, 10); err != nil {
		t.Fatal(err)
	}
	if b.BestBid() != 100 {
		t.Fatalf("BestBid() = %d, want 100", b.BestBid())
	}
	if got := b.LevelDepth(Buy, 100); got != 10 {
		t.Fatalf("LevelDepth(Buy, 100) = %d, want 10", got)
	}
	if !b.HasOrder(1) {
		t.Fatal("expected order 1 to be live")
	}

	if err := b.AddOrder(2, Sell, 200, 5); err != nil {
		t.Fatal(err)
	}
	if b.BestAsk() != 200 {
		t.Fatalf("BestAsk() = %d, want 200", b.BestAsk())
	}
	if got := b.LevelDepth(Sell, 200); got != 5 {
		t.Fatalf("LevelDepth(Sell, 200) = %d, want 5", got)
	}
}

// Scenario 2: full fill.
func TestFullFill(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)
	mustAdd(t, b, 2, Sell, 200, 5)

	mustAdd(t, b, 3, Buy, 200, 5)

	if b.HasOrder(2) {
		t.Fatal("expected order 2 to be gone after full fill")
	}
	if b.HasOrder(3) {
		t.Fatal("expected order 3 to be gone: it fully matched and left no residual")
	}
	if got := b.LevelDepth(Sell, 200); got != 0 {
		t.Fatalf("LevelDepth(Sell, 200) = %d, want 0", got)
	}
	if b.BestAsk() != b.cfg.MaxPrice {
		t.Fatalf("BestAsk() = %d, want MaxPrice %d", b.BestAsk(), b.cfg.MaxPrice)
	}
	if b.BestBid() != 100 {
		t.Fatalf("BestBid() = %d, want 100 (unaffected)", b.BestBid())
	}
}

// Scenario 3: partial fill, residual rests.
func TestPartialFillResidualRests(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)
	mustAdd(t, b, 2, Sell, 200, 5)

	mustAdd(t, b, 3, Buy, 200, 8)

	if b.HasOrder(2) {
		t.Fatal("expected order 2 to be gone")
	}
	if got := b.LevelDepth(Sell, 200); got != 0 {
		t.Fatalf("LevelDepth(Sell, 200) = %d, want 0", got)
	}
	if got := b.LevelDepth(Buy, 200); got != 3 {
		t.Fatalf("LevelDepth(Buy, 200) = %d, want 3", got)
	}
	if b.BestBid() != 200 {
		t.Fatalf("BestBid() = %d, want 200", b.BestBid())
	}
	if !b.HasOrder(3) {
		t.Fatal("expected order 3 (residual 3) to be live")
	}
}

// Scenario 4: FIFO within a level.
func TestFIFOWithinLevel(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Sell, 100, 5)
	mustAdd(t, b, 2, Sell, 100, 5)
	mustAdd(t, b, 3, Buy, 100, 5)

	if b.HasOrder(1) {
		t.Fatal("expected order 1 to be fully filled and removed")
	}
	if !b.HasOrder(2) {
		t.Fatal("expected order 2 to remain untouched")
	}
	if got := b.LevelDepth(Sell, 100); got != 5 {
		t.Fatalf("LevelDepth(Sell, 100) = %d, want 5", got)
	}

	var headID OrderID
	b.WalkAsks(func(price Price, id OrderID, qty Quantity) {
		if headID == 0 {
			headID = id
		}
	})
	if headID != 2 {
		t.Fatalf("head of asks[100] = order %d, want order 2", headID)
	}
}

// Scenario 5: sweep across levels.
func TestSweepAcrossLevels(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Sell, 100, 2)
	mustAdd(t, b, 2, Sell, 101, 2)
	mustAdd(t, b, 3, Sell, 102, 2)

	mustAdd(t, b, 4, Buy, 102, 5)

	if b.HasOrder(1) || b.HasOrder(2) {
		t.Fatal("expected orders 1 and 2 to be fully filled")
	}
	if !b.HasOrder(3) {
		t.Fatal("expected order 3 to remain with residual quantity")
	}
	if got := b.LevelDepth(Sell, 102); got != 1 {
		t.Fatalf("LevelDepth(Sell, 102) = %d, want 1", got)
	}
	if b.BestAsk() != 102 {
		t.Fatalf("BestAsk() = %d, want 102", b.BestAsk())
	}
	if b.HasOrder(4) {
		t.Fatal("expected no residual from order 4")
	}
}

// Scenario 6: cancel updates best.
func TestCancelUpdatesBest(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 1)
	mustAdd(t, b, 2, Buy, 101, 1)

	if b.BestBid() != 101 {
		t.Fatalf("BestBid() = %d, want 101", b.BestBid())
	}

	b.CancelOrder(2)

	if b.BestBid() != 100 {
		t.Fatalf("BestBid() = %d, want 100 after cancel", b.BestBid())
	}
	if b.bidBitmap.get(101) {
		t.Fatal("expected bitmap bit 101 to be cleared")
	}
	if b.HasOrder(2) {
		t.Fatal("expected order 2 to be gone from the index")
	}
}

func TestAddThenCancelRoundTrip(t *testing.T) {
	b := newTestBook()
	bestBidBefore, bestAskBefore := b.BestBid(), b.BestAsk()

	mustAdd(t, b, 1, Buy, 100, 10)
	b.CancelOrder(1)

	if b.BestBid() != bestBidBefore || b.BestAsk() != bestAskBefore {
		t.Fatalf("best quotes not restored: bid=%d ask=%d", b.BestBid(), b.BestAsk())
	}
	if got := b.LevelDepth(Buy, 100); got != 0 {
		t.Fatalf("LevelDepth(Buy, 100) = %d, want 0", got)
	}
	if b.HasOrder(1) {
		t.Fatal("expected order 1 to be gone")
	}
}

func TestCancelUnknownIDIsNoOp(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)

	b.CancelOrder(99) // never existed
	b.CancelOrder(250) // out of range for MaxOrderID 100

	if !b.HasOrder(1) {
		t.Fatal("expected order 1 untouched by unrelated cancels")
	}
	if got := b.LevelDepth(Buy, 100); got != 10 {
		t.Fatalf("LevelDepth(Buy, 100) = %d, want 10", got)
	}
}

func TestFullyFilledOrderLeavesNoTrace(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Sell, 100, 5)
	mustAdd(t, b, 2, Buy, 100, 5)

	if b.HasOrder(1) || b.HasOrder(2) {
		t.Fatal("expected neither side of a fully-matched pair to remain live")
	}
	if b.arena.inUse != 0 {
		t.Fatalf("arena.inUse = %d, want 0", b.arena.inUse)
	}
}

// Boundary behavior.

func TestBoundaryPriceZero(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 0, 10)

	if b.BestBid() != 0 {
		t.Fatalf("BestBid() = %d, want 0", b.BestBid())
	}
	if got := b.LevelDepth(Buy, 0); got != 10 {
		t.Fatalf("LevelDepth(Buy, 0) = %d, want 10", got)
	}
}

func TestBoundaryPriceMax(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Sell, b.cfg.MaxPrice, 10)

	if b.BestAsk() != b.cfg.MaxPrice {
		t.Fatalf("BestAsk() = %d, want %d", b.BestAsk(), b.cfg.MaxPrice)
	}
}

func TestFillingLastBidRetreatsBestToZeroSentinel(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 50, 5)
	mustAdd(t, b, 2, Sell, 50, 5)

	if b.BestBid() != 0 {
		t.Fatalf("BestBid() = %d, want 0 (sentinel, no bids remain)", b.BestBid())
	}
}

func TestFillingLastAskAdvancesBestToMaxSentinel(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Sell, 50, 5)
	mustAdd(t, b, 2, Buy, 50, 5)

	if b.BestAsk() != b.cfg.MaxPrice {
		t.Fatalf("BestAsk() = %d, want MaxPrice %d (sentinel, no asks remain)", b.BestAsk(), b.cfg.MaxPrice)
	}
}

func TestArenaExhaustionIsFatal(t *testing.T) {
	b := New(Config{MaxPrice: 500, MaxOrderID: 10, ArenaCapacity: 2})

	mustAdd(t, b, 0, Buy, 100, 1)
	mustAdd(t, b, 1, Buy, 101, 1)

	if err := b.AddOrder(2, Buy, 102, 1); err != ErrArenaExhausted {
		t.Fatalf("AddOrder() = %v, want ErrArenaExhausted", err)
	}

	// A slot freed by Cancel is available for reuse.
	b.CancelOrder(0)
	if err := b.AddOrder(3, Buy, 103, 1); err != nil {
		t.Fatalf("AddOrder() after Cancel freed a slot = %v, want nil", err)
	}
}

func TestTradeSinkObservesFillsWithoutMutatingBookState(t *testing.T) {
	b := newTestBook()
	var trades []Trade
	b.SetTradeSink(sinkFunc(func(tr Trade) { trades = append(trades, tr) }))

	mustAdd(t, b, 1, Sell, 100, 5)
	mustAdd(t, b, 2, Buy, 100, 3)

	if len(trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1", len(trades))
	}
	tr := trades[0]
	if tr.MakerOrderID != 1 || tr.TakerOrderID != 2 || tr.Price != 100 || tr.Qty != 3 {
		t.Fatalf("unexpected trade: %+v", tr)
	}
	if got := b.LevelDepth(Sell, 100); got != 2 {
		t.Fatalf("LevelDepth(Sell, 100) = %d, want 2", got)
	}
}

type sinkFunc func(Trade)

func (f sinkFunc) OnTrade(t Trade) { f(t) }

func mustAdd(t *testing.T, b *Book, id OrderID, side Side, price Price, qty Quantity) {
	t.Helper()
	if err := b.AddOrder(id, side, price, qty); err != nil {
		t.Fatalf("AddOrder(%d, %v, %d, %d) = %v", id, side, price, qty, err)
	}
}
