// Package bookservice exposes book.Book over gRPC. There is no .proto
// file and no protoc-gen-go output anywhere in this module: the
// service descriptor below is hand-authored, and codec.go registers a
// JSON codec under grpc's reserved "proto" name so ordinary Go structs
// travel as the request/response payloads.
package bookservice

import (
	"context"
	"errors"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/flux-exchange/matchcore/book"
	"github.com/flux-exchange/matchcore/metrics"
)

// Server adapts a book.Book to the three RPCs this service exposes:
// PlaceOrder, CancelOrder, and GetSnapshot. It holds no state of its
// own beyond the book reference — the book remains single-writer, so
// every handler here runs on the same goroutine that owns it. m is the
// only AddOrder/CancelOrder path in a running server, so it is where
// the core's per-call metrics are actually recorded; m may be nil.
type Server struct {
	b *book.Book
	m *metrics.Metrics
}

// NewServer wraps b. b must not be touched by any other goroutine for
// the lifetime of the server. m may be nil to disable metrics.
func NewServer(b *book.Book, m *metrics.Metrics) *Server {
	return &Server{b: b, m: m}
}

func toBookSide(s Side) book.Side {
	if s == SideSell {
		return book.Sell
	}
	return book.Buy
}

func fromBookSide(s book.Side) Side {
	if s == book.Sell {
		return SideSell
	}
	return SideBuy
}

// PlaceOrder drives book.AddOrder and reports book.ErrArenaExhausted
// as a gRPC ResourceExhausted status rather than a transport-level
// failure, so clients can distinguish a full book from a broken
// connection.
func (s *Server) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	var trades []Trade
	prior := s.b.SwapTradeSink(nil) // restored below; collector forwards to it meanwhile
	sink := tradeCollector(func(t book.Trade) {
		trades = append(trades, Trade{
			MakerOrderID: uint32(t.MakerOrderID),
			TakerOrderID: uint32(t.TakerOrderID),
			Price:        uint32(t.Price),
			Qty:          uint64(t.Qty),
		})
		if s.m != nil {
			s.m.RecordTrade()
		}
		if prior != nil {
			prior.OnTrade(t)
		}
	})
	s.b.SetTradeSink(sink)
	defer s.b.SetTradeSink(prior)

	start := time.Now()
	err := s.b.AddOrder(book.OrderID(req.OrderID), toBookSide(req.Side), book.Price(req.Price), book.Quantity(req.Qty))
	if err != nil {
		if errors.Is(err, book.ErrArenaExhausted) {
			if s.m != nil {
				s.m.RecordArenaExhausted()
			}
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.m != nil {
		s.m.RecordAdd(float64(time.Since(start).Nanoseconds()))
	}

	log.Printf("[bookservice] PlaceOrder id=%d side=%v price=%d qty=%d trades=%d",
		req.OrderID, req.Side, req.Price, req.Qty, len(trades))

	return &PlaceOrderResponse{Status: "ok", Trades: trades}, nil
}

// CancelOrder drives book.CancelOrder, which is a silent no-op on an
// unknown id; the RPC reports "ok" either way, matching the core's
// contract.
func (s *Server) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error) {
	start := time.Now()
	s.b.CancelOrder(book.OrderID(req.OrderID))
	if s.m != nil {
		s.m.RecordCancel(float64(time.Since(start).Nanoseconds()))
	}
	log.Printf("[bookservice] CancelOrder id=%d", req.OrderID)
	return &CancelOrderResponse{Status: "ok"}, nil
}

// GetSnapshot walks one side of the book and aggregates it into
// price-ordered levels.
func (s *Server) GetSnapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error) {
	resp := &SnapshotResponse{
		BestBid: uint32(s.b.BestBid()),
		BestAsk: uint32(s.b.BestAsk()),
	}

	walk := s.b.WalkBids
	if req.Side == SideSell {
		walk = s.b.WalkAsks
	}

	var last book.Price
	seen := false
	walk(func(price book.Price, _ book.OrderID, _ book.Quantity) {
		if seen && price == last {
			return
		}
		seen = true
		last = price
		resp.Levels = append(resp.Levels, LevelEntry{
			Price:      uint32(price),
			Quantity:   uint64(s.b.LevelDepth(toBookSide(req.Side), price)),
			OrderCount: s.b.LevelOrderCount(toBookSide(req.Side), price),
		})
	})

	return resp, nil
}

// tradeCollector adapts a plain func(book.Trade) to book.TradeSink.
type tradeCollector func(book.Trade)

func (f tradeCollector) OnTrade(t book.Trade) { f(t) }

// ServiceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would otherwise generate from a .proto file. Each handler below
// decodes its request with the codec grpc-go selected for the call
// (our jsonCodec, registered under the "proto" name in codec.go) and
// invokes the matching Server method.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "matchcore.BookService",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PlaceOrder",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(PlaceOrderRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(*Server).PlaceOrder(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/matchcore.BookService/PlaceOrder"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(*Server).PlaceOrder(ctx, req.(*PlaceOrderRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "CancelOrder",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(CancelOrderRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(*Server).CancelOrder(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/matchcore.BookService/CancelOrder"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(*Server).CancelOrder(ctx, req.(*CancelOrderRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "GetSnapshot",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(SnapshotRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(*Server).GetSnapshot(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/matchcore.BookService/GetSnapshot"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(*Server).GetSnapshot(ctx, req.(*SnapshotRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookservice.proto",
}

// Register attaches Server to gs under ServiceDesc.
func Register(gs grpc.ServiceRegistrar, s *Server) {
	gs.RegisterService(&ServiceDesc, s)
}
