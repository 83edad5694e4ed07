package auction

import (
	"time"

	"nftauction/core/events"
	"nftauction/core/types"
	"nftauction/native/common"
	"nftauction/native/gateway"
)

const moduleName = "auction"

// LogicVersion identifies the engine revision presented through the upgrade
// proxy.
const LogicVersion = "v1"

// MinDuration is the exclusive lower bound on the bidding window, in seconds.
const MinDuration int64 = 10

type engineState interface {
	AuctionPut(*Auction) error
	AuctionGet(id uint64) (*Auction, bool, error)
	AuctionCounter() (uint64, error)
	AuctionSetCounter(uint64) error
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// Engine owns the auction table and runs the per-record lifecycle: creation,
// bid admission with refund-on-outbid, and time-boxed closing with
// settlement. Every public operation either completes fully or returns an
// error without mutating state.
type Engine struct {
	state   engineState
	gateway *gateway.Gateway
	emitter events.Emitter
	nowFn   func() int64
	pauses  common.PauseView
	minDur  int64
}

// NewEngine creates an auction engine with a no-op emitter. Callers override
// the collaborators via the Set methods before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		minDur:  MinDuration,
	}
}

// Version implements the upgrade proxy's versioned logic interface.
func (e *Engine) Version() string { return LogicVersion }

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetGateway configures the asset gateway used for fund and item movement.
func (e *Engine) SetGateway(g *gateway.Gateway) { e.gateway = g }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses configures the administrative pause view.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetMinDuration overrides the minimum bidding window. Values below the
// default are ignored.
func (e *Engine) SetMinDuration(min int64) {
	if min > MinDuration {
		e.minDur = min
	}
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Auction returns the record for the supplied id. Records are never deleted,
// so ended auctions remain available for historical query.
func (e *Engine) Auction(id uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.AuctionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// NextAuctionID returns the id the next created auction will receive.
func (e *Engine) NextAuctionID() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.AuctionCounter()
}
