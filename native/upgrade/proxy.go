package upgrade

import (
	"errors"
	"math/big"
	"sync"

	"nftauction/native/auction"
	"nftauction/native/gate"
)

var (
	// ErrAlreadyInitialized is returned when initialization runs twice
	// against the same storage instance.
	ErrAlreadyInitialized = errors.New("upgrade: already initialized")
	// ErrNilLogic is returned when an upgrade supplies no implementation.
	ErrNilLogic = errors.New("upgrade: logic must not be nil")
	// ErrNotInitialized is returned when operations are dispatched before
	// initialization.
	ErrNotInitialized = errors.New("upgrade: not initialized")

	errNilState = errors.New("upgrade: state not configured")
)

// Logic is the versioned interface a replaceable auction implementation must
// satisfy. The persisted store's layout is the real compatibility contract;
// any Logic revision reads and writes the same records.
type Logic interface {
	Version() string
	CreateAuction(seller, itemContract [20]byte, itemID, startPrice *big.Int, startTime, duration int64, asset [20]byte) (uint64, error)
	Bid(bidder [20]byte, auctionID uint64, amount *big.Int, asset [20]byte) error
	EndAuction(cap gate.Capability, auctionID uint64) error
	Auction(id uint64) (*auction.Auction, error)
	NextAuctionID() (uint64, error)
}

// State is the subset of state manager functionality the proxy relies on.
type State interface {
	Initialized() (bool, error)
	SetInitialized() error
	AuctionSetCounter(uint64) error
}

// Proxy separates the stable persisted store from the replaceable logic
// module. Auction records, feed bindings, the admin address, and the id
// counter all live in the store and survive logic swaps unchanged.
type Proxy struct {
	state State
	gate  *gate.Gate

	mu    sync.RWMutex
	logic Logic
}

// NewProxy constructs a proxy over the supplied store and gate.
func NewProxy(state State, g *gate.Gate) *Proxy {
	return &Proxy{state: state, gate: g}
}

// Initialize performs the one-time setup for a fresh storage instance: it
// records the deployer as admin, resets the id counter to 0, and installs the
// initial logic. A second call fails with ErrAlreadyInitialized.
func (p *Proxy) Initialize(deployer [20]byte, logic Logic) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if logic == nil {
		return ErrNilLogic
	}
	done, err := p.state.Initialized()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if err := p.gate.SetAdmin(deployer); err != nil {
		return err
	}
	if err := p.state.AuctionSetCounter(0); err != nil {
		return err
	}
	if err := p.state.SetInitialized(); err != nil {
		return err
	}
	p.mu.Lock()
	p.logic = logic
	p.mu.Unlock()
	return nil
}

// Attach installs logic on an already-initialized store, e.g. when a process
// restarts against existing data.
func (p *Proxy) Attach(logic Logic) error {
	if logic == nil {
		return ErrNilLogic
	}
	done, err := p.state.Initialized()
	if err != nil {
		return err
	}
	if !done {
		return ErrNotInitialized
	}
	p.mu.Lock()
	p.logic = logic
	p.mu.Unlock()
	return nil
}

// Upgrade replaces the executable logic. Admin only; the store is untouched.
func (p *Proxy) Upgrade(cap gate.Capability, next Logic) error {
	if !cap.Valid() {
		return gate.ErrUnauthorized
	}
	if next == nil {
		return ErrNilLogic
	}
	p.mu.Lock()
	p.logic = next
	p.mu.Unlock()
	return nil
}

// Logic returns the currently installed implementation.
func (p *Proxy) Logic() (Logic, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.logic == nil {
		return nil, ErrNotInitialized
	}
	return p.logic, nil
}

// Version reports the installed logic revision, or an empty string before
// initialization.
func (p *Proxy) Version() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.logic == nil {
		return ""
	}
	return p.logic.Version()
}
