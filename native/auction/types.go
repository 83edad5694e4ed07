package auction

import (
	"fmt"
	"math/big"
)

// Status describes where an auction sits in its lifecycle. Pending and Active
// are derived from the clock; Ended is the only persisted transition and is
// one-way.
type Status uint8

const (
	StatusPending Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Auction is one auctioned item. Identity fields are immutable after
// creation; only HighestBid, HighestBidder, and Ended change over the
// record's life, and records are retained forever once ended.
type Auction struct {
	ID            uint64
	ItemContract  [20]byte
	ItemID        *big.Int
	Seller        [20]byte
	StartPrice    *big.Int
	StartTime     int64
	Duration      int64
	Asset         [20]byte
	HighestBid    *big.Int
	HighestBidder [20]byte
	Ended         bool
}

// HasBid reports whether the auction has received at least one accepted bid.
func (a *Auction) HasBid() bool {
	return a != nil && a.HighestBidder != ([20]byte{})
}

// EndTime returns the first instant at which bidding is closed.
func (a *Auction) EndTime() int64 {
	if a == nil {
		return 0
	}
	return a.StartTime + a.Duration
}

// StatusAt derives the lifecycle status at the supplied time.
func (a *Auction) StatusAt(now int64) Status {
	if a == nil {
		return StatusPending
	}
	if a.Ended {
		return StatusEnded
	}
	if now < a.StartTime {
		return StatusPending
	}
	return StatusActive
}

// Clone returns a deep copy of the record.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.ItemID != nil {
		clone.ItemID = new(big.Int).Set(a.ItemID)
	}
	if a.StartPrice != nil {
		clone.StartPrice = new(big.Int).Set(a.StartPrice)
	}
	if a.HighestBid != nil {
		clone.HighestBid = new(big.Int).Set(a.HighestBid)
	}
	return &clone
}

// SanitizeAuction validates structural invariants and normalizes nil big
// integers before a record is persisted or handed to callers.
func SanitizeAuction(a *Auction) (*Auction, error) {
	if a == nil {
		return nil, fmt.Errorf("auction: nil record")
	}
	clone := a.Clone()
	if clone.ItemID == nil {
		clone.ItemID = big.NewInt(0)
	}
	if clone.StartPrice == nil || clone.StartPrice.Sign() <= 0 {
		return nil, fmt.Errorf("auction: start price must be positive")
	}
	if clone.Duration <= 0 {
		return nil, fmt.Errorf("auction: duration must be positive")
	}
	if clone.HighestBid == nil {
		clone.HighestBid = big.NewInt(0)
	}
	if clone.HighestBid.Sign() < 0 {
		return nil, fmt.Errorf("auction: highest bid must not be negative")
	}
	if !clone.HasBid() && clone.HighestBid.Sign() != 0 {
		return nil, fmt.Errorf("auction: highest bid set without a bidder")
	}
	return clone, nil
}
