package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"nftauction/core/types"
	"nftauction/crypto"
)

const (
	TypeAuctionCreated   = "auction.created"
	TypeBidPlaced        = "auction.bid_placed"
	TypeBidRefunded      = "auction.bid_refunded"
	TypeAuctionEnded     = "auction.ended"
	TypePriceFeedUpdated = "oracle.feed_updated"
)

type AuctionCreated struct {
	ID           uint64
	Seller       [20]byte
	ItemContract [20]byte
	ItemID       *big.Int
	StartPrice   *big.Int
	StartTime    int64
	Duration     int64
	Asset        [20]byte
}

func (AuctionCreated) EventType() string { return TypeAuctionCreated }

func (e AuctionCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionCreated,
		Attributes: map[string]string{
			"id":           strconv.FormatUint(e.ID, 10),
			"seller":       crypto.MustNewAddress(e.Seller[:]).String(),
			"itemContract": hex.EncodeToString(e.ItemContract[:]),
			"itemId":       formatAmount(e.ItemID),
			"startPrice":   formatAmount(e.StartPrice),
			"startTime":    intToString(e.StartTime),
			"duration":     intToString(e.Duration),
			"asset":        hex.EncodeToString(e.Asset[:]),
		},
	}
}

type BidPlaced struct {
	AuctionID uint64
	Bidder    [20]byte
	Amount    *big.Int
	Asset     [20]byte
	PlacedAt  int64
}

func (BidPlaced) EventType() string { return TypeBidPlaced }

func (e BidPlaced) Event() *types.Event {
	return &types.Event{
		Type: TypeBidPlaced,
		Attributes: map[string]string{
			"auctionId": strconv.FormatUint(e.AuctionID, 10),
			"bidder":    crypto.MustNewAddress(e.Bidder[:]).String(),
			"amount":    formatAmount(e.Amount),
			"asset":     hex.EncodeToString(e.Asset[:]),
			"placedAt":  intToString(e.PlacedAt),
		},
	}
}

type BidRefunded struct {
	AuctionID uint64
	Bidder    [20]byte
	Amount    *big.Int
	Asset     [20]byte
}

func (BidRefunded) EventType() string { return TypeBidRefunded }

func (e BidRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeBidRefunded,
		Attributes: map[string]string{
			"auctionId": strconv.FormatUint(e.AuctionID, 10),
			"bidder":    crypto.MustNewAddress(e.Bidder[:]).String(),
			"amount":    formatAmount(e.Amount),
			"asset":     hex.EncodeToString(e.Asset[:]),
		},
	}
}

type AuctionEnded struct {
	AuctionID uint64
	Winner    [20]byte
	Amount    *big.Int
	HasWinner bool
	EndedAt   int64
}

func (AuctionEnded) EventType() string { return TypeAuctionEnded }

func (e AuctionEnded) Event() *types.Event {
	attrs := map[string]string{
		"auctionId": strconv.FormatUint(e.AuctionID, 10),
		"hasWinner": strconv.FormatBool(e.HasWinner),
		"endedAt":   intToString(e.EndedAt),
	}
	if e.HasWinner {
		attrs["winner"] = crypto.MustNewAddress(e.Winner[:]).String()
		attrs["amount"] = formatAmount(e.Amount)
	}
	return &types.Event{Type: TypeAuctionEnded, Attributes: attrs}
}

type PriceFeedUpdated struct {
	Asset [20]byte
	Feed  string
}

func (PriceFeedUpdated) EventType() string { return TypePriceFeedUpdated }

func (e PriceFeedUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypePriceFeedUpdated,
		Attributes: map[string]string{
			"asset": hex.EncodeToString(e.Asset[:]),
			"feed":  e.Feed,
		},
	}
}
