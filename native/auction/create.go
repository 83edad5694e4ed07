package auction

import (
	"math/big"

	"nftauction/core/events"
	"nftauction/native/common"
)

// CreateAuction allocates a new auction record with the next sequential id.
// The seller must currently own the item; custody of the item is not taken at
// creation time. The seller is expected to have approved the custody account
// so settlement can move the item later.
func (e *Engine) CreateAuction(seller, itemContract [20]byte, itemID, startPrice *big.Int, startTime, duration int64, asset [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.gateway == nil {
		return 0, errNilGateway
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if startPrice == nil || startPrice.Sign() <= 0 {
		return 0, ErrInvalidStartPrice
	}
	if duration <= e.minDur {
		return 0, ErrInvalidDuration
	}
	owner, err := e.gateway.OwnerOf(itemContract, itemID)
	if err != nil {
		return 0, ErrNotItemOwner
	}
	if owner != seller {
		return 0, ErrNotItemOwner
	}

	id, err := e.state.AuctionCounter()
	if err != nil {
		return 0, err
	}
	record, err := SanitizeAuction(&Auction{
		ID:           id,
		ItemContract: itemContract,
		ItemID:       itemID,
		Seller:       seller,
		StartPrice:   startPrice,
		StartTime:    startTime,
		Duration:     duration,
		Asset:        asset,
	})
	if err != nil {
		return 0, err
	}
	if err := e.state.AuctionPut(record); err != nil {
		return 0, err
	}
	if err := e.state.AuctionSetCounter(id + 1); err != nil {
		return 0, err
	}

	e.emit(events.AuctionCreated{
		ID:           id,
		Seller:       seller,
		ItemContract: itemContract,
		ItemID:       record.ItemID,
		StartPrice:   record.StartPrice,
		StartTime:    startTime,
		Duration:     duration,
		Asset:        asset,
	}.Event())
	return id, nil
}
