package auction

import (
	"fmt"

	"nftauction/core/events"
	"nftauction/native/common"
	"nftauction/native/gate"
)

// EndAuction closes the auction once the bidding window has elapsed. With a
// winning bid the item moves from the seller to the winner and the settlement
// funds move from custody to the seller; with no bids only the ended flag
// transitions. Closing is admin-gated and happens at most once per record.
func (e *Engine) EndAuction(cap gate.Capability, auctionID uint64) error {
	if !cap.Valid() {
		return gate.ErrUnauthorized
	}
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.gateway == nil {
		return errNilGateway
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	record, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if record.Ended {
		return ErrAuctionNotEnded
	}
	now := e.now()
	if now < record.EndTime() {
		return ErrAuctionNotEnded
	}

	if record.HasBid() {
		// Item first: the custody approval can have been revoked since
		// creation, and a failed item transfer must leave the funds in
		// custody untouched. The outbound fund transfer cannot fail
		// afterwards because custody always holds the standing highest bid.
		if err := e.gateway.TransferItem(record.ItemContract, record.Seller, record.HighestBidder, record.ItemID); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		settle := e.gateway.Settlement(record.Asset)
		if err := settle.TransferOut(record.Seller, record.HighestBid); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	record.Ended = true
	if err := e.state.AuctionPut(record); err != nil {
		return err
	}

	e.emit(events.AuctionEnded{
		AuctionID: auctionID,
		Winner:    record.HighestBidder,
		Amount:    record.HighestBid,
		HasWinner: record.HasBid(),
		EndedAt:   now,
	}.Event())
	return nil
}
