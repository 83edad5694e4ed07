package auction

import (
	"fmt"
	"math/big"

	"nftauction/core/events"
	"nftauction/native/common"
)

// Bid admits a bid against the auction. The bid must strictly exceed the
// standing highest bid, or the start price when no bid exists; equal bids are
// rejected. On acceptance the new bid moves into custody and the displaced
// bidder is refunded in full within the same operation.
func (e *Engine) Bid(bidder [20]byte, auctionID uint64, amount *big.Int, asset [20]byte) error {
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
		return ErrAuctionEnded
	}
	now := e.now()
	if now < record.StartTime {
		return ErrAuctionNotStarted
	}
	if now >= record.EndTime() {
		return ErrAuctionEnded
	}
	if asset != record.Asset {
		return ErrAssetMismatch
	}
	floor := record.StartPrice
	if record.HasBid() {
		floor = record.HighestBid
	}
	if amount == nil || amount.Cmp(floor) <= 0 {
		return ErrBidTooLow
	}

	settle := e.gateway.Settlement(record.Asset)
	if err := settle.TransferIn(bidder, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	prevBidder := record.HighestBidder
	prevBid := record.HighestBid
	if record.HasBid() {
		if err := settle.TransferOut(prevBidder, prevBid); err != nil {
			// Unwind the incoming transfer so a failed refund leaves no
			// partial state behind.
			_ = settle.TransferOut(bidder, amount)
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	record.HighestBid = new(big.Int).Set(amount)
	record.HighestBidder = bidder
	if err := e.state.AuctionPut(record); err != nil {
		return err
	}

	if prevBidder != ([20]byte{}) {
		e.emit(events.BidRefunded{
			AuctionID: auctionID,
			Bidder:    prevBidder,
			Amount:    prevBid,
			Asset:     record.Asset,
		}.Event())
	}
	e.emit(events.BidPlaced{
		AuctionID: auctionID,
		Bidder:    bidder,
		Amount:    record.HighestBid,
		Asset:     record.Asset,
		PlacedAt:  now,
	}.Event())
	return nil
}
