package auction

import "errors"

var (
	// ErrNotFound is returned when the auction id is unknown.
	ErrNotFound = errors.New("auction: not found")
	// ErrNotItemOwner is returned when the seller does not own the item at
	// creation time.
	ErrNotItemOwner = errors.New("auction: caller is not the owner of this item")
	// ErrInvalidDuration is returned when the bidding window is too short.
	ErrInvalidDuration = errors.New("auction: duration must be greater than the minimum window")
	// ErrInvalidStartPrice is returned when the opening price is not positive.
	ErrInvalidStartPrice = errors.New("auction: start price must be greater than 0")
	// ErrAssetMismatch is returned when a bid names a settlement asset other
	// than the one configured on the record.
	ErrAssetMismatch = errors.New("auction: settlement asset does not match the auction")
	// ErrAuctionNotStarted is returned for bids before the window opens.
	ErrAuctionNotStarted = errors.New("auction: auction has not started")
	// ErrAuctionEnded is returned for bids after the window closes.
	ErrAuctionEnded = errors.New("auction: auction has ended")
	// ErrBidTooLow is returned when the bid does not strictly exceed the
	// standing highest bid, or the start price when no bid exists.
	ErrBidTooLow = errors.New("auction: bid price is too low")
	// ErrAuctionNotEnded is returned when closing is attempted before the
	// window elapses or after the auction already ended.
	ErrAuctionNotEnded = errors.New("auction: auction is not ready to end")
	// ErrTransferFailed is returned when an underlying asset movement fails.
	// The whole operation aborts with no state mutation.
	ErrTransferFailed = errors.New("auction: transfer failed")

	errNilState   = errors.New("auction: state not configured")
	errNilGateway = errors.New("auction: gateway not configured")
)
