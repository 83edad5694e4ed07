package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"nftauction/crypto"
	"nftauction/native/auction"
	"nftauction/native/gateway"
)

// AuctionResult summarises an auction record for RPC consumers.
type AuctionResult struct {
	ID            uint64 `json:"id"`
	ItemContract  string `json:"itemContract"`
	ItemID        string `json:"itemId"`
	Seller        string `json:"seller"`
	StartPrice    string `json:"startPrice"`
	StartTime     int64  `json:"startTime"`
	Duration      int64  `json:"duration"`
	Asset         string `json:"asset"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	Ended         bool   `json:"ended"`
	Status        string `json:"status"`
}

// PriceResult carries an oracle quote.
type PriceResult struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

func formatAuction(record *auction.Auction, now int64) AuctionResult {
	result := AuctionResult{
		ID:           record.ID,
		ItemContract: formatAsset(record.ItemContract),
		ItemID:       record.ItemID.String(),
		Seller:       crypto.MustNewAddress(record.Seller[:]).String(),
		StartPrice:   record.StartPrice.String(),
		StartTime:    record.StartTime,
		Duration:     record.Duration,
		Asset:        formatAsset(record.Asset),
		HighestBid:   record.HighestBid.String(),
		Ended:        record.Ended,
		Status:       record.StatusAt(now).String(),
	}
	if record.HasBid() {
		result.HighestBidder = crypto.MustNewAddress(record.HighestBidder[:]).String()
	}
	return result
}

func formatAsset(asset [20]byte) string {
	if asset == gateway.NativeAsset {
		return "native"
	}
	return "0x" + hex.EncodeToString(asset[:])
}

func parseAddressParam(field, value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr.Array(), nil
}

// parseAssetParam resolves "native" (or empty) to the native sentinel and
// anything else to a 20-byte hex contract address.
func parseAssetParam(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" || trimmed == "native" {
		return gateway.NativeAsset, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: invalid hex address: %w", field, err)
	}
	if len(raw) != 20 {
		return [20]byte{}, fmt.Errorf("%s: address must be 20 bytes", field)
	}
	var out [20]byte
	copy(out[:], raw)
	return out, nil
}

func parseAmountParam(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: amount required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s: amount must not be negative", field)
	}
	return amount, nil
}
