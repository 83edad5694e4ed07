package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"nftauction/core/types"
	"nftauction/native/auction"
	"nftauction/storage"
)

var (
	auctionRecordPrefix = []byte("auction/record/")
	auctionCounterKey   = []byte("auction/counter")
	initializedKey      = []byte("auction/initialized")
	adminKey            = []byte("auction/admin")
	priceFeedPrefix     = []byte("oracle/feed/")
	accountPrefix       = []byte("account/")
)

// Manager persists auction state in a key-value store. It backs every engine
// state interface (auction, gate, oracle, gateway accounts, upgrade) so the
// whole persisted layout lives in one place; that layout is the compatibility
// contract logic upgrades must respect.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func auctionRecordKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(append([]byte{}, auctionRecordPrefix...), buf[:]...)
}

func priceFeedKey(asset [20]byte) []byte {
	return append(append([]byte{}, priceFeedPrefix...), asset[:]...)
}

func accountKey(addr []byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

// storedAuction mirrors auction.Auction with RLP-friendly field types.
type storedAuction struct {
	ID            uint64
	ItemContract  [20]byte
	ItemID        *big.Int
	Seller        [20]byte
	StartPrice    *big.Int
	StartTime     uint64
	Duration      uint64
	Asset         [20]byte
	HighestBid    *big.Int
	HighestBidder [20]byte
	Ended         bool
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// AuctionPut writes an auction record. Records are append-only at the table
// level: ids are never reused and entries are never deleted.
func (m *Manager) AuctionPut(record *auction.Auction) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	sanitized, err := auction.SanitizeAuction(record)
	if err != nil {
		return err
	}
	stored := &storedAuction{
		ID:            sanitized.ID,
		ItemContract:  sanitized.ItemContract,
		ItemID:        sanitized.ItemID,
		Seller:        sanitized.Seller,
		StartPrice:    sanitized.StartPrice,
		StartTime:     uint64(sanitized.StartTime),
		Duration:      uint64(sanitized.Duration),
		Asset:         sanitized.Asset,
		HighestBid:    sanitized.HighestBid,
		HighestBidder: sanitized.HighestBidder,
		Ended:         sanitized.Ended,
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode auction %d: %w", sanitized.ID, err)
	}
	return m.db.Put(auctionRecordKey(sanitized.ID), encoded)
}

// AuctionGet loads an auction record by id.
func (m *Manager) AuctionGet(id uint64) (*auction.Auction, bool, error) {
	raw, err := m.db.Get(auctionRecordKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedAuction
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode auction %d: %w", id, err)
	}
	return &auction.Auction{
		ID:            stored.ID,
		ItemContract:  stored.ItemContract,
		ItemID:        stored.ItemID,
		Seller:        stored.Seller,
		StartPrice:    stored.StartPrice,
		StartTime:     int64(stored.StartTime),
		Duration:      int64(stored.Duration),
		Asset:         stored.Asset,
		HighestBid:    stored.HighestBid,
		HighestBidder: stored.HighestBidder,
		Ended:         stored.Ended,
	}, true, nil
}

// AuctionCounter returns the next id to be assigned, starting at 0.
func (m *Manager) AuctionCounter() (uint64, error) {
	raw, err := m.db.Get(auctionCounterKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var counter uint64
	if err := rlp.DecodeBytes(raw, &counter); err != nil {
		return 0, fmt.Errorf("state: decode auction counter: %w", err)
	}
	return counter, nil
}

// AuctionSetCounter stores the next id to be assigned.
func (m *Manager) AuctionSetCounter(next uint64) error {
	encoded, err := rlp.EncodeToBytes(next)
	if err != nil {
		return err
	}
	return m.db.Put(auctionCounterKey, encoded)
}

// Initialized reports whether one-time setup has run on this store.
func (m *Manager) Initialized() (bool, error) {
	return m.db.Has(initializedKey)
}

// SetInitialized marks the store as set up.
func (m *Manager) SetInitialized() error {
	return m.db.Put(initializedKey, []byte{1})
}

// AdminGet loads the admin address.
func (m *Manager) AdminGet() ([20]byte, bool, error) {
	raw, err := m.db.Get(adminKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return [20]byte{}, false, nil
	}
	if err != nil {
		return [20]byte{}, false, err
	}
	if len(raw) != 20 {
		return [20]byte{}, false, fmt.Errorf("state: malformed admin address")
	}
	var admin [20]byte
	copy(admin[:], raw)
	return admin, true, nil
}

// AdminPut stores the admin address.
func (m *Manager) AdminPut(admin [20]byte) error {
	return m.db.Put(adminKey, admin[:])
}

// PriceFeedPut binds an asset to a feed name, overwriting any prior binding.
func (m *Manager) PriceFeedPut(asset [20]byte, feed string) error {
	return m.db.Put(priceFeedKey(asset), []byte(feed))
}

// PriceFeedGet loads the feed name bound to an asset.
func (m *Manager) PriceFeedGet(asset [20]byte) (string, bool, error) {
	raw, err := m.db.Get(priceFeedKey(asset))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// GetAccount loads the native-balance account for an address. Unknown
// addresses resolve to an empty account.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return (&types.Account{Nonce: stored.Nonce, Balance: stored.Balance}).EnsureBalances(), nil
}

// PutAccount stores the native-balance account for an address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	account = account.EnsureBalances()
	encoded, err := rlp.EncodeToBytes(&storedAccount{Nonce: account.Nonce, Balance: account.Balance})
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), encoded)
}
