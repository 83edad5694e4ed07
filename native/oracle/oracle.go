package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"nftauction/core/events"
	"nftauction/native/gate"
)

var (
	// ErrNoPriceFeed is returned when a price lookup targets an asset with no
	// registered feed binding.
	ErrNoPriceFeed = errors.New("oracle: no price feed for asset")

	errNilState   = errors.New("oracle: state not configured")
	errNoSuchFeed = errors.New("oracle: feed implementation not registered")
)

// PriceFeed resolves the latest normalized price reported by an external
// source. The value carries a fixed decimal exponent so callers can compare
// prices across assets.
type PriceFeed interface {
	LatestPrice() (*big.Int, uint8, error)
}

// State is the subset of state manager functionality the registry relies on.
// Bindings persist across logic upgrades; there is no deletion path, only
// overwrite.
type State interface {
	PriceFeedPut(asset [20]byte, feed string) error
	PriceFeedGet(asset [20]byte) (string, bool, error)
}

// Registry maps settlement assets to named feed implementations. The binding
// (asset -> feed name) is persisted while implementations are registered at
// process start, mirroring how logic is swapped independently of stored
// state.
type Registry struct {
	state   State
	emitter events.Emitter

	mu    sync.RWMutex
	impls map[string]PriceFeed
}

// NewRegistry constructs a registry bound to the supplied state backend.
func NewRegistry(state State) *Registry {
	return &Registry{
		state:   state,
		emitter: events.NoopEmitter{},
		impls:   make(map[string]PriceFeed),
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// Register adds or replaces a feed implementation under the supplied name.
// Names are stored in lowercase so lookups remain consistent regardless of
// configuration casing.
func (r *Registry) Register(name string, feed PriceFeed) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" || feed == nil {
		return
	}
	r.mu.Lock()
	r.impls[trimmed] = feed
	r.mu.Unlock()
}

// SetFeed binds an asset to a named feed. Admin only; an existing binding is
// overwritten.
func (r *Registry) SetFeed(cap gate.Capability, asset [20]byte, feed string) error {
	if !cap.Valid() {
		return gate.ErrUnauthorized
	}
	if r == nil || r.state == nil {
		return errNilState
	}
	trimmed := strings.ToLower(strings.TrimSpace(feed))
	if trimmed == "" {
		return fmt.Errorf("oracle: feed name required")
	}
	if err := r.state.PriceFeedPut(asset, trimmed); err != nil {
		return err
	}
	r.emitter.Emit(events.PriceFeedUpdated{Asset: asset, Feed: trimmed})
	return nil
}

// Feed returns the feed name bound to the asset.
func (r *Registry) Feed(asset [20]byte) (string, bool, error) {
	if r == nil || r.state == nil {
		return "", false, errNilState
	}
	return r.state.PriceFeedGet(asset)
}

// LatestPrice queries the feed bound to the asset. The price is informational
// only; bid admission never consults it.
func (r *Registry) LatestPrice(asset [20]byte) (*big.Int, uint8, error) {
	name, ok, err := r.Feed(asset)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNoPriceFeed
	}
	r.mu.RLock()
	impl := r.impls[name]
	r.mu.RUnlock()
	if impl == nil {
		return nil, 0, fmt.Errorf("%w: %q", errNoSuchFeed, name)
	}
	value, decimals, err := impl.LatestPrice()
	if err != nil {
		return nil, 0, err
	}
	if value == nil || value.Sign() <= 0 {
		return nil, 0, fmt.Errorf("oracle: feed %q returned invalid price", name)
	}
	return new(big.Int).Set(value), decimals, nil
}

// ManualFeed provides an in-memory feed implementation used for tests and
// manual overrides during incident response.
type ManualFeed struct {
	mu       sync.RWMutex
	value    *big.Int
	decimals uint8
}

// NewManualFeed constructs a manual feed reporting prices with the supplied
// decimal exponent.
func NewManualFeed(decimals uint8) *ManualFeed {
	return &ManualFeed{decimals: decimals}
}

// SetPrice records the price subsequently reported by LatestPrice.
func (m *ManualFeed) SetPrice(value *big.Int) error {
	if value == nil || value.Sign() <= 0 {
		return fmt.Errorf("oracle: manual price must be positive")
	}
	m.mu.Lock()
	m.value = new(big.Int).Set(value)
	m.mu.Unlock()
	return nil
}

// LatestPrice returns the most recently stored price.
func (m *ManualFeed) LatestPrice() (*big.Int, uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.value == nil {
		return nil, 0, fmt.Errorf("oracle: manual feed has no price")
	}
	return new(big.Int).Set(m.value), m.decimals, nil
}
