package auction

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"nftauction/core/events"
	"nftauction/core/types"
	"nftauction/native/common"
	"nftauction/native/gate"
	"nftauction/native/gateway"
)

type mockState struct {
	auctions map[uint64]*Auction
	counter  uint64
	accounts map[[20]byte]*types.Account
	admin    [20]byte
	adminSet bool
}

func newMockState() *mockState {
	return &mockState{
		auctions: make(map[uint64]*Auction),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) AuctionPut(record *Auction) error {
	sanitized, err := SanitizeAuction(record)
	if err != nil {
		return err
	}
	m.auctions[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) AuctionGet(id uint64) (*Auction, bool, error) {
	record, ok := m.auctions[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) AuctionCounter() (uint64, error) { return m.counter, nil }

func (m *mockState) AuctionSetCounter(next uint64) error {
	m.counter = next
	return nil
}

func (m *mockState) AdminGet() ([20]byte, bool, error) { return m.admin, m.adminSet, nil }

func (m *mockState) AdminPut(addr [20]byte) error {
	m.admin = addr
	m.adminSet = true
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	if account, ok := m.accounts[key]; ok {
		return account.Clone(), nil
	}
	return &types.Account{Balance: big.NewInt(0)}, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = account.Clone().EnsureBalances()
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func (c *captureEmitter) eventTypes() []string {
	out := make([]string, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType())
	}
	return out
}

type stubPauses map[string]bool

func (p stubPauses) IsPaused(module string) bool { return p[module] }

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func amt(s string) *big.Int {
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid amount: " + s)
	}
	return value
}

type fixture struct {
	state   *mockState
	tokens  *gateway.MemoryTokenLedger
	nfts    *gateway.MemoryNFTLedger
	gw      *gateway.Gateway
	gate    *gate.Gate
	engine  *Engine
	emitted *captureEmitter
	now     int64

	admin        [20]byte
	seller       [20]byte
	itemContract [20]byte
	itemID       *big.Int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		state:        newMockState(),
		tokens:       gateway.NewMemoryTokenLedger(),
		nfts:         gateway.NewMemoryNFTLedger(),
		emitted:      &captureEmitter{},
		now:          1_000,
		admin:        newTestAddress(0xAD),
		seller:       newTestAddress(0x5E),
		itemContract: newTestAddress(0xC0),
		itemID:       big.NewInt(1),
	}
	f.gw = gateway.New(f.state, f.tokens, f.nfts, CustodyAddress)
	f.gate = gate.New(f.state)
	if err := f.gate.SetAdmin(f.admin); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetGateway(f.gw)
	f.engine.SetEmitter(f.emitted)
	f.engine.SetNowFunc(func() int64 { return f.now })

	f.nfts.Mint(f.itemContract, f.seller, f.itemID)
	if err := f.nfts.Approve(f.itemContract, f.seller, CustodyAddress, f.itemID); err != nil {
		t.Fatalf("approve custody: %v", err)
	}
	return f
}

func (f *fixture) fund(addr [20]byte, amount *big.Int) {
	f.state.accounts[addr] = &types.Account{Balance: new(big.Int).Set(amount)}
}

func (f *fixture) balance(t *testing.T, addr [20]byte) *big.Int {
	t.Helper()
	account, err := f.state.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return account.Balance
}

func (f *fixture) capability(t *testing.T) gate.Capability {
	t.Helper()
	cap, err := f.gate.Authorize(f.admin)
	if err != nil {
		t.Fatalf("authorize admin: %v", err)
	}
	return cap
}

func (f *fixture) create(t *testing.T, startPrice *big.Int, startTime, duration int64, asset [20]byte) uint64 {
	t.Helper()
	id, err := f.engine.CreateAuction(f.seller, f.itemContract, f.itemID, startPrice, startTime, duration, asset)
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}
	return id
}

func TestCreateAuctionValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.CreateAuction(f.seller, f.itemContract, f.itemID, big.NewInt(0), f.now, 60, gateway.NativeAsset); !errors.Is(err, ErrInvalidStartPrice) {
		t.Fatalf("zero start price: got %v, want %v", err, ErrInvalidStartPrice)
	}
	if _, err := f.engine.CreateAuction(f.seller, f.itemContract, f.itemID, nil, f.now, 60, gateway.NativeAsset); !errors.Is(err, ErrInvalidStartPrice) {
		t.Fatalf("nil start price: got %v, want %v", err, ErrInvalidStartPrice)
	}
	if _, err := f.engine.CreateAuction(f.seller, f.itemContract, f.itemID, big.NewInt(100), f.now, 10, gateway.NativeAsset); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("duration at minimum: got %v, want %v", err, ErrInvalidDuration)
	}
	stranger := newTestAddress(0x99)
	if _, err := f.engine.CreateAuction(stranger, f.itemContract, f.itemID, big.NewInt(100), f.now, 60, gateway.NativeAsset); !errors.Is(err, ErrNotItemOwner) {
		t.Fatalf("non-owner seller: got %v, want %v", err, ErrNotItemOwner)
	}
	if _, err := f.engine.CreateAuction(f.seller, f.itemContract, big.NewInt(404), big.NewInt(100), f.now, 60, gateway.NativeAsset); !errors.Is(err, ErrNotItemOwner) {
		t.Fatalf("unknown item: got %v, want %v", err, ErrNotItemOwner)
	}
	if f.state.counter != 0 {
		t.Fatalf("counter advanced on failed creation: %d", f.state.counter)
	}
}

func TestCreateAuctionAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)
	if first != 0 {
		t.Fatalf("first id: got %d, want 0", first)
	}

	second := big.NewInt(2)
	f.nfts.Mint(f.itemContract, f.seller, second)
	id, err := f.engine.CreateAuction(f.seller, f.itemContract, second, big.NewInt(100), f.now, 60, gateway.NativeAsset)
	if err != nil {
		t.Fatalf("create second auction: %v", err)
	}
	if id != 1 {
		t.Fatalf("second id: got %d, want 1", id)
	}
	next, err := f.engine.NextAuctionID()
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if next != 2 {
		t.Fatalf("next id: got %d, want 2", next)
	}

	record, err := f.engine.Auction(first)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if record.Seller != f.seller || record.StartPrice.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.HasBid() {
		t.Fatal("fresh auction reports a bid")
	}
}

func TestBidRefundsDisplacedBidder(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, amt("10000000000000000"), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	f.fund(alice, amt("5000000000000000000"))
	f.fund(bob, amt("5000000000000000000"))
	f.fund(carol, amt("5000000000000000000"))

	if err := f.engine.Bid(alice, id, amt("1000000000000000000"), gateway.NativeAsset); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if err := f.engine.Bid(bob, id, amt("1500000000000000000"), gateway.NativeAsset); err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if err := f.engine.Bid(carol, id, amt("2000000000000000000"), gateway.NativeAsset); err != nil {
		t.Fatalf("third bid: %v", err)
	}

	// Displaced bidders are made whole; only the standing bid sits in custody.
	if got := f.balance(t, alice); got.Cmp(amt("5000000000000000000")) != 0 {
		t.Fatalf("alice balance: got %s", got)
	}
	if got := f.balance(t, bob); got.Cmp(amt("5000000000000000000")) != 0 {
		t.Fatalf("bob balance: got %s", got)
	}
	if got := f.balance(t, carol); got.Cmp(amt("3000000000000000000")) != 0 {
		t.Fatalf("carol balance: got %s", got)
	}
	if got := f.balance(t, CustodyAddress); got.Cmp(amt("2000000000000000000")) != 0 {
		t.Fatalf("custody balance: got %s", got)
	}

	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if record.HighestBidder != carol {
		t.Fatal("highest bidder not updated")
	}
	if record.HighestBid.Cmp(amt("2000000000000000000")) != 0 {
		t.Fatalf("highest bid: got %s", record.HighestBid)
	}

	want := []string{
		events.TypeAuctionCreated,
		events.TypeBidPlaced,
		events.TypeBidRefunded, events.TypeBidPlaced,
		events.TypeBidRefunded, events.TypeBidPlaced,
	}
	got := f.emitted.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("event count: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBidRejectsTooLow(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, amt("1000000000000000000"), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	f.fund(alice, amt("5000000000000000000"))
	f.fund(bob, amt("5000000000000000000"))

	// The floor is the start price before the first bid; equal is not enough.
	if err := f.engine.Bid(alice, id, amt("1000000000000000000"), gateway.NativeAsset); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("bid at start price: got %v, want %v", err, ErrBidTooLow)
	}
	if err := f.engine.Bid(alice, id, amt("1500000000000000000"), gateway.NativeAsset); err != nil {
		t.Fatalf("opening bid: %v", err)
	}
	if err := f.engine.Bid(bob, id, amt("1200000000000000000"), gateway.NativeAsset); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("bid below standing: got %v, want %v", err, ErrBidTooLow)
	}
	if err := f.engine.Bid(bob, id, amt("1500000000000000000"), gateway.NativeAsset); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("bid equal to standing: got %v, want %v", err, ErrBidTooLow)
	}

	// Rejected bids leave balances untouched.
	if got := f.balance(t, bob); got.Cmp(amt("5000000000000000000")) != 0 {
		t.Fatalf("bob balance after rejections: got %s", got)
	}
	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if record.HighestBidder != alice || record.HighestBid.Cmp(amt("1500000000000000000")) != 0 {
		t.Fatalf("standing bid changed: %+v", record)
	}
}

func TestBidWindow(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), 2_000, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(10_000))

	f.now = 1_999
	if err := f.engine.Bid(alice, id, big.NewInt(200), gateway.NativeAsset); !errors.Is(err, ErrAuctionNotStarted) {
		t.Fatalf("bid before start: got %v, want %v", err, ErrAuctionNotStarted)
	}

	f.now = 2_000
	if err := f.engine.Bid(alice, id, big.NewInt(200), gateway.NativeAsset); err != nil {
		t.Fatalf("bid at start: %v", err)
	}

	bob := newTestAddress(0xB2)
	f.fund(bob, big.NewInt(10_000))
	f.now = 2_060
	if err := f.engine.Bid(bob, id, big.NewInt(300), gateway.NativeAsset); !errors.Is(err, ErrAuctionEnded) {
		t.Fatalf("bid at end instant: got %v, want %v", err, ErrAuctionEnded)
	}
}

func TestBidRejectsMismatchedAsset(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(10_000))
	token := newTestAddress(0x70)
	if err := f.engine.Bid(alice, id, big.NewInt(200), token); !errors.Is(err, ErrAssetMismatch) {
		t.Fatalf("mismatched asset: got %v, want %v", err, ErrAssetMismatch)
	}
}

func TestBidUnknownAuction(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0xA1)
	if err := f.engine.Bid(alice, 42, big.NewInt(200), gateway.NativeAsset); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown auction: got %v, want %v", err, ErrNotFound)
	}
}

func TestBidInsufficientFundsLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(150))
	if err := f.engine.Bid(alice, id, big.NewInt(200), gateway.NativeAsset); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("underfunded bid: got %v, want %v", err, ErrTransferFailed)
	}
	if got := f.balance(t, alice); got.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("alice balance mutated: got %s", got)
	}
	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if record.HasBid() {
		t.Fatal("failed bid recorded")
	}
}

func TestBidTokenSettlement(t *testing.T) {
	f := newFixture(t)
	token := newTestAddress(0x70)
	id := f.create(t, big.NewInt(100), f.now, 60, token)

	alice := newTestAddress(0xA1)
	f.tokens.Mint(token, alice, big.NewInt(1_000))

	// No allowance yet.
	if err := f.engine.Bid(alice, id, big.NewInt(200), token); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("bid without allowance: got %v, want %v", err, ErrTransferFailed)
	}

	f.tokens.Approve(token, alice, CustodyAddress, big.NewInt(500))
	if err := f.engine.Bid(alice, id, big.NewInt(200), token); err != nil {
		t.Fatalf("token bid: %v", err)
	}
	custodyBalance, err := f.tokens.BalanceOf(token, CustodyAddress)
	if err != nil {
		t.Fatalf("custody balance: %v", err)
	}
	if custodyBalance.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("custody token balance: got %s", custodyBalance)
	}

	bob := newTestAddress(0xB2)
	f.tokens.Mint(token, bob, big.NewInt(1_000))
	f.tokens.Approve(token, bob, CustodyAddress, big.NewInt(1_000))
	if err := f.engine.Bid(bob, id, big.NewInt(300), token); err != nil {
		t.Fatalf("outbid: %v", err)
	}
	aliceBalance, err := f.tokens.BalanceOf(token, alice)
	if err != nil {
		t.Fatalf("alice balance: %v", err)
	}
	if aliceBalance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("alice not refunded: got %s", aliceBalance)
	}

	f.now += 60
	if err := f.engine.EndAuction(f.capability(t), id); err != nil {
		t.Fatalf("end auction: %v", err)
	}
	sellerBalance, err := f.tokens.BalanceOf(token, f.seller)
	if err != nil {
		t.Fatalf("seller balance: %v", err)
	}
	if sellerBalance.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("seller proceeds: got %s", sellerBalance)
	}
	owner, err := f.nfts.OwnerOf(f.itemContract, f.itemID)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != bob {
		t.Fatal("item not transferred to winner")
	}
}

func TestEndAuctionSettlesWinner(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(10_000))
	if err := f.engine.Bid(alice, id, big.NewInt(500), gateway.NativeAsset); err != nil {
		t.Fatalf("bid: %v", err)
	}

	cap := f.capability(t)
	if err := f.engine.EndAuction(cap, id); !errors.Is(err, ErrAuctionNotEnded) {
		t.Fatalf("end before window elapses: got %v, want %v", err, ErrAuctionNotEnded)
	}

	f.now += 60
	if err := f.engine.EndAuction(cap, id); err != nil {
		t.Fatalf("end auction: %v", err)
	}

	if got := f.balance(t, f.seller); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("seller proceeds: got %s", got)
	}
	if got := f.balance(t, CustodyAddress); got.Sign() != 0 {
		t.Fatalf("custody drained: got %s", got)
	}
	owner, err := f.nfts.OwnerOf(f.itemContract, f.itemID)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != alice {
		t.Fatal("item not transferred to winner")
	}
	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if !record.Ended || record.StatusAt(f.now) != StatusEnded {
		t.Fatalf("record not ended: %+v", record)
	}

	if err := f.engine.EndAuction(cap, id); !errors.Is(err, ErrAuctionNotEnded) {
		t.Fatalf("double end: got %v, want %v", err, ErrAuctionNotEnded)
	}
	if err := f.engine.Bid(alice, id, big.NewInt(600), gateway.NativeAsset); !errors.Is(err, ErrAuctionEnded) {
		t.Fatalf("bid after close: got %v, want %v", err, ErrAuctionEnded)
	}
}

func TestEndAuctionWithoutBids(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	f.now += 60
	if err := f.engine.EndAuction(f.capability(t), id); err != nil {
		t.Fatalf("end auction: %v", err)
	}
	owner, err := f.nfts.OwnerOf(f.itemContract, f.itemID)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != f.seller {
		t.Fatal("item moved despite no bids")
	}
	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if !record.Ended {
		t.Fatal("record not marked ended")
	}
}

func TestEndAuctionRequiresCapability(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)
	f.now += 60

	if err := f.engine.EndAuction(gate.Capability{}, id); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("zero capability: got %v, want %v", err, gate.ErrUnauthorized)
	}
	stranger := newTestAddress(0x99)
	if _, err := f.gate.Authorize(stranger); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("authorize stranger: got %v, want %v", err, gate.ErrUnauthorized)
	}
}

func TestEndAuctionRevokedApprovalKeepsCustody(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(10_000))
	if err := f.engine.Bid(alice, id, big.NewInt(500), gateway.NativeAsset); err != nil {
		t.Fatalf("bid: %v", err)
	}

	// Seller hands the approval to someone else before close.
	if err := f.nfts.Approve(f.itemContract, f.seller, newTestAddress(0x99), f.itemID); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	f.now += 60
	if err := f.engine.EndAuction(f.capability(t), id); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("end with revoked approval: got %v, want %v", err, ErrTransferFailed)
	}

	// Funds stay in custody and the record stays open for a retry.
	if got := f.balance(t, CustodyAddress); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("custody balance: got %s", got)
	}
	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	if record.Ended {
		t.Fatal("record ended despite failed settlement")
	}

	if err := f.nfts.Approve(f.itemContract, f.seller, CustodyAddress, f.itemID); err != nil {
		t.Fatalf("restore approval: %v", err)
	}
	if err := f.engine.EndAuction(f.capability(t), id); err != nil {
		t.Fatalf("retry end: %v", err)
	}
	if got := f.balance(t, f.seller); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("seller proceeds after retry: got %s", got)
	}
}

func TestPauseBlocksMutations(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)
	f.engine.SetPauses(stubPauses{moduleName: true})

	if _, err := f.engine.CreateAuction(f.seller, f.itemContract, f.itemID, big.NewInt(100), f.now, 60, gateway.NativeAsset); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("create while paused: got %v, want %v", err, common.ErrModulePaused)
	}
	alice := newTestAddress(0xA1)
	f.fund(alice, big.NewInt(10_000))
	if err := f.engine.Bid(alice, id, big.NewInt(200), gateway.NativeAsset); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("bid while paused: got %v, want %v", err, common.ErrModulePaused)
	}
	f.now += 60
	if err := f.engine.EndAuction(f.capability(t), id); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("end while paused: got %v, want %v", err, common.ErrModulePaused)
	}
}

func TestAuctionReturnsClone(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, big.NewInt(100), f.now, 60, gateway.NativeAsset)

	record, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("load auction: %v", err)
	}
	record.StartPrice.SetInt64(1)
	record.Ended = true

	reloaded, err := f.engine.Auction(id)
	if err != nil {
		t.Fatalf("reload auction: %v", err)
	}
	if reloaded.StartPrice.Cmp(big.NewInt(100)) != 0 || reloaded.Ended {
		t.Fatal("mutating a returned record leaked into state")
	}
}
