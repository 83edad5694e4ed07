package gateway

import (
	"fmt"
	"math/big"
	"sync"
)

// MemoryTokenLedger is an in-memory fungible-asset ledger with ERC-20 style
// transfer and allowance semantics, used by tests and the standalone daemon.
type MemoryTokenLedger struct {
	mu         sync.RWMutex
	balances   map[[20]byte]map[[20]byte]*big.Int            // token -> owner -> balance
	allowances map[[20]byte]map[[20]byte]map[[20]byte]*big.Int // token -> owner -> spender -> amount
}

// NewMemoryTokenLedger constructs an empty token ledger.
func NewMemoryTokenLedger() *MemoryTokenLedger {
	return &MemoryTokenLedger{
		balances:   make(map[[20]byte]map[[20]byte]*big.Int),
		allowances: make(map[[20]byte]map[[20]byte]map[[20]byte]*big.Int),
	}
}

// Mint credits the owner with freshly issued tokens.
func (l *MemoryTokenLedger) Mint(token, owner [20]byte, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(token, owner, amount)
}

// Approve authorizes the spender to pull up to amount from the owner.
func (l *MemoryTokenLedger) Approve(token, owner, spender [20]byte, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[token] == nil {
		l.allowances[token] = make(map[[20]byte]map[[20]byte]*big.Int)
	}
	if l.allowances[token][owner] == nil {
		l.allowances[token][owner] = make(map[[20]byte]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	l.allowances[token][owner][spender] = new(big.Int).Set(amount)
}

func (l *MemoryTokenLedger) BalanceOf(token, owner [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balance(token, owner)), nil
}

func (l *MemoryTokenLedger) Allowance(token, owner, spender [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if byOwner := l.allowances[token]; byOwner != nil {
		if bySpender := byOwner[owner]; bySpender != nil {
			if amount := bySpender[spender]; amount != nil {
				return new(big.Int).Set(amount), nil
			}
		}
	}
	return big.NewInt(0), nil
}

// TransferFrom consumes the spender allowance and moves tokens from the owner.
func (l *MemoryTokenLedger) TransferFrom(token, owner, spender, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token ledger: amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byOwner := l.allowances[token]
	if byOwner == nil || byOwner[owner] == nil || byOwner[owner][spender] == nil {
		return ErrInsufficientAllowance
	}
	allowance := byOwner[owner][spender]
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if l.balance(token, owner).Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	byOwner[owner][spender] = new(big.Int).Sub(allowance, amount)
	l.debit(token, owner, amount)
	l.credit(token, to, amount)
	return nil
}

func (l *MemoryTokenLedger) Transfer(token, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token ledger: amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance(token, from).Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	l.debit(token, from, amount)
	l.credit(token, to, amount)
	return nil
}

func (l *MemoryTokenLedger) balance(token, owner [20]byte) *big.Int {
	if byOwner := l.balances[token]; byOwner != nil {
		if amount := byOwner[owner]; amount != nil {
			return amount
		}
	}
	return big.NewInt(0)
}

func (l *MemoryTokenLedger) credit(token, owner [20]byte, amount *big.Int) {
	if l.balances[token] == nil {
		l.balances[token] = make(map[[20]byte]*big.Int)
	}
	l.balances[token][owner] = new(big.Int).Add(l.balance(token, owner), amount)
}

func (l *MemoryTokenLedger) debit(token, owner [20]byte, amount *big.Int) {
	l.balances[token][owner] = new(big.Int).Sub(l.balance(token, owner), amount)
}

// MemoryNFTLedger is an in-memory non-fungible-asset ledger with ERC-721
// style ownership and per-item approvals.
type MemoryNFTLedger struct {
	mu        sync.RWMutex
	owners    map[[20]byte]map[string][20]byte // contract -> itemID -> owner
	approvals map[[20]byte]map[string][20]byte // contract -> itemID -> approved operator
}

// NewMemoryNFTLedger constructs an empty NFT ledger.
func NewMemoryNFTLedger() *MemoryNFTLedger {
	return &MemoryNFTLedger{
		owners:    make(map[[20]byte]map[string][20]byte),
		approvals: make(map[[20]byte]map[string][20]byte),
	}
}

func itemKey(itemID *big.Int) string {
	if itemID == nil {
		return "0"
	}
	return itemID.String()
}

// Mint assigns a freshly issued item to the owner.
func (l *MemoryNFTLedger) Mint(contract, owner [20]byte, itemID *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[contract] == nil {
		l.owners[contract] = make(map[string][20]byte)
	}
	l.owners[contract][itemKey(itemID)] = owner
}

// Approve authorizes the operator to move the item on the owner's behalf.
func (l *MemoryNFTLedger) Approve(contract, owner, operator [20]byte, itemID *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.ownerLocked(contract, itemID)
	if !ok {
		return fmt.Errorf("nft ledger: item %s does not exist", itemKey(itemID))
	}
	if current != owner {
		return fmt.Errorf("nft ledger: approve caller is not the item owner")
	}
	if l.approvals[contract] == nil {
		l.approvals[contract] = make(map[string][20]byte)
	}
	l.approvals[contract][itemKey(itemID)] = operator
	return nil
}

func (l *MemoryNFTLedger) OwnerOf(contract [20]byte, itemID *big.Int) ([20]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owner, ok := l.ownerLocked(contract, itemID)
	if !ok {
		return [20]byte{}, fmt.Errorf("nft ledger: item %s does not exist", itemKey(itemID))
	}
	return owner, nil
}

func (l *MemoryNFTLedger) Approved(contract [20]byte, itemID *big.Int) ([20]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if byItem := l.approvals[contract]; byItem != nil {
		return byItem[itemKey(itemID)], nil
	}
	return [20]byte{}, nil
}

// TransferFrom moves the item when the operator is the owner or the approved
// operator. The approval is consumed by the transfer.
func (l *MemoryNFTLedger) TransferFrom(contract [20]byte, operator, from, to [20]byte, itemID *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := itemKey(itemID)
	current, ok := l.ownerLocked(contract, itemID)
	if !ok {
		return fmt.Errorf("nft ledger: item %s does not exist", key)
	}
	if current != from {
		return fmt.Errorf("nft ledger: transfer from wrong owner")
	}
	approved := [20]byte{}
	if byItem := l.approvals[contract]; byItem != nil {
		approved = byItem[key]
	}
	if operator != current && operator != approved {
		return fmt.Errorf("nft ledger: operator not approved for item %s", key)
	}
	l.owners[contract][key] = to
	if byItem := l.approvals[contract]; byItem != nil {
		delete(byItem, key)
	}
	return nil
}

func (l *MemoryNFTLedger) ownerLocked(contract [20]byte, itemID *big.Int) ([20]byte, bool) {
	byItem := l.owners[contract]
	if byItem == nil {
		return [20]byte{}, false
	}
	owner, ok := byItem[itemKey(itemID)]
	return owner, ok
}
