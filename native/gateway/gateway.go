package gateway

import (
	"errors"
	"fmt"
	"math/big"

	"nftauction/core/types"
)

var (
	// ErrTransferFailed is returned when any asset movement cannot complete.
	// Transfers are all-or-nothing; a failed transfer leaves balances
	// untouched.
	ErrTransferFailed = errors.New("gateway: transfer failed")
	// ErrInsufficientFunds signals that the payer balance does not cover the
	// requested amount.
	ErrInsufficientFunds = errors.New("gateway: insufficient funds")
	// ErrInsufficientAllowance signals that the custody account is not
	// approved to pull the requested token amount.
	ErrInsufficientAllowance = errors.New("gateway: insufficient allowance")

	errNilAccounts = errors.New("gateway: account store not configured")
	errNilTokens   = errors.New("gateway: token ledger not configured")
	errNilNFTs     = errors.New("gateway: nft ledger not configured")
)

// NativeAsset is the sentinel asset address selecting native settlement.
var NativeAsset = [20]byte{}

// AccountStore exposes the native balance ledger maintained by the state
// manager.
type AccountStore interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// TokenLedger is the boundary to the fungible-asset ledger, keyed by token
// contract address.
type TokenLedger interface {
	BalanceOf(token, owner [20]byte) (*big.Int, error)
	Allowance(token, owner, spender [20]byte) (*big.Int, error)
	TransferFrom(token, owner, spender, to [20]byte, amount *big.Int) error
	Transfer(token, from, to [20]byte, amount *big.Int) error
}

// NFTLedger is the boundary to the non-fungible-asset ledger.
type NFTLedger interface {
	OwnerOf(contract [20]byte, itemID *big.Int) ([20]byte, error)
	Approved(contract [20]byte, itemID *big.Int) ([20]byte, error)
	TransferFrom(contract [20]byte, operator, from, to [20]byte, itemID *big.Int) error
}

// Settlement moves settlement funds between a counterparty and the custody
// account. One implementation exists per asset kind; the record's asset
// selects the implementation at auction creation time.
type Settlement interface {
	Asset() [20]byte
	TransferIn(from [20]byte, amount *big.Int) error
	TransferOut(to [20]byte, amount *big.Int) error
}

// Gateway abstracts asset movement uniformly across the native settlement
// asset, fungible-token assets, and NFT custody transfer.
type Gateway struct {
	accounts AccountStore
	tokens   TokenLedger
	nfts     NFTLedger
	custody  [20]byte
}

// New constructs a gateway with the supplied ledgers. Custody is the address
// that temporarily holds funds pending refund or final settlement.
func New(accounts AccountStore, tokens TokenLedger, nfts NFTLedger, custody [20]byte) *Gateway {
	return &Gateway{accounts: accounts, tokens: tokens, nfts: nfts, custody: custody}
}

// Custody returns the custody account address.
func (g *Gateway) Custody() [20]byte { return g.custody }

// Settlement returns the settlement implementation for the asset: native when
// the asset is the zero sentinel, token otherwise.
func (g *Gateway) Settlement(asset [20]byte) Settlement {
	if asset == NativeAsset {
		return &nativeSettlement{accounts: g.accounts, custody: g.custody}
	}
	return &tokenSettlement{tokens: g.tokens, token: asset, custody: g.custody}
}

// OwnerOf reports the current owner of an item.
func (g *Gateway) OwnerOf(contract [20]byte, itemID *big.Int) ([20]byte, error) {
	if g == nil || g.nfts == nil {
		return [20]byte{}, errNilNFTs
	}
	return g.nfts.OwnerOf(contract, itemID)
}

// TransferItem moves the item from the seller to the recipient using the
// custody account as the approved operator. Custody of the item is deferred
// to settlement time; the seller must have pre-approved the custody account.
func (g *Gateway) TransferItem(contract [20]byte, from, to [20]byte, itemID *big.Int) error {
	if g == nil || g.nfts == nil {
		return errNilNFTs
	}
	if err := g.nfts.TransferFrom(contract, g.custody, from, to, itemID); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

type nativeSettlement struct {
	accounts AccountStore
	custody  [20]byte
}

func (s *nativeSettlement) Asset() [20]byte { return NativeAsset }

func (s *nativeSettlement) TransferIn(from [20]byte, amount *big.Int) error {
	return s.move(from, s.custody, amount)
}

func (s *nativeSettlement) TransferOut(to [20]byte, amount *big.Int) error {
	return s.move(s.custody, to, amount)
}

// move debits and credits in one step; the balance check precedes any
// mutation so a failure leaves both accounts untouched.
func (s *nativeSettlement) move(from, to [20]byte, amount *big.Int) error {
	if s == nil || s.accounts == nil {
		return errNilAccounts
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrTransferFailed)
	}
	payer, err := s.accounts.GetAccount(from[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	payer = payer.EnsureBalances()
	if payer.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %v", ErrTransferFailed, ErrInsufficientFunds)
	}
	payee, err := s.accounts.GetAccount(to[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	payee = payee.EnsureBalances()
	payer.Balance = new(big.Int).Sub(payer.Balance, amount)
	payee.Balance = new(big.Int).Add(payee.Balance, amount)
	if err := s.accounts.PutAccount(from[:], payer); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := s.accounts.PutAccount(to[:], payee); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

type tokenSettlement struct {
	tokens  TokenLedger
	token   [20]byte
	custody [20]byte
}

func (s *tokenSettlement) Asset() [20]byte { return s.token }

// TransferIn pulls tokens from the bidder into custody. The bidder must have
// approved the custody account for at least the bid amount.
func (s *tokenSettlement) TransferIn(from [20]byte, amount *big.Int) error {
	if s == nil || s.tokens == nil {
		return errNilTokens
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrTransferFailed)
	}
	allowance, err := s.tokens.Allowance(s.token, from, s.custody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %v", ErrTransferFailed, ErrInsufficientAllowance)
	}
	if err := s.tokens.TransferFrom(s.token, from, s.custody, s.custody, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

func (s *tokenSettlement) TransferOut(to [20]byte, amount *big.Int) error {
	if s == nil || s.tokens == nil {
		return errNilTokens
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrTransferFailed)
	}
	if err := s.tokens.Transfer(s.token, s.custody, to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}
