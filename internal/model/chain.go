package model

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNothingToSweep is returned when a sweep would produce an empty transaction
	ErrNothingToSweep = errors.New("nothing to sweep")
	// ErrInsufficientFees is returned when a self-paid sweep cannot cover its own fees
	ErrInsufficientFees = errors.New("not enough SOL to pay fees")
)

// Token is an entry of the static token table
type Token struct {
	Symbol        string
	Mint          string // empty for native SOL
	Decimals      uint8
	CoingeckoID   string
	WrappedNative bool
}

// IsNative reports whether the token is native SOL
func (t Token) IsNative() bool {
	return t.Mint == ""
}

// TokenBalance is the balance of an existing token account
type TokenBalance struct {
	Token  Token
	Amount uint64 // base units
}

// Balances of a single owner address
type Balances struct {
	Owner    solana.PublicKey
	Lamports uint64
	Tokens   []TokenBalance
}

// IsEmpty reports whether nothing can be swept
func (b *Balances) IsEmpty() bool {
	if b.Lamports > 0 {
		return false
	}
	for _, t := range b.Tokens {
		if t.Amount > 0 {
			return false
		}
	}
	return true
}

// SweepRequest moves everything owned by Owner to Destination.
// FeePayer is optional; when set it pays fees and receives the rent of closed accounts.
type SweepRequest struct {
	Owner       solana.PrivateKey
	Destination solana.PublicKey
	FeePayer    solana.PrivateKey
	Balances    *Balances
}

// Activity is a recent transaction touching an address
type Activity struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	Time      time.Time `json:"time,omitempty"`
	Success   bool      `json:"success"`
}
