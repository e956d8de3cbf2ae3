package stealth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/curve25519"
)

// Wallet holds the receiver's spending and viewing keypairs.
// Keys are full 64-byte Solana private keys (seed ‖ public key).
type Wallet struct {
	SpendingKey solana.PrivateKey
	ViewingKey  solana.PrivateKey
	MetaAddress string
}

// Payment is what a sender publishes for a single transfer
type Payment struct {
	OneTimeAddress  solana.PublicKey
	EphemeralPubKey solana.PublicKey
}

// GenerateWallet creates a wallet with two independent random keypairs
func GenerateWallet() (*Wallet, error) {
	return generateWallet(rand.Reader)
}

func generateWallet(r io.Reader) (*Wallet, error) {
	spending, err := newKeyFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate spending key: %w", err)
	}
	defer clear(spending)

	viewing, err := newKeyFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate viewing key: %w", err)
	}
	defer clear(viewing)

	return NewWallet(spending, viewing)
}

// NewWallet builds a wallet from two 64-byte private keys.
// The keys are copied and the meta-address is always recomputed from them.
func NewWallet(spending, viewing solana.PrivateKey) (*Wallet, error) {
	if err := checkPrivateKey(spending); err != nil {
		return nil, fmt.Errorf("invalid spending key: %w", err)
	}
	if err := checkPrivateKey(viewing); err != nil {
		return nil, fmt.Errorf("invalid viewing key: %w", err)
	}

	w := &Wallet{
		SpendingKey: append(solana.PrivateKey(nil), spending...),
		ViewingKey:  append(solana.PrivateKey(nil), viewing...),
	}
	w.MetaAddress = EncodeMetaAddress(w.SpendingKey.PublicKey(), w.ViewingKey.PublicKey())
	return w, nil
}

// Meta returns the public half of the wallet
func (w *Wallet) Meta() *MetaAddress {
	return &MetaAddress{
		SpendingPubKey: w.SpendingKey.PublicKey(),
		ViewingPubKey:  w.ViewingKey.PublicKey(),
	}
}

// Wipe zeroes both secret keys
func (w *Wallet) Wipe() {
	clear(w.SpendingKey)
	clear(w.ViewingKey)
}

// DeriveStealthAddress derives a fresh one-time address for the given meta-address (sender side).
// Every call uses a new ephemeral keypair, so two payments never share an ephemeral key.
func DeriveStealthAddress(metaAddress string) (*Payment, error) {
	return deriveStealthAddress(rand.Reader, metaAddress)
}

func deriveStealthAddress(r io.Reader, metaAddress string) (*Payment, error) {
	meta, err := ParseMetaAddress(metaAddress)
	if err != nil {
		return nil, err
	}

	ephemeral, err := newKeyFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	defer clear(ephemeral)

	shared, err := sharedSecret(ephemeral, meta.ViewingPubKey)
	if err != nil {
		return nil, err
	}
	defer clear(shared)

	// Sender never needs the one-time secret
	oneTime := oneTimeKey(shared, meta.ViewingPubKey)
	defer clear(oneTime)

	return &Payment{
		OneTimeAddress:  oneTime.PublicKey(),
		EphemeralPubKey: ephemeral.PublicKey(),
	}, nil
}

// DeriveStealthPrivateKey rebuilds the one-time keypair for a payment (receiver side).
// ephemeralPub must be exactly 32 bytes.
func DeriveStealthPrivateKey(w *Wallet, ephemeralPub []byte) (solana.PrivateKey, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil wallet", ErrMalformedEncoding)
	}
	if err := checkPrivateKey(w.ViewingKey); err != nil {
		return nil, fmt.Errorf("invalid viewing key: %w", err)
	}
	if len(ephemeralPub) != keyLen {
		return nil, fmt.Errorf("%w: ephemeral key is %d bytes, expected %d", ErrMalformedEncoding, len(ephemeralPub), keyLen)
	}

	shared, err := sharedSecret(w.ViewingKey, solana.PublicKeyFromBytes(ephemeralPub))
	if err != nil {
		return nil, err
	}
	defer clear(shared)

	return oneTimeKey(shared, w.ViewingKey.PublicKey()), nil
}

// CheckStealthPayment reports whether candidate is the one-time address the wallet
// derives for ephemeralPub. Malformed input is simply not ours.
func CheckStealthPayment(w *Wallet, ephemeralPub []byte, candidate solana.PublicKey) bool {
	key, err := DeriveStealthPrivateKey(w, ephemeralPub)
	if err != nil {
		return false
	}
	defer clear(key)

	return key.PublicKey().Equals(candidate)
}

// sharedSecret computes X25519(secret scalar, counterparty point).
// Both sides land on the same value: ephemeral·viewingPub == viewing·ephemeralPub.
func sharedSecret(secret solana.PrivateKey, counterparty solana.PublicKey) ([]byte, error) {
	point, err := new(edwards25519.Point).SetBytes(counterparty[:])
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not a curve point", ErrMalformedEncoding)
	}

	// Ed25519 secret scalar is the lower half of SHA-512(seed); X25519 applies the clamping
	digest := sha512.Sum512(secret[:ed25519.SeedSize])
	defer clear(digest[:])

	shared, err := curve25519.X25519(digest[:32], point.BytesMontgomery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoPrimitive, err)
	}
	return shared, nil
}

// oneTimeKey hashes shared ‖ viewingPub into the seed of the one-time keypair
func oneTimeKey(shared []byte, viewingPub solana.PublicKey) solana.PrivateKey {
	combined := make([]byte, 0, 2*keyLen)
	combined = append(combined, shared...)
	combined = append(combined, viewingPub[:]...)
	defer clear(combined)

	seed := sha256.Sum256(combined)
	defer clear(seed[:])

	return keyFromSeed(seed[:])
}

func newKeyFromReader(r io.Reader) (solana.PrivateKey, error) {
	seed := make([]byte, ed25519.SeedSize)
	defer clear(seed)

	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoPrimitive, err)
	}
	return keyFromSeed(seed), nil
}

func keyFromSeed(seed []byte) solana.PrivateKey {
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
}

// checkPrivateKey verifies length and that the public half matches the seed
func checkPrivateKey(key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: private key is %d bytes, expected %d", ErrMalformedEncoding, len(key), ed25519.PrivateKeySize)
	}

	rebuilt := keyFromSeed(key[:ed25519.SeedSize])
	defer clear(rebuilt)

	if !bytes.Equal(rebuilt[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return fmt.Errorf("%w: public key does not match seed", ErrMalformedEncoding)
	}
	return nil
}
