package stealth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// exportedWallet is the portable record. Not encrypted.
type exportedWallet struct {
	Spending string `json:"spending"` // base58 of the 64-byte secret key
	Viewing  string `json:"viewing"`
}

// ExportWallet serializes both secret keys into an opaque string.
// The result is equivalent to the raw secrets, callers must protect it.
func ExportWallet(w *Wallet) (string, error) {
	if w == nil {
		return "", fmt.Errorf("%w: nil wallet", ErrMalformedEncoding)
	}

	record := exportedWallet{
		Spending: base58.Encode(w.SpendingKey),
		Viewing:  base58.Encode(w.ViewingKey),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal wallet: %w", err)
	}
	defer clear(data)

	return base64.StdEncoding.EncodeToString(data), nil
}

// ImportWallet reverses ExportWallet. Keypairs are rebuilt from their seeds and
// the meta-address is recomputed, never read from the blob.
func ImportWallet(s string) (*Wallet, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet export is not valid base64", ErrMalformedEncoding)
	}
	defer clear(data)

	var record exportedWallet
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: wallet export is not a valid record", ErrMalformedEncoding)
	}

	spending, err := decodeSecret(record.Spending)
	if err != nil {
		return nil, fmt.Errorf("invalid spending key: %w", err)
	}
	defer clear(spending)

	viewing, err := decodeSecret(record.Viewing)
	if err != nil {
		return nil, fmt.Errorf("invalid viewing key: %w", err)
	}
	defer clear(viewing)

	return NewWallet(spending, viewing)
}

// decodeSecret decodes a base58 64-byte secret key and checks it is self-consistent
func decodeSecret(s string) (solana.PrivateKey, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty secret key", ErrMalformedEncoding)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: secret key is not valid base58", ErrMalformedEncoding)
	}
	key := solana.PrivateKey(raw)
	if err := checkPrivateKey(key); err != nil {
		clear(raw)
		return nil, err
	}
	return key, nil
}
