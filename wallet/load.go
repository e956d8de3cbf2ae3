package wallet

import (
	"fmt"

	"github.com/AlexZinkM/stealth-link/internal/crypto"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"

	"github.com/gagliardetto/solana-go"
)

// LoadStealthWallet decrypts a stealth keyfile.
// The caller owns the wallet and should Wipe it after use.
func LoadStealthWallet(filePath string, password []byte) (*stealth.Wallet, error) {
	header, walletData, err := crypto.DecryptWallet(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}
	defer clear(walletData.PrivateKey)

	if header.Network != model.KindStealth {
		return nil, fmt.Errorf("%s is a %q keyfile, not a stealth wallet", filePath, header.Network)
	}

	w, err := stealth.ImportWallet(string(walletData.PrivateKey))
	if err != nil {
		return nil, err
	}

	if w.MetaAddress != header.Address {
		w.Wipe()
		return nil, fmt.Errorf("keyfile meta-address does not match its keys")
	}
	return w, nil
}

// ReadMetaAddress reads the meta-address of a stealth keyfile without decrypting it
func ReadMetaAddress(filePath string) (string, error) {
	header, err := crypto.ReadWalletHeader(filePath)
	if err != nil {
		return "", err
	}
	if header.Network != model.KindStealth {
		return "", fmt.Errorf("%s is a %q keyfile, not a stealth wallet", filePath, header.Network)
	}
	return header.Address, nil
}

// LoadOperatorKey decrypts the operator Solana keyfile and checks the key against its address.
// Caller must clear the returned key.
func LoadOperatorKey(filePath string, password []byte) (solana.PrivateKey, error) {
	header, walletData, err := crypto.DecryptWallet(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}

	if header.Network != model.KindSolana {
		clear(walletData.PrivateKey)
		return nil, fmt.Errorf("%s is a %q keyfile, not a Solana wallet", filePath, header.Network)
	}

	// Verify private key length (we store full 64-byte key)
	if len(walletData.PrivateKey) != 64 {
		clear(walletData.PrivateKey)
		return nil, fmt.Errorf("invalid private key length")
	}

	fromPubkey, err := solana.PublicKeyFromBase58(header.Address)
	if err != nil {
		clear(walletData.PrivateKey)
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	key := solana.PrivateKey(walletData.PrivateKey)
	if !key.PublicKey().Equals(fromPubkey) {
		clear(key)
		return nil, fmt.Errorf("private key does not match address")
	}
	return key, nil
}
