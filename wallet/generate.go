package wallet

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/crypto"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var target *FileExistsError
	return errors.As(err, &target)
}

// GenerateStealthWallet generates a new stealth wallet and saves it to .cwt file.
// Returns the meta-address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateStealthWallet(filePath string, password []byte) (metaAddress string, err error) {
	if err := checkTarget(filePath); err != nil {
		return "", err
	}

	w, err := stealth.GenerateWallet()
	if err != nil {
		return "", fmt.Errorf("failed to generate wallet: %w", err)
	}
	defer w.Wipe()

	return saveStealthWallet(filePath, w, password)
}

// ImportStealthWallet saves an exported stealth wallet to a new .cwt file
func ImportStealthWallet(filePath, exported string, password []byte) (metaAddress string, err error) {
	if err := checkTarget(filePath); err != nil {
		return "", err
	}

	w, err := stealth.ImportWallet(exported)
	if err != nil {
		return "", fmt.Errorf("failed to import wallet: %w", err)
	}
	defer w.Wipe()

	return saveStealthWallet(filePath, w, password)
}

func saveStealthWallet(filePath string, w *stealth.Wallet, password []byte) (string, error) {
	exported, err := stealth.ExportWallet(w)
	if err != nil {
		return "", err
	}

	qrCode, err := QRCode(w.MetaAddress)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: []byte(exported),
		CreatedAt:  time.Now().Format(time.RFC3339),
	}
	defer clear(walletData.PrivateKey)

	header := crypto.KeyFile{Network: model.KindStealth, Address: w.MetaAddress, QR: qrCode}
	if err := crypto.EncryptWallet(filePath, header, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return w.MetaAddress, nil
}

// GenerateOperatorWallet generates the Solana wallet that funds bridges and sponsors fees.
// Returns the generated public address on success.
func GenerateOperatorWallet(filePath string, password []byte) (address string, err error) {
	if err := checkTarget(filePath); err != nil {
		return "", err
	}

	operator := solana.NewWallet()
	defer clear(operator.PrivateKey)

	address = operator.PublicKey().String()

	qrCode, err := QRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	// PrivateKey stored as []byte (will be base64 encoded in JSON)
	walletData := &model.WalletData{
		PrivateKey: operator.PrivateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	header := crypto.KeyFile{Network: model.KindSolana, Address: address, QR: qrCode}
	if err := crypto.EncryptWallet(filePath, header, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return address, nil
}

// checkTarget refuses anything but a new or empty .cwt file
func checkTarget(filePath string) error {
	if filepath.Ext(filePath) != ".cwt" {
		return fmt.Errorf("file must have .cwt extension")
	}

	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return &FileExistsError{Message: "file is not empty"}
	}
	return nil
}

// QRCode generates a QR code of content as base64 PNG
func QRCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
