package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlexZinkM/stealth-link/internal/model"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// scryptN is the scrypt cost for keyfiles.
// N=2^18 (~256MB RAM, 0.5-2s) keeps brute force expensive and still runs on phones.
var scryptN = 1 << 18

// SetScryptN overrides the scrypt cost of files written from now on.
// Existing files must be opened with the cost they were written with. Only meant for tests.
func SetScryptN(n int) {
	scryptN = n
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// KeyFile is the plaintext header of a .cwt file
type KeyFile struct {
	Network string // model.KindSolana or model.KindStealth
	Address string
	QR      string
}

// EncryptWallet encrypts wallet data and writes it to a new .cwt file
// password must be []byte for security (caller should zero it after use)
func EncryptWallet(filePath string, header KeyFile, walletData *model.WalletData, password []byte) error {
	if !strings.HasSuffix(filePath, ".cwt") {
		return errors.New("file must have .cwt extension")
	}

	// An existing empty file may be reused
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("file is not empty: %w", os.ErrExist)
	}

	fileData, err := seal(header, walletData, password)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReencryptWallet replaces the password of an existing .cwt file.
// The file is rewritten atomically with a fresh salt and nonce.
func ReencryptWallet(filePath string, oldPassword, newPassword []byte) error {
	if len(newPassword) == 0 {
		return errors.New("password cannot be empty")
	}

	cwtFile, walletData, err := DecryptWallet(filePath, oldPassword)
	if err != nil {
		return err
	}
	defer clear(walletData.PrivateKey)

	header := KeyFile{Network: cwtFile.Network, Address: cwtFile.Address, QR: cwtFile.QR}
	fileData, err := seal(header, walletData, newPassword)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".rekey-*.cwt")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(fileData); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// seal encrypts walletData and returns the serialized file with BOM
func seal(header KeyFile, walletData *model.WalletData, password []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	cwtFile := model.CWTFile{
		Network:    header.Network,
		Address:    header.Address,
		QR:         header.QR,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(cwtFile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cwt file: %w", err)
	}

	// UTF-8 BOM for proper display in Windows
	return append(append([]byte(nil), utf8BOM...), fileData...), nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
