package model

// Keyfile kinds stored in CWTFile.Network
const (
	KindSolana  = "solana"
	KindStealth = "stealth"
)

// CWTFile represents .cwt file structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"` // Solana address or stealth meta-address
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted wallet data.
// For solana keyfiles PrivateKey is the 64-byte key, for stealth keyfiles it is the wallet export string.
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // stored as base64 in JSON
	CreatedAt  string `json:"createdAt"`
}
