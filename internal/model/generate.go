package model

// GenerateResponse represents response for POST /stealth/generate and POST /stealth/import
type GenerateResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	MetaAddress string `json:"metaAddress,omitempty"`
	QR          string `json:"QR,omitempty"`
}

// ImportRequest represents request body for POST /stealth/import
type ImportRequest struct {
	Wallet string `json:"wallet" validate:"required"`
}

// MetaResponse represents response for GET /stealth/meta
type MetaResponse struct {
	MetaAddress    string `json:"metaAddress"`
	SpendingPubKey string `json:"spendingPubKey"`
	ViewingPubKey  string `json:"viewingPubKey"`
}

// ExportResponse represents response for POST /stealth/export
type ExportResponse struct {
	Wallet  string `json:"wallet"`
	Warning string `json:"warning"`
}
