package model

// DeriveRequest represents request body for POST /stealth/derive
type DeriveRequest struct {
	MetaAddress string `json:"metaAddress" validate:"required,startswith=st1"`
}

// DeriveResponse is what the sender publishes
type DeriveResponse struct {
	OneTimeAddress  string `json:"oneTimeAddress"`
	EphemeralPubKey string `json:"ephemeralPubKey"`
}

// CheckRequest represents request body for POST /stealth/check
type CheckRequest struct {
	EphemeralPubKey string `json:"ephemeralPubKey" validate:"required"`
	OneTimeAddress  string `json:"oneTimeAddress" validate:"required"`
}

// CheckResponse represents response for POST /stealth/check
type CheckResponse struct {
	Owned bool `json:"owned"`
}

// Announcement is a published (ephemeral key, address) pair
type Announcement struct {
	EphemeralPubKey string `json:"ephemeralPubKey" validate:"required"`
	OneTimeAddress  string `json:"oneTimeAddress" validate:"required"`
}

// ScanRequest represents request body for POST /stealth/scan
type ScanRequest struct {
	Announcements []Announcement `json:"announcements" validate:"required,min=1,max=1000,dive"`
	IncludeKeys   bool           `json:"includeKeys"`
}

// OwnedPayment is an announcement the wallet can spend
type OwnedPayment struct {
	OneTimeAddress  string `json:"oneTimeAddress"`
	EphemeralPubKey string `json:"ephemeralPubKey"`
	SecretKey       string `json:"secretKey,omitempty"` // base58, only with includeKeys
}

// ScanResponse represents response for POST /stealth/scan
type ScanResponse struct {
	Scanned int            `json:"scanned"`
	Skipped int            `json:"skipped"`
	Owned   []OwnedPayment `json:"owned"`
}
