package model

// CreateClaimRequest represents request body for POST /claim/create
type CreateClaimRequest struct {
	OriginChain string `json:"originChain" validate:"required"`
	OriginToken string `json:"originToken" validate:"required"`
	Token       string `json:"token" validate:"required"`  // destination token symbol
	Amount      string `json:"amount" validate:"required"` // in origin token base units
}

// ClaimResponse describes a claim after an operation
type ClaimResponse struct {
	State           string `json:"state"`
	OneTimeAddress  string `json:"oneTimeAddress"`
	EphemeralPubKey string `json:"ephemeralPubKey,omitempty"`
	FundingTx       string `json:"fundingTx,omitempty"`
	ClaimTx         string `json:"claimTx,omitempty"`
	Link            string `json:"link,omitempty"`
	QR              string `json:"QR,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Error           string `json:"error,omitempty"`
}

// InspectRequest represents request body for POST /claim/inspect
type InspectRequest struct {
	Link string `json:"link" validate:"required,url"`
}

// TokenAmount is a single balance line
type TokenAmount struct {
	Symbol   string `json:"symbol"`
	Mint     string `json:"mint,omitempty"`
	Amount   string `json:"amount"`
	USDValue string `json:"usdValue,omitempty"`
}

// InspectResponse represents response for POST /claim/inspect
type InspectResponse struct {
	OneTimeAddress string        `json:"oneTimeAddress"`
	Chain          string        `json:"chain,omitempty"`
	Token          string        `json:"token,omitempty"`
	Empty          bool          `json:"empty"`
	Balances       []TokenAmount `json:"balances"`
	TotalUSD       string        `json:"totalUsd,omitempty"`
	Activity       []Activity    `json:"activity"`
}

// RedeemRequest represents request body for POST /claim/redeem
type RedeemRequest struct {
	Link        string `json:"link" validate:"required,url"`
	Destination string `json:"destination" validate:"required"`
	Sponsored   bool   `json:"sponsored"`
}
