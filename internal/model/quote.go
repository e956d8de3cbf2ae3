package model

import "time"

// QuoteRequest is sent to the bridge API
type QuoteRequest struct {
	OriginChainID       int64  `json:"originChainId"`
	DestinationChainID  int64  `json:"destinationChainId"`
	OriginCurrency      string `json:"originCurrency"`
	DestinationCurrency string `json:"destinationCurrency"`
	Amount              string `json:"amount"`
	User                string `json:"user"`
	Recipient           string `json:"recipient"`
}

// Quote is a bridge route ready to execute
type Quote struct {
	ID             string    `json:"id"`
	OriginChainID  int64     `json:"originChainId"`
	Transaction    string    `json:"transaction"` // base64 serialized origin transaction
	ExpectedOutput string    `json:"expectedOutput"`
	Fee            string    `json:"fee"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
