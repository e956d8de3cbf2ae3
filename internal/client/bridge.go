package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/model"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TransactionSubmitter sends a signed Solana transaction
type TransactionSubmitter interface {
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (string, error)
}

// BridgeClient client for the bridging quote API.
// Quotes are executed by signing the returned Solana transaction with the operator key.
type BridgeClient struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	signer        solana.PrivateKey
	submitter     TransactionSubmitter
	solanaChainID int64
}

// NewBridgeClient creates a new bridge client. signer may be nil, then quotes can be read but not executed.
func NewBridgeClient(baseURL, apiKey string, solanaChainID int64, signer solana.PrivateKey, submitter TransactionSubmitter) *BridgeClient {
	return &BridgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		signer:        signer,
		submitter:     submitter,
		solanaChainID: solanaChainID,
	}
}

// Funder returns the account that signs and pays executed quotes, false without a signer
func (c *BridgeClient) Funder() (solana.PublicKey, bool) {
	if len(c.signer) == 0 {
		return solana.PublicKey{}, false
	}
	return c.signer.PublicKey(), true
}

// GetQuote asks for a route. A nil quote with nil error means no route exists.
func (c *BridgeClient) GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quote", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to get quote: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var quote model.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	if quote.Transaction == "" {
		return nil, errors.New("quote has no transaction")
	}
	return &quote, nil
}

// Execute signs the quote transaction with the operator key and submits it
func (c *BridgeClient) Execute(ctx context.Context, quote *model.Quote) (string, error) {
	if quote == nil {
		return "", errors.New("nil quote")
	}
	if quote.OriginChainID != c.solanaChainID {
		return "", fmt.Errorf("cannot execute quote from chain %d: only Solana origins are signed locally", quote.OriginChainID)
	}
	if len(c.signer) == 0 {
		return "", errors.New("no funding key configured")
	}
	if !quote.ExpiresAt.IsZero() && time.Now().After(quote.ExpiresAt) {
		return "", fmt.Errorf("quote %s expired at %s", quote.ID, quote.ExpiresAt.Format(time.RFC3339))
	}

	txBytes, err := base64.StdEncoding.DecodeString(quote.Transaction)
	if err != nil {
		return "", fmt.Errorf("invalid tx base64: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(binary.NewBinDecoder(txBytes))
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction: %w", err)
	}

	if err := signSlot(tx, c.signer); err != nil {
		return "", err
	}

	return c.submitter.SubmitTransaction(ctx, tx)
}

// signSlot places the signer's signature at its index, keeping signatures
// the bridge already provided. Every other required slot must be filled.
func signSlot(tx *solana.Transaction, signer solana.PrivateKey) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return errors.New("malformed transaction header")
	}

	index := -1
	for i := 0; i < required; i++ {
		if tx.Message.AccountKeys[i].Equals(signer.PublicKey()) {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("transaction does not require a signature from %s", signer.PublicKey())
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}
	sig, err := signer.Sign(message)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	tx.Signatures[index] = sig

	for i := 0; i < required; i++ {
		if tx.Signatures[i] == (solana.Signature{}) {
			return fmt.Errorf("transaction needs a signature from %s", tx.Message.AccountKeys[i])
		}
	}
	return nil
}
