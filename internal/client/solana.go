package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/log"
	"github.com/AlexZinkM/stealth-link/internal/model"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	tokenAccountSize     = 165 // bytes of an SPL token account
	signatureFeeLamports = 5000
	defaultPollInterval  = 2 * time.Second
	activityLimit        = 20
)

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient    *rpc.Client
	tokens       []model.Token
	pollInterval time.Duration
}

// NewSolanaClient creates a new Solana client. tokens is the SPL table balances are read for.
func NewSolanaClient(rpcURL string, tokens []model.Token) *SolanaClient {
	return &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		tokens:       tokens,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval changes how often confirmation and funding are polled
func (c *SolanaClient) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

// GetBalances gets SOL (lamports) and the balance of every existing token account of owner
func (c *SolanaClient) GetBalances(ctx context.Context, owner solana.PublicKey) (*model.Balances, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get SOL balance: %w", err)
	}

	balances := &model.Balances{Owner: owner, Lamports: balance.Value}

	for _, t := range c.tokens {
		if t.IsNative() {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(t.Mint)
		if err != nil {
			return nil, fmt.Errorf("invalid %s mint address: %w", t.Symbol, err)
		}

		ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to find associated token account address: %w", err)
		}

		tokenBalance, err := c.rpcClient.GetTokenAccountBalance(ctx, ataAddress, rpc.CommitmentConfirmed)
		if err != nil {
			if isATANotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get %s balance: %w", t.Symbol, err)
		}

		var amount uint64
		if tokenBalance.Value != nil {
			amount, err = strconv.ParseUint(tokenBalance.Value.Amount, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s balance amount: %w", t.Symbol, err)
			}
		}
		balances.Tokens = append(balances.Tokens, model.TokenBalance{Token: t, Amount: amount})
	}

	return balances, nil
}

// WaitForFunds polls owner until a non-zero balance of t shows up
func (c *SolanaClient) WaitForFunds(ctx context.Context, owner solana.PublicKey, t model.Token) (*model.Balances, error) {
	limiter := ratelimit.New(1, ratelimit.Per(c.pollInterval))

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("funds did not arrive at %s: %w", owner, err)
		}
		limiter.Take()

		balances, err := c.GetBalances(ctx, owner)
		if err != nil {
			log.Debug("balance poll failed", zap.String("owner", owner.String()), zap.Error(err))
			continue
		}
		if funded(balances, t) {
			return balances, nil
		}
	}
}

func funded(b *model.Balances, t model.Token) bool {
	if t.IsNative() {
		return b.Lamports > 0
	}
	for _, tb := range b.Tokens {
		if tb.Token.Mint == t.Mint && tb.Amount > 0 {
			return true
		}
	}
	return false
}

// WaitForConfirmation polls the signature status until it is confirmed, fails, or ctx is done
func (c *SolanaClient) WaitForConfirmation(ctx context.Context, signature string) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	limiter := ratelimit.New(1, ratelimit.Per(c.pollInterval))

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transaction %s not confirmed: %w", signature, err)
		}
		limiter.Take()

		res, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			log.Debug("signature status poll failed", zap.String("signature", signature), zap.Error(err))
			continue
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}

		status := res.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction %s failed: %v", signature, status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}

// GetActivity returns the most recent transactions touching owner
func (c *SolanaClient) GetActivity(ctx context.Context, owner solana.PublicKey) ([]model.Activity, error) {
	limit := activityLimit
	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(
		ctx,
		owner,
		&rpc.GetSignaturesForAddressOpts{
			Limit: &limit,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	activity := make([]model.Activity, 0, len(sigs))
	for _, sig := range sigs {
		a := model.Activity{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Success:   sig.Err == nil,
		}
		if sig.BlockTime != nil {
			a.Time = time.Unix(int64(*sig.BlockTime), 0).UTC()
		}
		activity = append(activity, a)
	}
	return activity, nil
}

// Sweep moves every balance of req.Owner to req.Destination in one transaction.
// Wrapped SOL is unwrapped by closing its account into the destination.
func (c *SolanaClient) Sweep(ctx context.Context, req model.SweepRequest) (string, error) {
	if req.Balances == nil {
		return "", model.ErrNothingToSweep
	}

	missing := make(map[solana.PublicKey]bool)
	for _, tb := range req.Balances.Tokens {
		if tb.Token.WrappedNative || tb.Amount == 0 {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(tb.Token.Mint)
		if err != nil {
			return "", fmt.Errorf("invalid %s mint address: %w", tb.Token.Symbol, err)
		}
		destATA, _, err := solana.FindAssociatedTokenAddress(req.Destination, mint)
		if err != nil {
			return "", fmt.Errorf("failed to find destination token account: %w", err)
		}

		// Check if destination account exists, if not it is created in the same transaction
		info, err := c.rpcClient.GetAccountInfo(ctx, destATA)
		if err != nil && !isATANotFoundError(err) {
			return "", fmt.Errorf("failed to get destination account info: %w", err)
		}
		missing[mint] = err != nil || info == nil || info.Value == nil
	}

	var rent uint64
	if len(missing) > 0 {
		var err error
		rent, err = c.rpcClient.GetMinimumBalanceForRentExemption(ctx, tokenAccountSize, rpc.CommitmentFinalized)
		if err != nil {
			return "", fmt.Errorf("failed to get rent exemption: %w", err)
		}
	}

	plan, err := planSweep(req, missing, rent)
	if err != nil {
		return "", err
	}

	// GetRecentBlockhash is deprecated, use GetLatestBlockhash
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		plan.instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(plan.payer),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.Sign(signerGetter(plan.signers...)); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	return c.SubmitTransaction(ctx, tx)
}

// SubmitTransaction sends an already signed transaction
func (c *SolanaClient) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (string, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation before node
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig.String(), nil
}

type sweepPlan struct {
	instructions []solana.Instruction
	payer        solana.PublicKey
	signers      []solana.PrivateKey
}

// planSweep builds the sweep instructions. missing marks mints whose destination
// token account must be created; rent is the rent-exempt minimum of a token account.
func planSweep(req model.SweepRequest, missing map[solana.PublicKey]bool, rent uint64) (*sweepPlan, error) {
	owner := req.Owner.PublicKey()
	if req.Destination.Equals(owner) {
		return nil, errors.New("destination is the swept address")
	}

	plan := &sweepPlan{payer: owner, signers: []solana.PrivateKey{req.Owner}}
	sponsored := len(req.FeePayer) != 0
	if sponsored {
		plan.payer = req.FeePayer.PublicKey()
		plan.signers = append(plan.signers, req.FeePayer)
	}

	// Rent of closed accounts goes back to whoever pays for the transaction
	rentRecipient := req.Destination
	if sponsored {
		rentRecipient = plan.payer
	}

	var created uint64
	for _, tb := range req.Balances.Tokens {
		mint, err := solana.PublicKeyFromBase58(tb.Token.Mint)
		if err != nil {
			return nil, fmt.Errorf("invalid %s mint address: %w", tb.Token.Symbol, err)
		}
		sourceATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to find source token account address: %w", err)
		}

		if tb.Token.WrappedNative {
			// Closing a native account releases wrapped amount and rent as SOL
			plan.instructions = append(plan.instructions, token.NewCloseAccountInstruction(
				sourceATA,
				req.Destination,
				owner,
				[]solana.PublicKey{},
			).Build())
			continue
		}

		if tb.Amount > 0 {
			destATA, _, err := solana.FindAssociatedTokenAddress(req.Destination, mint)
			if err != nil {
				return nil, fmt.Errorf("failed to find destination token account: %w", err)
			}
			if missing[mint] {
				plan.instructions = append(plan.instructions, associatedtokenaccount.NewCreateInstruction(
					plan.payer,      // payer
					req.Destination, // owner
					mint,            // mint
				).Build())
				created++
			}
			plan.instructions = append(plan.instructions, token.NewTransferCheckedInstruction(
				tb.Amount,
				tb.Token.Decimals,
				sourceATA,
				mint,
				destATA,
				owner,
				[]solana.PublicKey{},
			).Build())
		}

		plan.instructions = append(plan.instructions, token.NewCloseAccountInstruction(
			sourceATA,
			rentRecipient,
			owner,
			[]solana.PublicKey{},
		).Build())
	}

	lamports := req.Balances.Lamports
	if !sponsored {
		// Owner pays the fee and the rent of created accounts from its own SOL
		reserve := uint64(len(plan.signers))*signatureFeeLamports + created*rent
		if lamports < reserve {
			return nil, fmt.Errorf("%w: need %d lamports, have %d", model.ErrInsufficientFees, reserve, lamports)
		}
		lamports -= reserve
	}
	if lamports > 0 {
		plan.instructions = append(plan.instructions, system.NewTransferInstruction(
			lamports,
			owner,
			req.Destination,
		).Build())
	}

	if len(plan.instructions) == 0 {
		return nil, model.ErrNothingToSweep
	}
	return plan, nil
}

func signerGetter(keys ...solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	}
}

// isATANotFoundError checks if error indicates that token account doesn't exist
func isATANotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
