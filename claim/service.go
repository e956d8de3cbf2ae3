package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/common"
	"github.com/AlexZinkM/stealth-link/internal/config"
	"github.com/AlexZinkM/stealth-link/internal/log"
	"github.com/AlexZinkM/stealth-link/internal/metrics"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// minFeeLamports is what a self-paid redeem needs at the very least (one signature)
const minFeeLamports = 5000

// QuoteProvider is the bridging API. GetQuote returns nil without error when there is no route.
// Execute signs with the Funder key, so only quotes paid by it can be executed.
type QuoteProvider interface {
	GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error)
	Execute(ctx context.Context, quote *model.Quote) (string, error)
	Funder() (solana.PublicKey, bool)
}

// Chain is the destination chain wallet adapter
type Chain interface {
	GetBalances(ctx context.Context, owner solana.PublicKey) (*model.Balances, error)
	WaitForFunds(ctx context.Context, owner solana.PublicKey, t model.Token) (*model.Balances, error)
	WaitForConfirmation(ctx context.Context, signature string) error
	GetActivity(ctx context.Context, owner solana.PublicKey) ([]model.Activity, error)
	Sweep(ctx context.Context, req model.SweepRequest) (string, error)
}

// PriceFeed values balances in USD
type PriceFeed interface {
	GetUSDPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// CreateRequest asks for a new funded claim link
type CreateRequest struct {
	OriginChain string
	OriginToken string
	Token       string // destination token symbol
	Amount      string // origin token base units
}

// RedeemRequest sweeps a link to Destination
type RedeemRequest struct {
	Link        string
	Destination string
	Sponsored   bool
}

// Inspection is what a link currently holds
type Inspection struct {
	Link     *Link
	Balances *model.Balances
	Prices   map[string]decimal.Decimal // by CoinGecko id, may be empty
	Activity []model.Activity
}

// IsEmpty reports whether there is nothing left to claim
func (i *Inspection) IsEmpty() bool {
	return i.Balances.IsEmpty()
}

// Service runs the claim-link lifecycle against the bridge and the chain
type Service struct {
	quotes  QuoteProvider
	chain   Chain
	prices  PriceFeed
	baseURL string
	tokens  []model.Token
	sponsor solana.PrivateKey

	cooldown       time.Duration
	confirmTimeout time.Duration
	metrics        metrics.Recorder

	mu         sync.Mutex
	lastCreate time.Time // start of the last issued or in-flight creation
}

// Option configures a Service
type Option func(*Service)

// WithPriceFeed enables USD valuation in Inspect
func WithPriceFeed(p PriceFeed) Option {
	return func(s *Service) { s.prices = p }
}

// WithSponsor sets the key that pays fees for sponsored redeems
func WithSponsor(key solana.PrivateKey) Option {
	return func(s *Service) { s.sponsor = key }
}

// WithCooldown sets the minimum delay between two successful creations
func WithCooldown(d time.Duration) Option {
	return func(s *Service) { s.cooldown = d }
}

// WithConfirmTimeout bounds funding and confirmation waits
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Service) { s.confirmTimeout = d }
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// NewService creates a claim service. baseURL is where issued links point.
func NewService(quotes QuoteProvider, chain Chain, baseURL string, tokens []model.Token, opts ...Option) *Service {
	s := &Service{
		quotes:         quotes,
		chain:          chain,
		baseURL:        baseURL,
		tokens:         tokens,
		confirmTimeout: 90 * time.Second,
		metrics:        metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create generates a disposable stealth wallet, bridges funds to a fresh one-time
// address of it and issues the link. Claims are funded by the quote provider's key,
// so the origin must be the destination chain. On failure after creation the
// returned claim is ABANDONED and carries the reason.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Claim, error) {
	token, ok := config.FindToken(s.tokens, req.Token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, req.Token)
	}
	originChainID, ok := config.ChainID(req.OriginChain)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported origin chain %q", ErrInvalidRequest, req.OriginChain)
	}
	destinationChainID, _ := config.ChainID(config.DestinationChain)
	if originChainID != destinationChainID {
		return nil, fmt.Errorf("%w: claims can only be funded from %s, not %q", ErrInvalidRequest, config.DestinationChain, req.OriginChain)
	}
	if err := common.ValidateBaseUnits(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	funder, ok := s.quotes.Funder()
	if !ok {
		return nil, ErrFunderUnavailable
	}

	release, err := s.reserveCreate()
	if err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			release()
		}
	}()

	wallet, err := stealth.GenerateWallet()
	if err != nil {
		return nil, fmt.Errorf("failed to generate claim wallet: %w", err)
	}
	defer wallet.Wipe()

	payment, err := stealth.DeriveStealthAddress(wallet.MetaAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to derive claim address: %w", err)
	}

	key, err := stealth.DeriveStealthPrivateKey(wallet, payment.EphemeralPubKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to derive claim key: %w", err)
	}
	defer clear(key)

	if !key.PublicKey().Equals(payment.OneTimeAddress) {
		return nil, fmt.Errorf("%w: derived key does not match claim address", stealth.ErrCryptoPrimitive)
	}

	link, err := NewLink(s.baseURL, key, config.DestinationChain, token.Symbol)
	if err != nil {
		return nil, err
	}

	c := NewClaim(payment)
	labels := map[string]string{"token": token.Symbol}
	started := time.Now()
	executed := false

	fail := func(reason string, err error) (*Claim, error) {
		_ = c.Abandon(reason)
		if executed {
			// Funds may still land, keep the only way to reach them
			c.Link = link
		} else {
			link.Wipe()
		}
		s.metrics.IncCounter(metrics.ClaimAbandoned, labels)
		s.metrics.ObserveLatency("create", time.Since(started), map[string]string{"result": "abandoned"})
		log.Warn("claim abandoned",
			zap.String("address", c.OneTimeAddress.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return c, err
	}

	quote, err := s.quotes.GetQuote(ctx, model.QuoteRequest{
		OriginChainID:       originChainID,
		DestinationChainID:  destinationChainID,
		OriginCurrency:      req.OriginToken,
		DestinationCurrency: currency(token),
		Amount:              req.Amount,
		User:                funder.String(),
		Recipient:           payment.OneTimeAddress.String(),
	})
	if err != nil {
		return fail("quote failed", fmt.Errorf("failed to get quote: %w", err))
	}
	if quote == nil {
		s.metrics.IncCounter(metrics.ClaimNoRoute, labels)
		return fail("no route", ErrNoRoute)
	}

	txHash, err := s.quotes.Execute(ctx, quote)
	if err != nil {
		return fail("bridge execution failed", fmt.Errorf("failed to execute quote: %w", err))
	}
	executed = true

	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	if _, err := s.chain.WaitForFunds(waitCtx, payment.OneTimeAddress, token); err != nil {
		c.FundingTx = txHash
		return fail("funds not received", err)
	}

	if err := c.MarkFunded(txHash); err != nil {
		return fail("state error", err)
	}

	if err := c.IssueLink(link); err != nil {
		return fail("state error", err)
	}

	created = true
	s.metrics.IncCounter(metrics.ClaimCreated, labels)
	s.metrics.ObserveLatency("create", time.Since(started), map[string]string{"result": "ok"})
	log.Info("claim link issued",
		zap.String("address", c.OneTimeAddress.String()),
		zap.String("token", token.Symbol),
		zap.String("fundingTx", txHash),
	)
	return c, nil
}

// reserveCreate starts the cooldown for an attempt. The returned func gives the
// slot back, for attempts that end without a link.
func (s *Service) reserveCreate() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cooldown <= 0 {
		return func() {}, nil
	}
	if !s.lastCreate.IsZero() {
		if wait := s.cooldown - time.Since(s.lastCreate); wait > 0 {
			return nil, fmt.Errorf("%w: retry in %s", ErrCooldown, wait.Round(time.Second))
		}
	}

	previous := s.lastCreate
	reserved := time.Now()
	s.lastCreate = reserved
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lastCreate.Equal(reserved) {
			s.lastCreate = previous
		}
	}, nil
}

// Inspect reads what a link holds. Prices and activity are best effort.
func (s *Service) Inspect(ctx context.Context, rawLink string) (*Inspection, error) {
	link, err := ParseLink(rawLink)
	if err != nil {
		return nil, err
	}
	// Inspection never needs the secret
	link.Wipe()
	link.SecretKey = nil

	balances, err := s.chain.GetBalances(ctx, link.OneTimeAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	insp := &Inspection{Link: link, Balances: balances, Prices: map[string]decimal.Decimal{}}

	if s.prices != nil && !balances.IsEmpty() {
		ids := []string{}
		if native, ok := s.nativeToken(); ok {
			ids = append(ids, native.CoingeckoID)
		}
		for _, tb := range balances.Tokens {
			ids = append(ids, tb.Token.CoingeckoID)
		}
		prices, err := s.prices.GetUSDPrices(ctx, ids)
		if err != nil {
			log.Warn("price lookup failed", zap.Error(err))
		} else {
			insp.Prices = prices
		}
	}

	activity, err := s.chain.GetActivity(ctx, link.OneTimeAddress)
	if err != nil {
		log.Warn("activity lookup failed", zap.String("address", link.OneTimeAddress.String()), zap.Error(err))
	}
	insp.Activity = activity

	return insp, nil
}

// Redeem sweeps everything at the link's address to the destination.
// Wrapped SOL arrives as native SOL.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*Claim, error) {
	link, err := ParseLink(req.Link)
	if err != nil {
		return nil, err
	}
	defer link.Wipe()

	destination, err := solana.PublicKeyFromBase58(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid destination address: %v", ErrInvalidRequest, err)
	}
	if destination.Equals(link.OneTimeAddress) {
		return nil, fmt.Errorf("%w: destination must differ from the claim address", ErrInvalidRequest)
	}

	var feePayer solana.PrivateKey
	if req.Sponsored {
		if len(s.sponsor) == 0 {
			return nil, ErrSponsorUnavailable
		}
		feePayer = s.sponsor
	}

	c := ClaimFromLink(link)
	started := time.Now()

	balances, err := s.chain.GetBalances(ctx, link.OneTimeAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	if balances.IsEmpty() {
		return nil, ErrLinkEmpty
	}
	if feePayer == nil && balances.Lamports < minFeeLamports {
		return nil, ErrFeesRequired
	}

	sig, err := s.chain.Sweep(ctx, model.SweepRequest{
		Owner:       link.SecretKey,
		Destination: destination,
		FeePayer:    feePayer,
		Balances:    balances,
	})
	if err != nil {
		s.metrics.ObserveLatency("redeem", time.Since(started), map[string]string{"result": "error"})
		switch {
		case errors.Is(err, model.ErrInsufficientFees):
			return nil, fmt.Errorf("%w: %v", ErrFeesRequired, err)
		case errors.Is(err, model.ErrNothingToSweep):
			return nil, fmt.Errorf("%w: %v", ErrLinkEmpty, err)
		}
		return nil, fmt.Errorf("failed to sweep claim: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	if err := s.chain.WaitForConfirmation(waitCtx, sig); err != nil {
		s.metrics.ObserveLatency("redeem", time.Since(started), map[string]string{"result": "error"})
		return nil, err
	}

	if err := c.MarkClaimed(sig); err != nil {
		return nil, err
	}

	s.metrics.IncCounter(metrics.ClaimRedeemed, map[string]string{"token": link.Token})
	s.metrics.ObserveLatency("redeem", time.Since(started), map[string]string{"result": "ok"})
	log.Info("claim redeemed",
		zap.String("address", c.OneTimeAddress.String()),
		zap.String("destination", destination.String()),
		zap.Bool("sponsored", req.Sponsored),
		zap.String("tx", sig),
	)
	return c, nil
}

// Tokens returns the token table the service works with
func (s *Service) Tokens() []model.Token {
	return s.tokens
}

func (s *Service) nativeToken() (model.Token, bool) {
	for _, t := range s.tokens {
		if t.IsNative() {
			return t, true
		}
	}
	return model.Token{}, false
}

// currency is how the bridge names a destination token: native SOL is the zero address
func currency(t model.Token) string {
	if t.IsNative() {
		return solana.SystemProgramID.String()
	}
	return t.Mint
}
