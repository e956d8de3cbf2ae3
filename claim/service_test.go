package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/config"
	"github.com/AlexZinkM/stealth-link/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFunder = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")

type fakeQuotes struct {
	mu        sync.Mutex
	quote     *model.Quote
	quoteErr  error
	execErr   error
	noFunder  bool
	requests  []model.QuoteRequest
	execCalls int
}

func (f *fakeQuotes) Funder() (solana.PublicKey, bool) {
	if f.noFunder {
		return solana.PublicKey{}, false
	}
	return testFunder, true
}

func (f *fakeQuotes) quoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeQuotes) GetQuote(_ context.Context, req model.QuoteRequest) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.quote, f.quoteErr
}

func (f *fakeQuotes) Execute(context.Context, *model.Quote) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls++
	if f.execErr != nil {
		return "", f.execErr
	}
	return "bridge-tx", nil
}

type fakeChain struct {
	balances    *model.Balances
	balancesErr error
	fundsErr    error
	sweepErr    error
	confirmErr  error
	activity    []model.Activity
	swept       *model.SweepRequest

	// when set, WaitForFunds signals waiting and blocks until release is closed
	waiting chan struct{}
	release chan struct{}
}

func (f *fakeChain) GetBalances(_ context.Context, owner solana.PublicKey) (*model.Balances, error) {
	if f.balancesErr != nil {
		return nil, f.balancesErr
	}
	b := *f.balances
	b.Owner = owner
	return &b, nil
}

func (f *fakeChain) WaitForFunds(ctx context.Context, owner solana.PublicKey, _ model.Token) (*model.Balances, error) {
	if f.release != nil {
		f.waiting <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fundsErr != nil {
		return nil, f.fundsErr
	}
	return &model.Balances{Owner: owner, Lamports: 1}, nil
}

func (f *fakeChain) WaitForConfirmation(context.Context, string) error {
	return f.confirmErr
}

func (f *fakeChain) GetActivity(context.Context, solana.PublicKey) ([]model.Activity, error) {
	return f.activity, nil
}

func (f *fakeChain) Sweep(_ context.Context, req model.SweepRequest) (string, error) {
	if f.sweepErr != nil {
		return "", f.sweepErr
	}
	cp := req
	cp.Owner = append(solana.PrivateKey(nil), req.Owner...)
	f.swept = &cp
	return "sweep-tx", nil
}

type fakePrices struct {
	ids []string
}

func (f *fakePrices) GetUSDPrices(_ context.Context, ids []string) (map[string]decimal.Decimal, error) {
	f.ids = ids
	return map[string]decimal.Decimal{
		"solana":   decimal.RequireFromString("150"),
		"usd-coin": decimal.RequireFromString("1"),
	}, nil
}

func testTokens(t *testing.T) []model.Token {
	tokens, err := config.Tokens(config.Mainnet)
	require.NoError(t, err)
	return tokens
}

func findTestToken(t *testing.T, symbol string) model.Token {
	token, ok := config.FindToken(testTokens(t), symbol)
	require.True(t, ok)
	return token
}

func validCreate() CreateRequest {
	return CreateRequest{
		OriginChain: "solana",
		OriginToken: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Token:       "USDC",
		Amount:      "5000000",
	}
}

func TestCreateIssuesLink(t *testing.T) {
	quotes := &fakeQuotes{quote: &model.Quote{ID: "q1"}}
	svc := NewService(quotes, &fakeChain{}, "https://claim.test", testTokens(t))

	c, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.Equal(t, StateLinkIssued, c.State)
	assert.Equal(t, "bridge-tx", c.FundingTx)
	require.NotNil(t, c.Link)

	// the link alone controls the one-time address
	parsed, err := ParseLink(c.Link.String())
	require.NoError(t, err)
	assert.Equal(t, c.OneTimeAddress, parsed.SecretKey.PublicKey())
	assert.Equal(t, "USDC", parsed.Token)
	assert.Equal(t, "solana", parsed.Chain)

	require.Len(t, quotes.requests, 1)
	req := quotes.requests[0]
	assert.Equal(t, c.OneTimeAddress.String(), req.Recipient)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", req.DestinationCurrency)
	assert.Equal(t, int64(792703809), req.OriginChainID)
	assert.Equal(t, "5000000", req.Amount)
	assert.Equal(t, testFunder.String(), req.User)
}

func TestCreateRejectsUnfundableRequests(t *testing.T) {
	quotes := &fakeQuotes{quote: &model.Quote{}}
	svc := NewService(quotes, &fakeChain{}, "https://claim.test", testTokens(t))

	// known to the bridge, but only Solana transactions can be signed here
	foreign := validCreate()
	foreign.OriginChain = "ethereum"
	c, err := svc.Create(context.Background(), foreign)
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, c)

	upper := validCreate()
	upper.OriginChain = "Solana"
	_, err = svc.Create(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, 1, quotes.quoteCalls())

	unfunded := &fakeQuotes{quote: &model.Quote{}, noFunder: true}
	svc = NewService(unfunded, &fakeChain{}, "https://claim.test", testTokens(t))
	c, err = svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrFunderUnavailable)
	assert.Nil(t, c)
	assert.Zero(t, unfunded.quoteCalls())
}

func TestCreateUsesFreshAddresses(t *testing.T) {
	svc := NewService(&fakeQuotes{quote: &model.Quote{ID: "q"}}, &fakeChain{}, "https://claim.test", testTokens(t))

	first, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.NotEqual(t, first.OneTimeAddress, second.OneTimeAddress)
}

func TestCreateNoRoute(t *testing.T) {
	quotes := &fakeQuotes{}
	svc := NewService(quotes, &fakeChain{}, "https://claim.test", testTokens(t))

	c, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrNoRoute)
	require.NotNil(t, c)
	assert.Equal(t, StateAbandoned, c.State)
	assert.Nil(t, c.Link)
	assert.Zero(t, quotes.execCalls)
}

func TestCreateQuoteAndExecuteFailures(t *testing.T) {
	svc := NewService(&fakeQuotes{quoteErr: errors.New("bridge down")}, &fakeChain{}, "https://claim.test", testTokens(t))
	c, err := svc.Create(context.Background(), validCreate())
	require.ErrorContains(t, err, "bridge down")
	assert.Equal(t, StateAbandoned, c.State)

	svc = NewService(&fakeQuotes{quote: &model.Quote{}, execErr: errors.New("insufficient funds")}, &fakeChain{}, "https://claim.test", testTokens(t))
	c, err = svc.Create(context.Background(), validCreate())
	require.ErrorContains(t, err, "insufficient funds")
	assert.Equal(t, StateAbandoned, c.State)
	assert.Nil(t, c.Link)
}

func TestCreateFundsNeverArrive(t *testing.T) {
	chain := &fakeChain{fundsErr: context.DeadlineExceeded}
	svc := NewService(&fakeQuotes{quote: &model.Quote{}}, chain, "https://claim.test", testTokens(t))

	c, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateAbandoned, c.State)
	assert.Equal(t, "bridge-tx", c.FundingTx)

	// the bridge already ran, so the link is kept for recovery
	require.NotNil(t, c.Link)
	assert.Equal(t, c.OneTimeAddress, c.Link.SecretKey.PublicKey())
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&fakeQuotes{quote: &model.Quote{}}, &fakeChain{}, "https://claim.test", testTokens(t))

	unknownToken := validCreate()
	unknownToken.Token = "DOGE"
	_, err := svc.Create(context.Background(), unknownToken)
	require.ErrorIs(t, err, ErrUnknownToken)

	unknownChain := validCreate()
	unknownChain.OriginChain = "dogechain"
	_, err = svc.Create(context.Background(), unknownChain)
	require.ErrorIs(t, err, ErrInvalidRequest)

	badAmount := validCreate()
	badAmount.Amount = "1.5"
	_, err = svc.Create(context.Background(), badAmount)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateCooldown(t *testing.T) {
	quotes := &fakeQuotes{}
	svc := NewService(quotes, &fakeChain{}, "https://claim.test", testTokens(t), WithCooldown(time.Hour))

	// abandoned attempts do not start the cooldown
	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrNoRoute)

	quotes.quote = &model.Quote{}
	_, err = svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	c, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrCooldown)
	assert.Nil(t, c)
}

func TestCreateInFlightDoesNotBlockOthers(t *testing.T) {
	chain := &fakeChain{waiting: make(chan struct{}), release: make(chan struct{})}
	quotes := &fakeQuotes{quote: &model.Quote{}}
	svc := NewService(quotes, chain, "https://claim.test", testTokens(t), WithCooldown(time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(context.Background(), validCreate())
		done <- err
	}()
	<-chain.waiting

	// the pending creation holds the cooldown slot without holding the service
	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrCooldown)

	bad := validCreate()
	bad.Token = "DOGE"
	_, err = svc.Create(context.Background(), bad)
	require.ErrorIs(t, err, ErrUnknownToken)

	close(chain.release)
	require.NoError(t, <-done)

	_, err = svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, 1, quotes.quoteCalls())
}

func TestCreateFailedAttemptFreesCooldown(t *testing.T) {
	chain := &fakeChain{fundsErr: context.DeadlineExceeded}
	svc := NewService(&fakeQuotes{quote: &model.Quote{}}, chain, "https://claim.test", testTokens(t), WithCooldown(time.Hour))

	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	chain.fundsErr = nil
	c, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, StateLinkIssued, c.State)
}

func issueTestLink(t *testing.T) (string, solana.PrivateKey) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	link, err := NewLink("https://claim.test", key, "solana", "USDC")
	require.NoError(t, err)
	return link.String(), key
}

func TestInspect(t *testing.T) {
	raw, key := issueTestLink(t)
	chain := &fakeChain{
		balances: &model.Balances{
			Lamports: 2_000_000,
			Tokens:   []model.TokenBalance{{Token: findTestToken(t, "USDC"), Amount: 5_000_000}},
		},
		activity: []model.Activity{{Signature: "sig1", Success: true}},
	}
	prices := &fakePrices{}
	svc := NewService(&fakeQuotes{}, chain, "https://claim.test", testTokens(t), WithPriceFeed(prices))

	insp, err := svc.Inspect(context.Background(), raw)
	require.NoError(t, err)

	assert.False(t, insp.IsEmpty())
	assert.Equal(t, key.PublicKey(), insp.Balances.Owner)
	assert.Empty(t, insp.Link.SecretKey)
	assert.ElementsMatch(t, []string{"solana", "usd-coin"}, prices.ids)
	assert.Equal(t, "150", insp.Prices["solana"].String())
	assert.Len(t, insp.Activity, 1)
}

func TestInspectEmptySkipsPrices(t *testing.T) {
	raw, _ := issueTestLink(t)
	prices := &fakePrices{}
	svc := NewService(&fakeQuotes{}, &fakeChain{balances: &model.Balances{}}, "https://claim.test", testTokens(t), WithPriceFeed(prices))

	insp, err := svc.Inspect(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, insp.IsEmpty())
	assert.Nil(t, prices.ids)

	_, err = svc.Inspect(context.Background(), "https://claim.test/claim/nope")
	require.ErrorIs(t, err, ErrInvalidLink)
}

func TestRedeem(t *testing.T) {
	raw, key := issueTestLink(t)
	destination, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	chain := &fakeChain{balances: &model.Balances{
		Lamports: 3_000_000,
		Tokens:   []model.TokenBalance{{Token: findTestToken(t, "WSOL"), Amount: 1_000_000}},
	}}
	svc := NewService(&fakeQuotes{}, chain, "https://claim.test", testTokens(t))

	c, err := svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: destination.PublicKey().String()})
	require.NoError(t, err)

	assert.Equal(t, StateClaimed, c.State)
	assert.Equal(t, "sweep-tx", c.ClaimTx)
	require.NotNil(t, chain.swept)
	assert.Equal(t, key.PublicKey(), chain.swept.Owner.PublicKey())
	assert.Equal(t, destination.PublicKey(), chain.swept.Destination)
	assert.Nil(t, chain.swept.FeePayer)
	assert.Len(t, chain.swept.Balances.Tokens, 1)
}

func TestRedeemSponsored(t *testing.T) {
	raw, _ := issueTestLink(t)
	destination, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sponsor, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// token only, cannot pay its own fee
	chain := &fakeChain{balances: &model.Balances{
		Tokens: []model.TokenBalance{{Token: findTestToken(t, "USDC"), Amount: 1_000_000}},
	}}

	svc := NewService(&fakeQuotes{}, chain, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: destination.PublicKey().String()})
	require.ErrorIs(t, err, ErrFeesRequired)

	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: destination.PublicKey().String(), Sponsored: true})
	require.ErrorIs(t, err, ErrSponsorUnavailable)

	svc = NewService(&fakeQuotes{}, chain, "https://claim.test", testTokens(t), WithSponsor(sponsor))
	c, err := svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: destination.PublicKey().String(), Sponsored: true})
	require.NoError(t, err)
	assert.Equal(t, StateClaimed, c.State)
	assert.Equal(t, sponsor.PublicKey(), chain.swept.FeePayer.PublicKey())
}

func TestRedeemFailures(t *testing.T) {
	raw, key := issueTestLink(t)
	destination, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	dest := destination.PublicKey().String()

	svc := NewService(&fakeQuotes{}, &fakeChain{balances: &model.Balances{}}, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: dest})
	require.ErrorIs(t, err, ErrLinkEmpty)

	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: "https://claim.test/claim/x#y", Destination: dest})
	require.ErrorIs(t, err, ErrInvalidLink)

	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: "not-an-address"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: key.PublicKey().String()})
	require.Error(t, err)

	funded := &model.Balances{Lamports: 1_000_000}
	svc = NewService(&fakeQuotes{}, &fakeChain{balances: funded, sweepErr: errors.New("blockhash expired")}, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: dest})
	require.ErrorContains(t, err, "blockhash expired")

	svc = NewService(&fakeQuotes{}, &fakeChain{balances: funded, confirmErr: errors.New("transaction failed")}, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: dest})
	require.ErrorContains(t, err, "transaction failed")
}

func TestRedeemMapsSweepPlanErrors(t *testing.T) {
	raw, _ := issueTestLink(t)
	destination, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	dest := destination.PublicKey().String()

	// enough for a signature, not for the destination token account rent
	balances := &model.Balances{
		Lamports: 10_000,
		Tokens:   []model.TokenBalance{{Token: findTestToken(t, "USDC"), Amount: 1_000_000}},
	}
	rentShort := fmt.Errorf("%w: need 2044280 lamports, have 10000", model.ErrInsufficientFees)
	svc := NewService(&fakeQuotes{}, &fakeChain{balances: balances, sweepErr: rentShort}, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: dest})
	require.ErrorIs(t, err, ErrFeesRequired)
	assert.ErrorContains(t, err, "2044280")

	svc = NewService(&fakeQuotes{}, &fakeChain{balances: &model.Balances{Lamports: 5000}, sweepErr: model.ErrNothingToSweep}, "https://claim.test", testTokens(t))
	_, err = svc.Redeem(context.Background(), RedeemRequest{Link: raw, Destination: dest})
	require.ErrorIs(t, err, ErrLinkEmpty)
}
