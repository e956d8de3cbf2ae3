package claim

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/stealth-link/stealth"

	"github.com/gagliardetto/solana-go"
)

// State of a claim link
type State string

const (
	StateCreated    State = "CREATED"
	StateFunded     State = "FUNDED"
	StateLinkIssued State = "LINK_ISSUED"
	StateClaimed    State = "CLAIMED"
	StateAbandoned  State = "ABANDONED"
)

// next lists the forward moves of the happy path
var next = map[State]State{
	StateCreated:    StateFunded,
	StateFunded:     StateLinkIssued,
	StateLinkIssued: StateClaimed,
}

// IsTerminal reports whether no further transition is possible
func (s State) IsTerminal() bool {
	return s == StateClaimed || s == StateAbandoned
}

// Claim is the in-memory record of one claim link.
// Only the link itself is durable, nothing here is persisted.
type Claim struct {
	State           State
	OneTimeAddress  solana.PublicKey
	EphemeralPubKey solana.PublicKey
	FundingTx       string
	ClaimTx         string
	Link            *Link
	Reason          string // why the claim was abandoned
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewClaim starts a claim for a derived payment
func NewClaim(p *stealth.Payment) *Claim {
	now := time.Now().UTC()
	return &Claim{
		State:           StateCreated,
		OneTimeAddress:  p.OneTimeAddress,
		EphemeralPubKey: p.EphemeralPubKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ClaimFromLink rebuilds the claim a link was issued for
func ClaimFromLink(l *Link) *Claim {
	now := time.Now().UTC()
	return &Claim{
		State:          StateLinkIssued,
		OneTimeAddress: l.OneTimeAddress,
		Link:           l,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (c *Claim) advance(to State) error {
	if next[c.State] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.State, to)
	}
	c.State = to
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFunded records the confirmed bridging transaction
func (c *Claim) MarkFunded(txHash string) error {
	if err := c.advance(StateFunded); err != nil {
		return err
	}
	c.FundingTx = txHash
	return nil
}

// IssueLink attaches the link. It must point at the claim's one-time address.
func (c *Claim) IssueLink(l *Link) error {
	if l == nil || !l.OneTimeAddress.Equals(c.OneTimeAddress) {
		return fmt.Errorf("%w: link does not match claim address", ErrInvalidLink)
	}
	if err := c.advance(StateLinkIssued); err != nil {
		return err
	}
	c.Link = l
	return nil
}

// MarkClaimed records the sweep transaction
func (c *Claim) MarkClaimed(txHash string) error {
	if err := c.advance(StateClaimed); err != nil {
		return err
	}
	c.ClaimTx = txHash
	return nil
}

// Abandon ends the claim from any non-terminal state
func (c *Claim) Abandon(reason string) error {
	if c.State.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.State, StateAbandoned)
	}
	c.State = StateAbandoned
	c.Reason = reason
	c.UpdatedAt = time.Now().UTC()
	return nil
}
