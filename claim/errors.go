package claim

import "errors"

var (
	// ErrInvalidLink is returned for links that cannot be parsed or whose secret does not match the address
	ErrInvalidLink = errors.New("invalid claim link")
	// ErrInvalidTransition is returned when a claim is moved out of order
	ErrInvalidTransition = errors.New("invalid claim state transition")
	// ErrNoRoute is returned when the bridge has no route for the request
	ErrNoRoute = errors.New("no bridge route")
	// ErrLinkEmpty is returned when the one-time address holds nothing to claim
	ErrLinkEmpty = errors.New("claim link is empty")
	// ErrCooldown is returned when claims are created too quickly
	ErrCooldown = errors.New("claim creation is cooling down")
	// ErrInvalidRequest is returned for unsupported chains, bad amounts and bad destinations
	ErrInvalidRequest = errors.New("invalid claim request")
	// ErrUnknownToken is returned for tokens missing from the token table
	ErrUnknownToken = errors.New("unknown token")
	// ErrFunderUnavailable is returned when no key is configured to fund claims
	ErrFunderUnavailable = errors.New("claim funding key not configured")
	// ErrSponsorUnavailable is returned for sponsored redeems without a configured sponsor
	ErrSponsorUnavailable = errors.New("fee sponsor not configured")
	// ErrFeesRequired is returned when the link cannot pay its own fees and no sponsor was asked for
	ErrFeesRequired = errors.New("claim link cannot pay its own fees, redeem with a sponsor")
)
