package claim

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const claimSegment = "claim"

// Link is a bearer claim link:
//
//	{base}/claim/{oneTimeAddress}?chain={chain}&token={token}#{base58(secret)}
//
// The secret travels only in the fragment, which browsers never send to a server.
type Link struct {
	BaseURL        string
	OneTimeAddress solana.PublicKey
	Chain          string
	Token          string
	SecretKey      solana.PrivateKey
}

// NewLink builds a link for a one-time keypair. The key is copied.
func NewLink(baseURL string, key solana.PrivateKey, chain, token string) (*Link, error) {
	if err := checkSecret(key); err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q is not absolute", ErrInvalidLink, baseURL)
	}

	return &Link{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		OneTimeAddress: key.PublicKey(),
		Chain:          chain,
		Token:          token,
		SecretKey:      append(solana.PrivateKey(nil), key...),
	}, nil
}

// String encodes the link
func (l *Link) String() string {
	u, err := url.Parse(l.BaseURL)
	if err != nil {
		return ""
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + claimSegment + "/" + l.OneTimeAddress.String()
	u.RawPath = ""

	query := url.Values{}
	if l.Chain != "" {
		query.Set("chain", l.Chain)
	}
	if l.Token != "" {
		query.Set("token", l.Token)
	}
	u.RawQuery = query.Encode()
	u.Fragment = base58.Encode(l.SecretKey)

	return u.String()
}

// Wipe zeroes the secret key
func (l *Link) Wipe() {
	clear(l.SecretKey)
}

// ParseLink decodes a claim link. Secrets may be the 64-byte key or its 32-byte seed,
// and must belong to the address in the path.
func ParseLink(raw string) (*Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: not an absolute URL", ErrInvalidLink)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != claimSegment {
		return nil, fmt.Errorf("%w: path must end with /%s/{address}", ErrInvalidLink, claimSegment)
	}

	address, err := solana.PublicKeyFromBase58(segments[len(segments)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad address: %v", ErrInvalidLink, err)
	}

	if u.Fragment == "" {
		return nil, fmt.Errorf("%w: missing secret", ErrInvalidLink)
	}
	secret, err := base58.Decode(u.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base58", ErrInvalidLink)
	}
	defer clear(secret)

	var key solana.PrivateKey
	switch len(secret) {
	case ed25519.SeedSize:
		key = solana.PrivateKey(ed25519.NewKeyFromSeed(secret))
	case ed25519.PrivateKeySize:
		key = append(solana.PrivateKey(nil), secret...)
		if err := checkSecret(key); err != nil {
			clear(key)
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: secret is %d bytes", ErrInvalidLink, len(secret))
	}

	if !key.PublicKey().Equals(address) {
		clear(key)
		return nil, fmt.Errorf("%w: secret does not belong to %s", ErrInvalidLink, address)
	}

	base := *u
	base.Path = "/" + strings.Join(segments[:len(segments)-2], "/")
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	query := u.Query()
	return &Link{
		BaseURL:        strings.TrimRight(base.String(), "/"),
		OneTimeAddress: address,
		Chain:          query.Get("chain"),
		Token:          query.Get("token"),
		SecretKey:      key,
	}, nil
}

// checkSecret verifies a 64-byte key is self-consistent
func checkSecret(key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: secret is %d bytes", ErrInvalidLink, len(key))
	}
	rebuilt := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	defer clear(rebuilt)

	if !bytes.Equal(rebuilt[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return fmt.Errorf("%w: secret public half does not match its seed", ErrInvalidLink)
	}
	return nil
}
