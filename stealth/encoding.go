package stealth

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const (
	// MetaAddressPrefix is prepended to every encoded meta-address
	MetaAddressPrefix = "st1"

	keyLen         = 32
	metaPayloadLen = 2 * keyLen // spending pub ‖ viewing pub
)

// MetaAddress is the receiver's long-lived public identity
type MetaAddress struct {
	SpendingPubKey solana.PublicKey
	ViewingPubKey  solana.PublicKey
}

// String returns the canonical "st1..." encoding
func (m *MetaAddress) String() string {
	return EncodeMetaAddress(m.SpendingPubKey, m.ViewingPubKey)
}

// EncodeMetaAddress encodes both public keys as "st1" + base58(spending ‖ viewing)
func EncodeMetaAddress(spendingPub, viewingPub solana.PublicKey) string {
	buf := make([]byte, 0, metaPayloadLen)
	buf = append(buf, spendingPub[:]...)
	buf = append(buf, viewingPub[:]...)
	return MetaAddressPrefix + base58.Encode(buf)
}

// ParseMetaAddress decodes a meta-address string.
// Returns ErrMalformedEncoding for a wrong prefix, invalid base58 or a payload that is not 64 bytes.
func ParseMetaAddress(s string) (*MetaAddress, error) {
	if !strings.HasPrefix(s, MetaAddressPrefix) {
		return nil, fmt.Errorf("%w: meta-address must start with %q", ErrMalformedEncoding, MetaAddressPrefix)
	}

	raw, err := base58.Decode(strings.TrimPrefix(s, MetaAddressPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: meta-address is not valid base58", ErrMalformedEncoding)
	}
	if len(raw) != metaPayloadLen {
		return nil, fmt.Errorf("%w: meta-address payload is %d bytes, expected %d", ErrMalformedEncoding, len(raw), metaPayloadLen)
	}

	return &MetaAddress{
		SpendingPubKey: solana.PublicKeyFromBytes(raw[:keyLen]),
		ViewingPubKey:  solana.PublicKeyFromBytes(raw[keyLen:]),
	}, nil
}

// EncodeEphemeralKey encodes an ephemeral public key as plain base58
func EncodeEphemeralKey(key []byte) string {
	return base58.Encode(key)
}

// DecodeEphemeralKey decodes a plain base58 ephemeral key.
// The length is not checked here, callers must require 32 bytes.
func DecodeEphemeralKey(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty ephemeral key", ErrMalformedEncoding)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key is not valid base58", ErrMalformedEncoding)
	}
	return raw, nil
}
