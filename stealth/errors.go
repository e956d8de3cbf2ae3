package stealth

import "errors"

var (
	// ErrMalformedEncoding is returned for bad prefixes, bad base58, wrong lengths
	// and keys that are not points on the curve
	ErrMalformedEncoding = errors.New("malformed stealth encoding")
	// ErrCryptoPrimitive is returned when a digest, scalar multiplication or
	// keypair construction fails
	ErrCryptoPrimitive = errors.New("stealth crypto primitive failure")
)
