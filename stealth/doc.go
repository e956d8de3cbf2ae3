// Package stealth implements stealth meta-addresses and one-time payment
// addresses on Solana keys.
//
// A receiver holds a Wallet (spending and viewing keypairs) and publishes its
// meta-address ("st1" + base58 of both public keys). A sender calls
// DeriveStealthAddress to get a one-time address and an ephemeral public key.
// The receiver recomputes the one-time keypair with DeriveStealthPrivateKey:
//
//	shared  = X25519(ephemeral secret, viewing public) = X25519(viewing secret, ephemeral public)
//	seed    = SHA-256(shared ‖ viewing public)
//	oneTime = Ed25519 keypair from seed
//
// Nothing in this package performs I/O and all functions are safe for
// concurrent use.
package stealth
