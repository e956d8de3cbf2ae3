package config

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/stealth-link/internal/model"
)

// Networks
const (
	Mainnet = "mainnet"
	Devnet  = "devnet"
)

// WrappedSOLMint is the native mint, identical on every cluster
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

var tokens = map[string][]model.Token{
	Mainnet: {
		{Symbol: "SOL", Decimals: 9, CoingeckoID: "solana"},
		{Symbol: "WSOL", Mint: WrappedSOLMint, Decimals: 9, CoingeckoID: "solana", WrappedNative: true},
		{Symbol: "USDC", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6, CoingeckoID: "usd-coin"},
		{Symbol: "USDT", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6, CoingeckoID: "tether"},
	},
	Devnet: {
		{Symbol: "SOL", Decimals: 9, CoingeckoID: "solana"},
		{Symbol: "WSOL", Mint: WrappedSOLMint, Decimals: 9, CoingeckoID: "solana", WrappedNative: true},
		{Symbol: "USDC", Mint: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6, CoingeckoID: "usd-coin"},
	},
}

// chainIDs maps chain names to the ids used by the bridge API
var chainIDs = map[string]int64{
	"solana":   792703809,
	"ethereum": 1,
	"base":     8453,
	"arbitrum": 42161,
	"optimism": 10,
	"polygon":  137,
}

// DestinationChain is the only chain claim links are issued on
const DestinationChain = "solana"

// Tokens returns the token table of a network. The slice is a copy.
func Tokens(network string) ([]model.Token, error) {
	table, ok := tokens[network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", network)
	}
	return append([]model.Token(nil), table...), nil
}

// FindToken looks a token up by symbol (case-insensitive)
func FindToken(table []model.Token, symbol string) (model.Token, bool) {
	for _, t := range table {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return model.Token{}, false
}

// ChainID returns the bridge chain id for a chain name
func ChainID(chain string) (int64, bool) {
	id, ok := chainIDs[strings.ToLower(chain)]
	return id, ok
}
