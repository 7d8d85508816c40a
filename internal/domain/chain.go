package domain

import (
	"fmt"
	"strings"
)

// Chain selects which token population is active.
type Chain string

const (
	ChainSOL Chain = "SOL"
	ChainBNB Chain = "BNB"
)

// Chains lists every supported chain.
var Chains = []Chain{ChainSOL, ChainBNB}

// String returns the string representation of Chain.
func (c Chain) String() string {
	return string(c)
}

// IsValid checks if the chain is supported.
func (c Chain) IsValid() bool {
	return c == ChainSOL || c == ChainBNB
}

// Prefix returns the id namespace prefix for the chain ("sol", "bnb").
func (c Chain) Prefix() string {
	return strings.ToLower(string(c))
}

// Protocols returns the launch protocols a token on this chain can originate from.
func (c Chain) Protocols() []string {
	switch c {
	case ChainSOL:
		return solProtocols
	case ChainBNB:
		return bnbProtocols
	}
	return nil
}

// QuoteTokens returns the quote assets tokens on this chain trade against.
func (c Chain) QuoteTokens() []string {
	switch c {
	case ChainSOL:
		return solQuoteTokens
	case ChainBNB:
		return bnbQuoteTokens
	}
	return nil
}

// ParseChain parses a case-insensitive chain name.
func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownChain, s)
	}
	return c, nil
}

var (
	solProtocols = []string{
		"Pump", "Mayhem", "Bonk", "Raydium", "Moonshot", "Orca",
		"Jupiter Studio", "Meteora AMM", "Daos.fun", "LaunchLab",
	}
	solQuoteTokens = []string{"SOL", "USDC", "USDT"}

	bnbProtocols   = []string{"PancakeSwap", "BakerySwap", "Biswap", "ApeSwap", "BabySwap"}
	bnbQuoteTokens = []string{"WBNB", "BUSD", "USDT"}
)
