package idhash

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// Sequence is a monotonic per-chain id counter. The dataset controller owns
// one per chain and hands it to the generators, so ids never repeat within
// a chain for the life of the process.
type Sequence struct {
	chain domain.Chain
	next  atomic.Uint64
}

// NewSequence creates a sequence for chain starting at start.
func NewSequence(chain domain.Chain, start uint64) *Sequence {
	s := &Sequence{chain: chain}
	s.next.Store(start)
	return s
}

// Chain returns the chain the sequence issues ids for.
func (s *Sequence) Chain() domain.Chain {
	return s.chain
}

// Next returns the next id in the chain namespace together with the number
// it was built from.
func (s *Sequence) Next() (string, uint64) {
	n := s.next.Add(1) - 1
	return TokenID(s.chain, n), n
}

// Peek returns the number the next call to Next will use.
func (s *Sequence) Peek() uint64 {
	return s.next.Load()
}

// TokenID formats a chain-scoped token id: "<prefix>-<n>".
func TokenID(chain domain.Chain, n uint64) string {
	return chain.Prefix() + "-" + strconv.FormatUint(n, 10)
}

// ChainOf recovers the chain namespace from a token id.
func ChainOf(id string) (domain.Chain, error) {
	prefix, num, ok := strings.Cut(id, "-")
	if !ok || num == "" {
		return "", fmt.Errorf("%w: malformed token id %q", domain.ErrUnknownChain, id)
	}
	if _, err := strconv.ParseUint(num, 10, 64); err != nil {
		return "", fmt.Errorf("%w: malformed token id %q", domain.ErrUnknownChain, id)
	}
	for _, c := range domain.Chains {
		if c.Prefix() == prefix {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %q", domain.ErrUnknownChain, prefix)
}

// InChain reports whether id belongs to chain's namespace.
func InChain(id string, chain domain.Chain) bool {
	c, err := ChainOf(id)
	return err == nil && c == chain
}
