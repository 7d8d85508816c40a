package generator

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// solAddress derives a Solana-style mint address: an Ed25519 public key for
// a random seed, base58 encoded.
func solAddress(r Rand) (string, error) {
	seed := randomBytes(r, 32)

	scalar, err := edwards25519.NewScalar().SetBytesWithClamping(seed)
	if err != nil {
		return "", fmt.Errorf("derive scalar: %w", err)
	}
	point := new(edwards25519.Point).ScalarBaseMult(scalar)
	return base58.Encode(point.Bytes()), nil
}

// IsSolAddress reports whether s decodes to a 32-byte point on the
// Ed25519 curve.
func IsSolAddress(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// solContractID renders the short contract label shown for SOL launches,
// e.g. "SUNN...pump".
func solContractID(symbol string) string {
	prefix := symbol
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return prefix + "...pump"
}

// bnbAddress returns a random 20-byte EVM address.
func bnbAddress(r Rand) string {
	return "0x" + hex.EncodeToString(randomBytes(r, 20))
}

// bnbContractID renders the short contract label for BNB launches,
// e.g. "0x1a2b3c4d...bsc".
func bnbContractID(r Rand) string {
	return "0x" + hex.EncodeToString(randomBytes(r, 4)) + "...bsc"
}

func randomBytes(r Rand, n int) []byte {
	buf := make([]byte, (n+7)/8*8)
	for i := 0; i < len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], r.Uint64())
	}
	return buf[:n]
}
