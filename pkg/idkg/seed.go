package idkg

import (
	"io"

	"github.com/quorumsig/tecdsa/internal/hash"
	"github.com/quorumsig/tecdsa/internal/params"
)

// Seed is the randomness drawn for one seeded protocol operation. All
// randomness the operation consumes is expanded deterministically from it.
type Seed [params.BytesSeed]byte

// NewSeed draws a fresh Seed from rand.
func NewSeed(rand io.Reader) (Seed, error) {
	var seed Seed
	_, err := io.ReadFull(rand, seed[:])
	return seed, err
}

// Expand derives an unbounded pseudorandom stream from the seed,
// domain separated per use.
func (s Seed) Expand(domain string) io.Reader {
	h := hash.New()
	_ = h.WriteAny(
		hash.BytesWithDomain{TheDomain: "Seed", Bytes: s[:]},
		hash.BytesWithDomain{TheDomain: "Seed Expansion Domain", Bytes: []byte(domain)},
	)
	return h.Digest()
}
