package hash

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/quorumsig/tecdsa/internal/params"
)

// DigestLengthBytes is the length of Sum output.
const DigestLengthBytes = params.SecBytes

// Hash is the hash function used for key identifiers, encryption key streams
// and challenge derivation.
//
// Internally this is a wrapper around blake3, used as an extendable-output
// function with explicit domain separation for every written value.
type Hash struct {
	h *blake3.Hasher
}

// New creates a fresh Hash state.
func New() *Hash {
	return &Hash{h: blake3.New()}
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of pseudorandom bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny writes the given values to the hash state, domain separating each one.
//
// Supported types:
//
//   - []byte
//   - uint32
//   - WriterToWithDomain
//
// The first two get a default domain; the last one brings its own.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var err error
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
		case uint32:
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, t)
			err = writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "uint32",
				Bytes:     buf,
			})
		case WriterToWithDomain:
			err = writeWithDomain(hash.h, t)
		default:
			panic(fmt.Sprintf("hash.WriteAny: unsupported type %T", d))
		}
		if err != nil {
			return fmt.Errorf("hash.WriteAny: %w", err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
