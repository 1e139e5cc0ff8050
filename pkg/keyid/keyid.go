// Package keyid derives the stable identifiers under which secrets are
// stored: every stored secret is addressed by a domain separated hash of the
// public value it belongs to.
package keyid

import (
	"encoding/hex"
	"fmt"

	"github.com/quorumsig/tecdsa/internal/hash"
	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// KeyID identifies one stored secret.
type KeyID [32]byte

func (id KeyID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the identifier as a slice.
func (id KeyID) Bytes() []byte {
	out := make([]byte, len(id))
	copy(out, id[:])
	return out
}

// FromBytes parses a KeyID from its 32-byte encoding.
func FromBytes(data []byte) (KeyID, error) {
	var id KeyID
	if len(data) != len(id) {
		return id, fmt.Errorf("keyid: expected %d bytes, got %d", len(id), len(data))
	}
	copy(id[:], data)
	return id, nil
}

func derive(domain string, encoded []byte) KeyID {
	h := hash.New()
	_ = h.WriteAny(hash.BytesWithDomain{TheDomain: domain, Bytes: encoded})
	var id KeyID
	copy(id[:], h.Sum())
	return id
}

// ForCommitment derives the identifier under which the opening of a
// transcript's combined commitment is stored. Identical commitments map to
// the same identifier, which makes transcript loading idempotent.
func ForCommitment(commitment *idkg.PolynomialCommitment) (KeyID, error) {
	encoded, err := commitment.MarshalBinary()
	if err != nil {
		return KeyID{}, fmt.Errorf("keyid: %w", err)
	}
	return derive("Commitment Key ID", encoded), nil
}

// ForPublicKey derives the identifier under which a receiver decryption key
// pair is stored.
func ForPublicKey(publicKey *mega.PublicKey) (KeyID, error) {
	encoded, err := publicKey.MarshalBinary()
	if err != nil {
		return KeyID{}, fmt.Errorf("keyid: %w", err)
	}
	return derive("Receiver Key ID", encoded), nil
}
