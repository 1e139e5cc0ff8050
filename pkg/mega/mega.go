// Package mega implements the receiver encryption used to transport secret
// shares inside dealings: hashed Diffie-Hellman under a per-dealing ephemeral
// key, with one ciphertext element (or value/mask pair) per receiver.
package mega

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/internal/hash"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

// PublicKey is a receiver's encryption public key A = a⋅G.
type PublicKey struct {
	p *curve.Point
}

// PrivateKey is the matching decryption key a.
type PrivateKey struct {
	s *curve.Scalar
}

// GenerateKeyPair samples a fresh key pair from rand.
func GenerateKeyPair(rand io.Reader) (*PublicKey, *PrivateKey) {
	s, p := sample.ScalarPointPair(rand)
	return &PublicKey{p: p}, &PrivateKey{s: s}
}

// Point returns the public key as a curve point.
func (pk *PublicKey) Point() *curve.Point {
	return curve.NewIdentityPoint().Set(pk.p)
}

// Equal returns true if both keys represent the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.p.Equal(other.p)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return pk.p.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	p := curve.NewIdentityPoint()
	if err := p.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("mega.PublicKey: %w", err)
	}
	if p.IsIdentity() {
		return errors.New("mega.PublicKey: public key is the identity")
	}
	pk.p = p
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (pk *PublicKey) WriteTo(w io.Writer) (int64, error) {
	return pk.p.WriteTo(w)
}

// Domain implements hash.WriterToWithDomain.
func (*PublicKey) Domain() string { return "MEGa Public Key" }

// PublicKey returns the public key corresponding to sk.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{p: curve.NewIdentityPoint().ScalarBaseMult(sk.s)}
}

// DiffieHellman returns a⋅E for the given ephemeral key E.
func (sk *PrivateKey) DiffieHellman(ephemeral *curve.Point) *curve.Point {
	return curve.NewIdentityPoint().ScalarMult(sk.s, ephemeral)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sk *PrivateKey) MarshalBinary() ([]byte, error) {
	return sk.s.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (sk *PrivateKey) UnmarshalBinary(data []byte) error {
	s := curve.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("mega.PrivateKey: %w", err)
	}
	if s.IsZero() {
		return errors.New("mega.PrivateKey: private key is zero")
	}
	sk.s = s
	return nil
}

// CiphertextSingle holds one encrypted scalar per receiver.
type CiphertextSingle struct {
	Ephemeral *curve.Point
	CTexts    []*curve.Scalar
}

// CiphertextPairs holds one encrypted value/mask pair per receiver.
type CiphertextPairs struct {
	Ephemeral *curve.Point
	CTexts    [][2]*curve.Scalar
}

// keyStream derives n pad scalars for one receiver, bound to the associated
// data, both protocol indexes, the DH shared secret and both public values.
func keyStream(n int, ad []byte, dealerIndex, receiverIndex uint32, shared, ephemeral *curve.Point, recipient *PublicKey) ([]*curve.Scalar, error) {
	h := hash.New()
	err := h.WriteAny(
		hash.BytesWithDomain{TheDomain: "MEGa Associated Data", Bytes: ad},
		dealerIndex,
		receiverIndex,
		shared,
		ephemeral,
		recipient,
	)
	if err != nil {
		return nil, fmt.Errorf("mega.keyStream: %w", err)
	}

	digest := h.Digest()
	pads := make([]*curve.Scalar, n)
	for i := range pads {
		pads[i] = sample.Scalar(digest)
	}
	return pads, nil
}

// EncryptSingle encrypts one share per receiver under a fresh ephemeral key.
func EncryptSingle(rand io.Reader, shares []*curve.Scalar, receivers []*PublicKey, ad []byte, dealerIndex uint32) (*CiphertextSingle, error) {
	if len(shares) != len(receivers) {
		return nil, fmt.Errorf("mega.EncryptSingle: %d shares for %d receivers", len(shares), len(receivers))
	}

	eph, ephPoint := sample.ScalarPointPair(rand)
	ctexts := make([]*curve.Scalar, len(shares))
	for i, share := range shares {
		shared := curve.NewIdentityPoint().ScalarMult(eph, receivers[i].p)
		pads, err := keyStream(1, ad, dealerIndex, uint32(i), shared, ephPoint, receivers[i])
		if err != nil {
			return nil, err
		}
		ctexts[i] = curve.NewScalar().Add(share, pads[0])
	}
	return &CiphertextSingle{Ephemeral: ephPoint, CTexts: ctexts}, nil
}

// EncryptPairs encrypts one value/mask pair per receiver under a fresh ephemeral key.
func EncryptPairs(rand io.Reader, shares [][2]*curve.Scalar, receivers []*PublicKey, ad []byte, dealerIndex uint32) (*CiphertextPairs, error) {
	if len(shares) != len(receivers) {
		return nil, fmt.Errorf("mega.EncryptPairs: %d shares for %d receivers", len(shares), len(receivers))
	}

	eph, ephPoint := sample.ScalarPointPair(rand)
	ctexts := make([][2]*curve.Scalar, len(shares))
	for i, share := range shares {
		shared := curve.NewIdentityPoint().ScalarMult(eph, receivers[i].p)
		pads, err := keyStream(2, ad, dealerIndex, uint32(i), shared, ephPoint, receivers[i])
		if err != nil {
			return nil, err
		}
		ctexts[i] = [2]*curve.Scalar{
			curve.NewScalar().Add(share[0], pads[0]),
			curve.NewScalar().Add(share[1], pads[1]),
		}
	}
	return &CiphertextPairs{Ephemeral: ephPoint, CTexts: ctexts}, nil
}

// Decrypt recovers the receiver's share using its private key.
func (c *CiphertextSingle) Decrypt(ad []byte, dealerIndex, receiverIndex uint32, sk *PrivateKey, pk *PublicKey) (*curve.Scalar, error) {
	return c.DecryptWithSecret(c.sharedSecret(sk), ad, dealerIndex, receiverIndex, pk)
}

// DecryptWithSecret recovers a receiver's share from an externally supplied
// DH shared secret, as done when verifying a complaint.
func (c *CiphertextSingle) DecryptWithSecret(shared *curve.Point, ad []byte, dealerIndex, receiverIndex uint32, pk *PublicKey) (*curve.Scalar, error) {
	if int(receiverIndex) >= len(c.CTexts) {
		return nil, fmt.Errorf("mega: receiver index %d out of range", receiverIndex)
	}
	pads, err := keyStream(1, ad, dealerIndex, receiverIndex, shared, c.Ephemeral, pk)
	if err != nil {
		return nil, err
	}
	return curve.NewScalar().Subtract(c.CTexts[receiverIndex], pads[0]), nil
}

func (c *CiphertextSingle) sharedSecret(sk *PrivateKey) *curve.Point {
	return sk.DiffieHellman(c.Ephemeral)
}

// Decrypt recovers the receiver's value/mask pair using its private key.
func (c *CiphertextPairs) Decrypt(ad []byte, dealerIndex, receiverIndex uint32, sk *PrivateKey, pk *PublicKey) (*curve.Scalar, *curve.Scalar, error) {
	return c.DecryptWithSecret(c.sharedSecret(sk), ad, dealerIndex, receiverIndex, pk)
}

// DecryptWithSecret recovers a receiver's value/mask pair from an externally
// supplied DH shared secret.
func (c *CiphertextPairs) DecryptWithSecret(shared *curve.Point, ad []byte, dealerIndex, receiverIndex uint32, pk *PublicKey) (*curve.Scalar, *curve.Scalar, error) {
	if int(receiverIndex) >= len(c.CTexts) {
		return nil, nil, fmt.Errorf("mega: receiver index %d out of range", receiverIndex)
	}
	pads, err := keyStream(2, ad, dealerIndex, receiverIndex, shared, c.Ephemeral, pk)
	if err != nil {
		return nil, nil, err
	}
	value := curve.NewScalar().Subtract(c.CTexts[receiverIndex][0], pads[0])
	mask := curve.NewScalar().Subtract(c.CTexts[receiverIndex][1], pads[1])
	return value, mask, nil
}

func (c *CiphertextPairs) sharedSecret(sk *PrivateKey) *curve.Point {
	return sk.DiffieHellman(c.Ephemeral)
}
