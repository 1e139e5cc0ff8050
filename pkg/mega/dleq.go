package mega

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/internal/hash"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

// DleqProof is a Chaum-Pedersen proof that log_G(A) = log_E(S), i.e. that a
// disclosed DH shared secret S really was computed with the private key
// behind the public key A. It is the evidence carried by a complaint.
type DleqProof struct {
	Challenge *curve.Scalar
	Response  *curve.Scalar
}

func dleqChallenge(publicKey *PublicKey, ephemeral, shared, t1, t2 *curve.Point, ad []byte) (*curve.Scalar, error) {
	h := hash.New()
	err := h.WriteAny(
		hash.BytesWithDomain{TheDomain: "MEGa DLEQ Challenge", Bytes: ad},
		publicKey,
		ephemeral,
		shared,
		t1,
		t2,
	)
	if err != nil {
		return nil, fmt.Errorf("mega.dleqChallenge: %w", err)
	}
	return sample.Scalar(h.Digest()), nil
}

// ProveDleq discloses the shared secret S = a⋅E together with a proof of its
// correctness with respect to the prover's key pair.
func ProveDleq(rand io.Reader, sk *PrivateKey, ephemeral *curve.Point, ad []byte) (*curve.Point, *DleqProof, error) {
	shared := sk.DiffieHellman(ephemeral)

	k := sample.Scalar(rand)
	t1 := curve.NewIdentityPoint().ScalarBaseMult(k)
	t2 := curve.NewIdentityPoint().ScalarMult(k, ephemeral)

	challenge, err := dleqChallenge(sk.PublicKey(), ephemeral, shared, t1, t2, ad)
	if err != nil {
		return nil, nil, err
	}

	// z = k + c⋅a
	response := curve.NewScalar().MultiplyAdd(challenge, sk.s, k)
	return shared, &DleqProof{Challenge: challenge, Response: response}, nil
}

// Verify checks the proof against the claimed shared secret.
func (p *DleqProof) Verify(publicKey *PublicKey, ephemeral, shared *curve.Point, ad []byte) error {
	if p == nil || p.Challenge == nil || p.Response == nil {
		return errors.New("mega.DleqProof: incomplete proof")
	}

	// t1 = z⋅G - c⋅A
	t1 := curve.NewIdentityPoint().ScalarBaseMult(p.Response)
	t1.Subtract(t1, curve.NewIdentityPoint().ScalarMult(p.Challenge, publicKey.p))

	// t2 = z⋅E - c⋅S
	t2 := curve.NewIdentityPoint().ScalarMult(p.Response, ephemeral)
	t2.Subtract(t2, curve.NewIdentityPoint().ScalarMult(p.Challenge, shared))

	expected, err := dleqChallenge(publicKey, ephemeral, shared, t1, t2, ad)
	if err != nil {
		return err
	}
	if !expected.Equal(p.Challenge) {
		return errors.New("mega.DleqProof: challenge mismatch")
	}
	return nil
}
