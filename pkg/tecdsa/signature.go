package tecdsa

import (
	"errors"
	"fmt"

	"github.com/quorumsig/tecdsa/internal/params"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
)

// Signature is a plain ECDSA signature in scalar form, with s normalized to
// the lower half of the order.
type Signature struct {
	R *curve.Scalar
	S *curve.Scalar
}

// Verify checks the signature on the hashed message against the (derived)
// public key, the standard ECDSA verification equation.
func (sig *Signature) Verify(publicKey *curve.Point, hashedMessage []byte) error {
	if sig == nil || sig.R == nil || sig.S == nil {
		return errors.New("tecdsa.Signature: incomplete signature")
	}
	if sig.R.IsZero() || sig.S.IsZero() {
		return errors.New("tecdsa.Signature: r and s must be nonzero")
	}
	if publicKey == nil || publicKey.IsIdentity() {
		return errors.New("tecdsa.Signature: invalid public key")
	}

	m := curve.NewScalar().SetHash(hashedMessage)
	sInv := curve.NewScalar().Invert(sig.S)

	// R' = (m/s)⋅G + (r/s)⋅PK
	point := curve.NewIdentityPoint().ScalarBaseMult(curve.NewScalar().Multiply(m, sInv))
	point.Add(point, curve.NewIdentityPoint().ScalarMult(curve.NewScalar().Multiply(sig.R, sInv), publicKey))
	if point.IsIdentity() {
		return errors.New("tecdsa.Signature: verification point is the identity")
	}
	if !point.XScalar().Equal(sig.R) {
		return errors.New("tecdsa.Signature: verification failed")
	}
	return nil
}

// Serialize returns the fixed width r || s encoding.
func (sig *Signature) Serialize() []byte {
	out := make([]byte, 2*params.BytesScalar)
	copy(out[:params.BytesScalar], sig.R.Bytes())
	copy(out[params.BytesScalar:], sig.S.Bytes())
	return out
}

// Deserialize parses the fixed width r || s encoding.
func Deserialize(data []byte) (*Signature, error) {
	if len(data) != 2*params.BytesScalar {
		return nil, fmt.Errorf("tecdsa: expected %d signature bytes, got %d", 2*params.BytesScalar, len(data))
	}
	r := curve.NewScalar()
	if err := r.UnmarshalBinary(data[:params.BytesScalar]); err != nil {
		return nil, fmt.Errorf("tecdsa: %w", err)
	}
	s := curve.NewScalar()
	if err := s.UnmarshalBinary(data[params.BytesScalar:]); err != nil {
		return nil, fmt.Errorf("tecdsa: %w", err)
	}
	return &Signature{R: r, S: s}, nil
}
