package curve

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/quorumsig/tecdsa/internal/params"
)

// Scalar is an integer modulo the order of the secp256k1 group.
type Scalar struct {
	s secp256k1.ModNScalar
}

// NewScalar returns a new zero Scalar.
func NewScalar() *Scalar {
	return &Scalar{}
}

// NewScalarUInt32 returns a new Scalar set to i.
func NewScalarUInt32(i uint32) *Scalar {
	var s Scalar
	s.s.SetInt(i)
	return &s
}

// Add sets s = x + y mod q, and returns s.
func (s *Scalar) Add(x, y *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Add2(&x.s, &y.s)
	s.s.Set(&r)
	return s
}

// Subtract sets s = x - y mod q, and returns s.
func (s *Scalar) Subtract(x, y *Scalar) *Scalar {
	var negY secp256k1.ModNScalar
	negY.NegateVal(&y.s)
	var r secp256k1.ModNScalar
	r.Add2(&x.s, &negY)
	s.s.Set(&r)
	return s
}

// Multiply sets s = x * y mod q, and returns s.
func (s *Scalar) Multiply(x, y *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Mul2(&x.s, &y.s)
	s.s.Set(&r)
	return s
}

// MultiplyAdd sets s = x * y + z mod q, and returns s.
func (s *Scalar) MultiplyAdd(x, y, z *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Mul2(&x.s, &y.s)
	r.Add(&z.s)
	s.s.Set(&r)
	return s
}

// Negate sets s = -x mod q, and returns s.
func (s *Scalar) Negate(x *Scalar) *Scalar {
	s.s.NegateVal(&x.s)
	return s
}

// Invert sets s to the inverse of the nonzero scalar x, and returns s.
//
// If x is zero, Invert panics.
func (s *Scalar) Invert(x *Scalar) *Scalar {
	if x.IsZero() {
		panic("curve.Scalar.Invert: scalar is zero")
	}
	s.s.InverseValNonConst(&x.s)
	return s
}

// Set sets s = x, and returns s.
func (s *Scalar) Set(x *Scalar) *Scalar {
	s.s.Set(&x.s)
	return s
}

// SetUInt32 sets s = i, and returns s.
func (s *Scalar) SetUInt32(i uint32) *Scalar {
	s.s.SetInt(i)
	return s
}

// SetBytes interprets in as a big-endian integer, reduces it mod q, and returns s.
func (s *Scalar) SetBytes(in []byte) *Scalar {
	s.s.SetByteSlice(in)
	return s
}

// SetNat reduces x mod q and sets s to the result.
func (s *Scalar) SetNat(x *saferith.Nat) *Scalar {
	reduced := new(saferith.Nat).Mod(x, Order())
	buf := make([]byte, params.BytesScalar)
	reduced.FillBytes(buf)
	s.s.SetByteSlice(buf)
	return s
}

// SetHash converts a hash value to a Scalar. There is some disagreement
// about how this is done. [NSA] suggests that this is done in the obvious
// manner, but [SECG] truncates the hash to the bit-length of the curve order
// first. We follow [SECG] because that's what OpenSSL does. Additionally,
// OpenSSL right shifts excess bits from the number if the hash is too large
// and we mirror that too.
//
// Taken from crypto/ecdsa.
func (s *Scalar) SetHash(hash []byte) *Scalar {
	if len(hash) > params.BytesScalar {
		hash = hash[:params.BytesScalar]
	}
	s.s.SetByteSlice(hash)
	return s
}

// Equal returns true if s and t represent the same scalar.
func (s *Scalar) Equal(t *Scalar) bool {
	return s.s.Equals(&t.s)
}

// IsZero returns true if s is zero.
func (s *Scalar) IsZero() bool {
	return s.s.IsZero()
}

// IsOverHalfOrder returns true if s > q/2, which is used for low-S
// normalization of ECDSA signatures.
func (s *Scalar) IsOverHalfOrder() bool {
	return s.s.IsOverHalfOrder()
}

// Bytes returns the canonical 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	data := make([]byte, params.BytesScalar)
	s.s.PutBytesUnchecked(data)
	return data
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Scalar) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesScalar {
		return fmt.Errorf("curve.Scalar.UnmarshalBinary: invalid length %d", len(data))
	}
	var scalar secp256k1.ModNScalar
	if scalar.SetByteSlice(data) {
		return errors.New("curve.Scalar.UnmarshalBinary: scalar was >= q")
	}
	s.s.Set(&scalar)
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (s *Scalar) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Scalar) Domain() string { return "secp256k1 Scalar" }
