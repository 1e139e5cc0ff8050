package curve

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/quorumsig/tecdsa/internal/params"
)

// Point is a point on the secp256k1 curve, including the identity.
type Point struct {
	p secp256k1.JacobianPoint
}

// NewIdentityPoint returns the identity element of the group.
func NewIdentityPoint() *Point {
	return &Point{}
}

// NewBasePoint returns the generator G.
func NewBasePoint() *Point {
	var v Point
	one := NewScalarUInt32(1)
	secp256k1.ScalarBaseMultNonConst(&one.s, &v.p)
	return &v
}

// Set sets v = u, and returns v.
func (v *Point) Set(u *Point) *Point {
	v.p.Set(&u.p)
	return v
}

// Add sets v = p + q, and returns v.
func (v *Point) Add(p, q *Point) *Point {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.p, &q.p, &r)
	v.p.Set(&r)
	return v
}

// Subtract sets v = p - q, and returns v.
func (v *Point) Subtract(p, q *Point) *Point {
	var negQ Point
	negQ.Negate(q)
	return v.Add(p, &negQ)
}

// Negate sets v = -p, and returns v.
func (v *Point) Negate(p *Point) *Point {
	v.p.Set(&p.p)
	if v.IsIdentity() {
		return v
	}
	v.p.Y.Normalize()
	v.p.Y.Negate(1)
	v.p.Y.Normalize()
	return v
}

// ScalarBaseMult sets v = x⋅G, and returns v.
func (v *Point) ScalarBaseMult(x *Scalar) *Point {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&x.s, &r)
	v.p.Set(&r)
	return v
}

// ScalarMult sets v = x⋅q, and returns v.
func (v *Point) ScalarMult(x *Scalar, q *Point) *Point {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&x.s, &q.p, &r)
	v.p.Set(&r)
	return v
}

// Equal returns true if v and u represent the same point.
//
// Neither operand is modified, so points may be read concurrently.
func (v *Point) Equal(u *Point) bool {
	if v.IsIdentity() || u.IsIdentity() {
		return v.IsIdentity() && u.IsIdentity()
	}
	p, q := v.p, u.p
	p.ToAffine()
	q.ToAffine()
	return p.X.Equals(&q.X) && p.Y.Equals(&q.Y)
}

// IsIdentity returns true if v is the identity element.
func (v *Point) IsIdentity() bool {
	return (v.p.X.IsZero() && v.p.Y.IsZero()) || v.p.Z.IsZero()
}

// XScalar returns the affine x-coordinate of v reduced mod q,
// as used for the r component of an ECDSA signature.
func (v *Point) XScalar() *Scalar {
	if v.IsIdentity() {
		panic("curve.Point.XScalar: point is identity")
	}
	p := v.p
	p.ToAffine()
	buf := make([]byte, params.BytesScalar)
	p.X.PutBytesUnchecked(buf)
	s := NewScalar()
	s.s.SetByteSlice(buf)
	return s
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// The identity is encoded as params.BytesPoint zero bytes, every other point
// in the usual 33-byte compressed form.
func (v *Point) MarshalBinary() ([]byte, error) {
	data := make([]byte, params.BytesPoint)
	if v.IsIdentity() {
		return data, nil
	}
	p := v.p
	p.ToAffine()
	format := secp256k1.PubKeyFormatCompressedEven
	if p.Y.IsOdd() {
		format = secp256k1.PubKeyFormatCompressedOdd
	}
	data[0] = format
	p.X.PutBytesUnchecked(data[1:])
	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (v *Point) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesPoint {
		return fmt.Errorf("curve.Point.UnmarshalBinary: invalid length %d", len(data))
	}
	format := data[0]
	if format == 0 {
		for _, b := range data[1:] {
			if b != 0 {
				return errors.New("curve.Point.UnmarshalBinary: malformed identity encoding")
			}
		}
		v.p = secp256k1.JacobianPoint{}
		return nil
	}
	if format != secp256k1.PubKeyFormatCompressedEven && format != secp256k1.PubKeyFormatCompressedOdd {
		return errors.New("curve.Point.UnmarshalBinary: incorrect format")
	}
	var x, y secp256k1.FieldVal
	if x.SetByteSlice(data[1:]) {
		return errors.New("curve.Point.UnmarshalBinary: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&x, format == secp256k1.PubKeyFormatCompressedOdd, &y) {
		return errors.New("curve.Point.UnmarshalBinary: x coordinate not on curve")
	}
	y.Normalize()
	v.p.X.Set(&x)
	v.p.Y.Set(&y)
	v.p.Z.SetInt(1)
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (v *Point) WriteTo(w io.Writer) (int64, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Point) Domain() string { return "secp256k1 Point" }
