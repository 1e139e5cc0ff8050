package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of ℤₙ by rejection.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for i := 0; i < maxIterations; i++ {
		mustReadBits(rand, buf)
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			return out
		}
	}
	panic(ErrMaxIterations)
}

// Scalar samples a uniform nonzero element of ℤq.
func Scalar(rand io.Reader) *curve.Scalar {
	for i := 0; i < maxIterations; i++ {
		s := curve.NewScalar().SetNat(ModN(rand, curve.Order()))
		if !s.IsZero() {
			return s
		}
	}
	panic(ErrMaxIterations)
}

// ScalarPointPair samples a scalar x and returns it together with x⋅G.
func ScalarPointPair(rand io.Reader) (*curve.Scalar, *curve.Point) {
	s := Scalar(rand)
	return s, curve.NewIdentityPoint().ScalarBaseMult(s)
}
