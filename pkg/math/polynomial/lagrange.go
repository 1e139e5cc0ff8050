package polynomial

import (
	"fmt"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
)

// IndexScalar maps a zero-based node index to its interpolation point x = index + 1,
// keeping 0 out of the evaluation domain.
func IndexScalar(index uint32) *curve.Scalar {
	return curve.NewScalarUInt32(index + 1)
}

// LagrangeCoefficientsAt returns the Lagrange coefficients {lⱼ(at)} for the
// interpolation domain given by the node indices, so that for a polynomial f
// of degree < len(indices):
//
//	f(at) = Σⱼ lⱼ(at)⋅f(xⱼ)    with xⱼ = indices[j] + 1.
//
// The formulas are taken from https://en.wikipedia.org/wiki/Lagrange_polynomial:
//
//	lⱼ(at) = Πᵢ≠ⱼ (at - xᵢ)/(xⱼ - xᵢ).
func LagrangeCoefficientsAt(indices []uint32, at *curve.Scalar) (map[uint32]*curve.Scalar, error) {
	points := make(map[uint32]*curve.Scalar, len(indices))
	for _, index := range indices {
		if _, ok := points[index]; ok {
			return nil, fmt.Errorf("polynomial: duplicate index %d in interpolation domain", index)
		}
		points[index] = IndexScalar(index)
	}

	coefficients := make(map[uint32]*curve.Scalar, len(indices))
	tmp := curve.NewScalar()
	for j, xJ := range points {
		numerator := curve.NewScalarUInt32(1)
		denominator := curve.NewScalarUInt32(1)
		for i, xI := range points {
			if i == j {
				continue
			}
			// numerator *= at - xᵢ
			numerator.Multiply(numerator, tmp.Subtract(at, xI))
			// denominator *= xⱼ - xᵢ
			denominator.Multiply(denominator, tmp.Subtract(xJ, xI))
		}
		lJ := curve.NewScalar().Invert(denominator)
		coefficients[j] = lJ.Multiply(lJ, numerator)
	}
	return coefficients, nil
}

// InterpolateScalars evaluates at `at` the unique polynomial of degree
// < len(shares) passing through the given node-indexed shares.
func InterpolateScalars(shares map[uint32]*curve.Scalar, at *curve.Scalar) (*curve.Scalar, error) {
	indices := make([]uint32, 0, len(shares))
	for index := range shares {
		indices = append(indices, index)
	}
	coefficients, err := LagrangeCoefficientsAt(indices, at)
	if err != nil {
		return nil, err
	}

	result := curve.NewScalar()
	for index, share := range shares {
		result.MultiplyAdd(coefficients[index], share, result)
	}
	return result, nil
}
