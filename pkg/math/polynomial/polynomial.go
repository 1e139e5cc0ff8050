package polynomial

import (
	"io"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

// Polynomial represents f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ over ℤq.
type Polynomial struct {
	coefficients []*curve.Scalar
}

// NewPolynomial generates a Polynomial f(X) = constant + a₁⋅X + … + aₜ⋅Xᵗ
// of the given degree, sampling the remaining coefficients from rand.
//
// A nil constant is interpreted as 0.
func NewPolynomial(rand io.Reader, degree int, constant *curve.Scalar) *Polynomial {
	var polynomial Polynomial
	polynomial.coefficients = make([]*curve.Scalar, degree+1)

	if constant == nil {
		constant = curve.NewScalar()
	}
	polynomial.coefficients[0] = curve.NewScalar().Set(constant)

	for i := 1; i <= degree; i++ {
		polynomial.coefficients[i] = sample.Scalar(rand)
	}

	return &polynomial
}

// Evaluate evaluates the polynomial at the given index using Horner's method.
func (p *Polynomial) Evaluate(index *curve.Scalar) *curve.Scalar {
	if index.IsZero() {
		panic("polynomial: attempt to leak secret")
	}

	result := curve.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// bₙ₋₁ = bₙ * x + aₙ₋₁
		result.MultiplyAdd(result, index, p.coefficients[i])
	}
	return result
}

// Constant returns the constant coefficient of the polynomial.
func (p *Polynomial) Constant() *curve.Scalar {
	return p.coefficients[0]
}

// Degree is the highest power of the Polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Coefficients returns the coefficients in ascending degree order.
func (p *Polynomial) Coefficients() []*curve.Scalar {
	return p.coefficients
}
