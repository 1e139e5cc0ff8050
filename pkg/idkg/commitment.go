package idkg

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/polynomial"
)

// CommitmentKind distinguishes the two polynomial commitment schemes in use.
type CommitmentKind uint8

const (
	// CommitSimple is a discrete-log commitment: Cₖ = aₖ⋅G.
	CommitSimple CommitmentKind = iota + 1
	// CommitPedersen is a perfectly hiding commitment: Cₖ = aₖ⋅G + bₖ⋅H.
	CommitPedersen
)

func (k CommitmentKind) String() string {
	switch k {
	case CommitSimple:
		return "simple"
	case CommitPedersen:
		return "pedersen"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// PolynomialCommitment is a public commitment to a secret polynomial,
// one curve point per coefficient.
//
// The number of coefficients equals the reconstruction threshold of the
// sharing it commits to.
type PolynomialCommitment struct {
	Kind         CommitmentKind
	Coefficients []*curve.Point
}

func newSimpleCommitment(values *polynomial.Polynomial) *PolynomialCommitment {
	coefficients := values.Coefficients()
	points := make([]*curve.Point, len(coefficients))
	for i, a := range coefficients {
		points[i] = curve.NewIdentityPoint().ScalarBaseMult(a)
	}
	return &PolynomialCommitment{Kind: CommitSimple, Coefficients: points}
}

func newPedersenCommitment(values, masks *polynomial.Polynomial) *PolynomialCommitment {
	valueCoefficients := values.Coefficients()
	maskCoefficients := masks.Coefficients()
	if len(valueCoefficients) != len(maskCoefficients) {
		panic("idkg: value and mask polynomials differ in degree")
	}
	h := curve.AltBasePoint()
	points := make([]*curve.Point, len(valueCoefficients))
	for i := range points {
		p := curve.NewIdentityPoint().ScalarBaseMult(valueCoefficients[i])
		points[i] = p.Add(p, curve.NewIdentityPoint().ScalarMult(maskCoefficients[i], h))
	}
	return &PolynomialCommitment{Kind: CommitPedersen, Coefficients: points}
}

// Threshold returns the reconstruction threshold of the committed sharing.
func (c *PolynomialCommitment) Threshold() uint32 {
	return uint32(len(c.Coefficients))
}

// Constant returns the commitment to the shared secret itself.
func (c *PolynomialCommitment) Constant() *curve.Point {
	return curve.NewIdentityPoint().Set(c.Coefficients[0])
}

// EvaluateAt evaluates the committed polynomial in the exponent at the
// interpolation point of the given node index, using Horner's method.
func (c *PolynomialCommitment) EvaluateAt(index uint32) *curve.Point {
	x := polynomial.IndexScalar(index)
	result := curve.NewIdentityPoint()
	for i := len(c.Coefficients) - 1; i >= 0; i-- {
		result.ScalarMult(x, result)
		result.Add(result, c.Coefficients[i])
	}
	return result
}

// CheckOpening verifies that the opening matches the commitment at the
// given node index.
func (c *PolynomialCommitment) CheckOpening(index uint32, opening *CommitmentOpening) bool {
	if opening == nil || opening.Value == nil {
		return false
	}
	expected := c.EvaluateAt(index)
	switch c.Kind {
	case CommitSimple:
		if opening.Mask != nil {
			return false
		}
		return curve.NewIdentityPoint().ScalarBaseMult(opening.Value).Equal(expected)
	case CommitPedersen:
		if opening.Mask == nil {
			return false
		}
		got := curve.NewIdentityPoint().ScalarBaseMult(opening.Value)
		got.Add(got, curve.NewIdentityPoint().ScalarMult(opening.Mask, curve.AltBasePoint()))
		return got.Equal(expected)
	default:
		return false
	}
}

// Equal returns true if both commitments have the same kind and coefficients.
func (c *PolynomialCommitment) Equal(other *PolynomialCommitment) bool {
	if c.Kind != other.Kind || len(c.Coefficients) != len(other.Coefficients) {
		return false
	}
	for i := range c.Coefficients {
		if !c.Coefficients[i].Equal(other.Coefficients[i]) {
			return false
		}
	}
	return true
}

func (c *PolynomialCommitment) validate() error {
	if c == nil || len(c.Coefficients) == 0 {
		return errors.New("idkg: empty polynomial commitment")
	}
	if c.Kind != CommitSimple && c.Kind != CommitPedersen {
		return fmt.Errorf("idkg: invalid commitment kind %v", c.Kind)
	}
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (c *PolynomialCommitment) WriteTo(w io.Writer) (int64, error) {
	total := int64(0)
	n, err := w.Write([]byte{byte(c.Kind)})
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, p := range c.Coefficients {
		m, err := p.WriteTo(w)
		total += m
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*PolynomialCommitment) Domain() string { return "Polynomial Commitment" }

// CommitmentOpening is one node's secret share of a committed polynomial:
// the value share, plus the mask share for Pedersen commitments.
type CommitmentOpening struct {
	Value *curve.Scalar
	Mask  *curve.Scalar
}

func (o *CommitmentOpening) validate() error {
	if o == nil || o.Value == nil {
		return errors.New("idkg: empty commitment opening")
	}
	return nil
}
