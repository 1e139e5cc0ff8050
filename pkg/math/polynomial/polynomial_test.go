package polynomial

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

func TestPolynomialConstant(t *testing.T) {
	secret := sample.Scalar(rand.Reader)
	p := NewPolynomial(rand.Reader, 3, secret)
	assert.True(t, p.Constant().Equal(secret))
	assert.Equal(t, 3, p.Degree())
}

func TestPolynomialEvaluateZeroPanics(t *testing.T) {
	p := NewPolynomial(rand.Reader, 2, nil)
	assert.Panics(t, func() {
		p.Evaluate(curve.NewScalar())
	})
}

func TestInterpolateRecoversSecret(t *testing.T) {
	secret := sample.Scalar(rand.Reader)
	degree := 2
	p := NewPolynomial(rand.Reader, degree, secret)

	shares := make(map[uint32]*curve.Scalar)
	for _, index := range []uint32{0, 2, 5} {
		shares[index] = p.Evaluate(IndexScalar(index))
	}

	recovered, err := InterpolateScalars(shares, curve.NewScalar())
	require.NoError(t, err)
	assert.True(t, recovered.Equal(secret))
}

func TestInterpolateAtArbitraryPoint(t *testing.T) {
	p := NewPolynomial(rand.Reader, 1, sample.Scalar(rand.Reader))

	shares := map[uint32]*curve.Scalar{
		1: p.Evaluate(IndexScalar(1)),
		3: p.Evaluate(IndexScalar(3)),
	}

	at := IndexScalar(7)
	got, err := InterpolateScalars(shares, at)
	require.NoError(t, err)
	assert.True(t, got.Equal(p.Evaluate(at)))
}

func TestLagrangeCoefficientsDuplicateIndex(t *testing.T) {
	_, err := LagrangeCoefficientsAt([]uint32{1, 1}, curve.NewScalar())
	assert.Error(t, err)
}

func TestTooFewSharesGiveWrongValue(t *testing.T) {
	secret := sample.Scalar(rand.Reader)
	p := NewPolynomial(rand.Reader, 2, secret)

	shares := map[uint32]*curve.Scalar{
		0: p.Evaluate(IndexScalar(0)),
		1: p.Evaluate(IndexScalar(1)),
	}

	recovered, err := InterpolateScalars(shares, curve.NewScalar())
	require.NoError(t, err)
	assert.False(t, recovered.Equal(secret))
}
