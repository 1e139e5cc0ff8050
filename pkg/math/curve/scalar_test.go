package curve

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScalar(t *testing.T) *Scalar {
	t.Helper()
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return NewScalar().SetBytes(buf)
}

func TestScalarArithmetic(t *testing.T) {
	x := randomScalar(t)
	y := randomScalar(t)

	sum := NewScalar().Add(x, y)
	diff := NewScalar().Subtract(sum, y)
	assert.True(t, diff.Equal(x), "x + y - y should equal x")

	prod := NewScalar().Multiply(x, y)
	quot := NewScalar().Multiply(prod, NewScalar().Invert(y))
	assert.True(t, quot.Equal(x), "x * y / y should equal x")

	neg := NewScalar().Negate(x)
	zero := NewScalar().Add(x, neg)
	assert.True(t, zero.IsZero(), "x + (-x) should be zero")
}

func TestScalarMultiplyAdd(t *testing.T) {
	x := randomScalar(t)
	y := randomScalar(t)
	z := randomScalar(t)

	expected := NewScalar().Multiply(x, y)
	expected.Add(expected, z)

	got := NewScalar().MultiplyAdd(x, y, z)
	assert.True(t, got.Equal(expected))
}

func TestScalarMarshalRoundTrip(t *testing.T) {
	x := randomScalar(t)
	data, err := x.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 32)

	y := NewScalar()
	require.NoError(t, y.UnmarshalBinary(data))
	assert.True(t, x.Equal(y))
}

func TestScalarUnmarshalRejectsOverflow(t *testing.T) {
	over := make([]byte, 32)
	for i := range over {
		over[i] = 0xff
	}
	err := NewScalar().UnmarshalBinary(over)
	assert.Error(t, err)
}

func TestScalarInvertZeroPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewScalar().Invert(NewScalar())
	})
}
