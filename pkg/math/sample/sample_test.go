package sample

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarNonZero(t *testing.T) {
	for i := 0; i < 32; i++ {
		s := Scalar(rand.Reader)
		require.False(t, s.IsZero())
	}
}

func TestScalarDeterministic(t *testing.T) {
	seed := make([]byte, 64)
	_, err := rand.Read(seed)
	require.NoError(t, err)

	a := Scalar(bytes.NewReader(seed))
	b := Scalar(bytes.NewReader(seed))
	assert.True(t, a.Equal(b), "same reader contents should give the same scalar")
}

func TestScalarDistinct(t *testing.T) {
	a := Scalar(rand.Reader)
	b := Scalar(rand.Reader)
	assert.False(t, a.Equal(b))
}
