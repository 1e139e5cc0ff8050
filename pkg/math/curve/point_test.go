package curve

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointArithmetic(t *testing.T) {
	x := randomScalar(t)
	y := randomScalar(t)

	xG := NewIdentityPoint().ScalarBaseMult(x)
	yG := NewIdentityPoint().ScalarBaseMult(y)

	sumScalars := NewScalar().Add(x, y)
	expected := NewIdentityPoint().ScalarBaseMult(sumScalars)
	got := NewIdentityPoint().Add(xG, yG)
	assert.True(t, got.Equal(expected), "xG + yG should equal (x+y)G")

	back := NewIdentityPoint().Subtract(got, yG)
	assert.True(t, back.Equal(xG))

	zero := NewIdentityPoint().Subtract(xG, xG)
	assert.True(t, zero.IsIdentity())
}

func TestPointScalarMult(t *testing.T) {
	x := randomScalar(t)
	y := randomScalar(t)

	xy := NewScalar().Multiply(x, y)
	expected := NewIdentityPoint().ScalarBaseMult(xy)

	yG := NewIdentityPoint().ScalarBaseMult(y)
	got := NewIdentityPoint().ScalarMult(x, yG)
	assert.True(t, got.Equal(expected))
}

func TestPointMarshalRoundTrip(t *testing.T) {
	x := randomScalar(t)
	p := NewIdentityPoint().ScalarBaseMult(x)

	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 33)

	q := NewIdentityPoint()
	require.NoError(t, q.UnmarshalBinary(data))
	assert.True(t, p.Equal(q))
}

func TestPointMarshalIdentity(t *testing.T) {
	data, err := NewIdentityPoint().MarshalBinary()
	require.NoError(t, err)

	p := NewBasePoint()
	require.NoError(t, p.UnmarshalBinary(data))
	assert.True(t, p.IsIdentity())
}

// Equal, XScalar and MarshalBinary must leave the operand untouched so that
// a shared point can be read from several goroutines at once.
func TestPointReadsDoNotMutate(t *testing.T) {
	x := randomScalar(t)
	p := NewIdentityPoint().ScalarBaseMult(x)
	q := NewIdentityPoint().ScalarBaseMult(x)

	before := p.p
	_, err := p.MarshalBinary()
	require.NoError(t, err)
	_ = p.XScalar()
	require.True(t, p.Equal(q))
	assert.True(t, before == p.p, "read-only operations rewrote the representation")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 64; j++ {
				_, _ = p.MarshalBinary()
				_ = p.XScalar()
				_ = p.Equal(q)
				_ = NewIdentityPoint().ScalarMult(x, p)
			}
		}()
	}
	wg.Wait()
}

func TestAltBasePoint(t *testing.T) {
	h := AltBasePoint()
	require.False(t, h.IsIdentity())
	assert.False(t, h.Equal(NewBasePoint()), "H must differ from G")

	// The derivation is deterministic.
	assert.True(t, h.Equal(AltBasePoint()))
}
