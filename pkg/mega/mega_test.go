package mega

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

func testReceivers(t *testing.T, n int) ([]*PublicKey, []*PrivateKey) {
	t.Helper()
	pubs := make([]*PublicKey, n)
	privs := make([]*PrivateKey, n)
	for i := range pubs {
		pubs[i], privs[i] = GenerateKeyPair(rand.Reader)
	}
	return pubs, privs
}

func TestKeyPairMarshalRoundTrip(t *testing.T) {
	pub, priv := GenerateKeyPair(rand.Reader)

	pubData, err := pub.MarshalBinary()
	require.NoError(t, err)
	var pub2 PublicKey
	require.NoError(t, pub2.UnmarshalBinary(pubData))
	assert.True(t, pub.Equal(&pub2))

	privData, err := priv.MarshalBinary()
	require.NoError(t, err)
	var priv2 PrivateKey
	require.NoError(t, priv2.UnmarshalBinary(privData))
	assert.True(t, priv2.PublicKey().Equal(pub))
}

func TestEncryptSingleRoundTrip(t *testing.T) {
	const n = 4
	pubs, privs := testReceivers(t, n)
	ad := []byte("context")

	shares := make([]*curve.Scalar, n)
	for i := range shares {
		shares[i] = sample.Scalar(rand.Reader)
	}

	c, err := EncryptSingle(rand.Reader, shares, pubs, ad, 2)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		got, err := c.Decrypt(ad, 2, uint32(i), privs[i], pubs[i])
		require.NoError(t, err)
		assert.True(t, got.Equal(shares[i]), "receiver %d", i)
	}

	// A different receiver's key decrypts garbage, not another's share.
	cross, err := c.Decrypt(ad, 2, 0, privs[1], pubs[0])
	require.NoError(t, err)
	assert.False(t, cross.Equal(shares[0]))
}

func TestEncryptPairsRoundTrip(t *testing.T) {
	const n = 3
	pubs, privs := testReceivers(t, n)
	ad := []byte("context")

	shares := make([][2]*curve.Scalar, n)
	for i := range shares {
		shares[i] = [2]*curve.Scalar{sample.Scalar(rand.Reader), sample.Scalar(rand.Reader)}
	}

	c, err := EncryptPairs(rand.Reader, shares, pubs, ad, 0)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		value, mask, err := c.Decrypt(ad, 0, uint32(i), privs[i], pubs[i])
		require.NoError(t, err)
		assert.True(t, value.Equal(shares[i][0]))
		assert.True(t, mask.Equal(shares[i][1]))
	}
}

func TestDecryptBindsAssociatedData(t *testing.T) {
	pubs, privs := testReceivers(t, 1)
	shares := []*curve.Scalar{sample.Scalar(rand.Reader)}

	c, err := EncryptSingle(rand.Reader, shares, pubs, []byte("ad-1"), 0)
	require.NoError(t, err)

	got, err := c.Decrypt([]byte("ad-2"), 0, 0, privs[0], pubs[0])
	require.NoError(t, err)
	assert.False(t, got.Equal(shares[0]))
}

func TestDleqProof(t *testing.T) {
	pub, priv := GenerateKeyPair(rand.Reader)
	_, ephPoint := sample.ScalarPointPair(rand.Reader)
	ad := []byte("complaint context")

	shared, proof, err := ProveDleq(rand.Reader, priv, ephPoint, ad)
	require.NoError(t, err)
	require.NoError(t, proof.Verify(pub, ephPoint, shared, ad))

	// Wrong shared secret fails.
	_, bogus := sample.ScalarPointPair(rand.Reader)
	assert.Error(t, proof.Verify(pub, ephPoint, bogus, ad))

	// Wrong associated data fails.
	assert.Error(t, proof.Verify(pub, ephPoint, shared, []byte("other")))

	// Wrong public key fails.
	otherPub, _ := GenerateKeyPair(rand.Reader)
	assert.Error(t, proof.Verify(otherPub, ephPoint, shared, ad))
}
