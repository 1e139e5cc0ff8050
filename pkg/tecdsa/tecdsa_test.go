package tecdsa_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsig/tecdsa/internal/test"
	"github.com/quorumsig/tecdsa/pkg/tecdsa"
)

var signingContext = []byte("tecdsa-test-context")

func newInputs(t *testing.T, committee *test.Committee) (*tecdsa.SigInputs, *test.SigningSetup) {
	t.Helper()
	setup, err := committee.NewSigningSetup(rand.Reader, signingContext)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("message to sign"))
	inputs := &tecdsa.SigInputs{
		DerivationPath:   &tecdsa.DerivationPath{Caller: []byte("caller"), Path: [][]byte{[]byte("account"), {0, 0, 0, 7}}},
		HashedMessage:    digest[:],
		Key:              setup.Key,
		Kappa:            setup.Kappa,
		Lambda:           setup.Lambda,
		KappaTimesLambda: setup.KappaTimesLambda,
		KeyTimesLambda:   setup.KeyTimesLambda,
	}
	_, err = rand.Read(inputs.Nonce[:])
	require.NoError(t, err)
	return inputs, setup
}

func signShares(t *testing.T, inputs *tecdsa.SigInputs, setup *test.SigningSetup, signers []uint32) map[uint32]*tecdsa.SigShare {
	t.Helper()
	shares := make(map[uint32]*tecdsa.SigShare, len(signers))
	for _, i := range signers {
		share, err := tecdsa.SignShare(inputs, i, setup.LambdaOpenings[i], setup.KappaLambdaOpenings[i], setup.KeyLambdaOpenings[i])
		require.NoError(t, err)
		shares[i] = share
	}
	return shares
}

func TestThresholdSigning(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, setup := newInputs(t, committee)

	publicKey, err := tecdsa.DerivePublicKey(inputs.Key, inputs.DerivationPath, inputs.Nonce[:])
	require.NoError(t, err)

	// Any threshold sized subset of signers produces the same valid signature.
	sig1, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{0, 1}))
	require.NoError(t, err)
	require.NoError(t, sig1.Verify(publicKey, inputs.HashedMessage))
	assert.False(t, sig1.S.IsOverHalfOrder())

	sig2, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{2, 3}))
	require.NoError(t, err)
	require.NoError(t, sig2.Verify(publicKey, inputs.HashedMessage))
	assert.True(t, sig1.R.Equal(sig2.R))
	assert.True(t, sig1.S.Equal(sig2.S))
}

func TestTooFewShares(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, setup := newInputs(t, committee)

	_, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{1}))
	assert.Error(t, err)
}

func TestSignShareRejectsForeignOpenings(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, setup := newInputs(t, committee)

	// Signer 0 presenting signer 1's openings must be rejected.
	_, err := tecdsa.SignShare(inputs, 0, setup.LambdaOpenings[1], setup.KappaLambdaOpenings[1], setup.KeyLambdaOpenings[1])
	assert.Error(t, err)
}

func TestSignatureBindsDerivationAndMessage(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, setup := newInputs(t, committee)

	publicKey, err := tecdsa.DerivePublicKey(inputs.Key, inputs.DerivationPath, inputs.Nonce[:])
	require.NoError(t, err)
	sig, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{0, 2}))
	require.NoError(t, err)

	otherDigest := sha256.Sum256([]byte("a different message"))
	assert.Error(t, sig.Verify(publicKey, otherDigest[:]))

	otherPath := &tecdsa.DerivationPath{Caller: []byte("someone else")}
	otherKey, err := tecdsa.DerivePublicKey(inputs.Key, otherPath, inputs.Nonce[:])
	require.NoError(t, err)
	assert.Error(t, sig.Verify(otherKey, inputs.HashedMessage))
}

func TestMasterKeySigning(t *testing.T) {
	// An empty derivation path still tweaks the key, but the flow is identical.
	committee := test.NewCommittee(rand.Reader, 3, 2)
	inputs, setup := newInputs(t, committee)
	inputs.DerivationPath = &tecdsa.DerivationPath{}

	publicKey, err := tecdsa.DerivePublicKey(inputs.Key, inputs.DerivationPath, inputs.Nonce[:])
	require.NoError(t, err)
	sig, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{0, 1, 2}))
	require.NoError(t, err)
	assert.NoError(t, sig.Verify(publicKey, inputs.HashedMessage))
}

func TestSigInputsValidate(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, _ := newInputs(t, committee)

	require.NoError(t, inputs.Validate())

	swapped := *inputs
	swapped.Key, swapped.Lambda = inputs.Lambda, inputs.Key
	assert.Error(t, swapped.Validate())

	missing := *inputs
	missing.KappaTimesLambda = nil
	assert.Error(t, missing.Validate())

	noMessage := *inputs
	noMessage.HashedMessage = nil
	assert.Error(t, noMessage.Validate())
}

func TestSignatureSerialization(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 4, 2)
	inputs, setup := newInputs(t, committee)

	sig, err := tecdsa.CombineSigShares(inputs, committee.Threshold, signShares(t, inputs, setup, []uint32{0, 3}))
	require.NoError(t, err)

	data := sig.Serialize()
	require.Len(t, data, 64)
	decoded, err := tecdsa.Deserialize(data)
	require.NoError(t, err)
	assert.True(t, sig.R.Equal(decoded.R))
	assert.True(t, sig.S.Equal(decoded.S))

	_, err = tecdsa.Deserialize(data[:63])
	assert.Error(t, err)
}

func TestDerivePublicKeyDiffersPerPath(t *testing.T) {
	committee := test.NewCommittee(rand.Reader, 3, 2)
	setup, err := committee.NewSigningSetup(rand.Reader, signingContext)
	require.NoError(t, err)

	nonce := make([]byte, 32)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	first, err := tecdsa.DerivePublicKey(setup.Key, &tecdsa.DerivationPath{Caller: []byte("a")}, nonce)
	require.NoError(t, err)
	second, err := tecdsa.DerivePublicKey(setup.Key, &tecdsa.DerivationPath{Caller: []byte("b")}, nonce)
	require.NoError(t, err)
	assert.False(t, first.Equal(second))
}
