package vault_test

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/keyid"
	"github.com/quorumsig/tecdsa/pkg/keystore"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/mega"
	"github.com/quorumsig/tecdsa/pkg/vault"
)

var loadContext = []byte("vault-test-context")

// countingReader counts entropy draws so tests can assert an operation
// consumed none.
type countingReader struct {
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return rand.Read(p)
}

type node struct {
	vault        *vault.LocalVault
	rng          *countingReader
	keyStore     *keystore.InMemory
	openingStore *keystore.InMemory
	publicKey    *mega.PublicKey
	keyID        keyid.KeyID
}

func newNodes(t *testing.T, n int) []*node {
	t.Helper()
	nodes := make([]*node, n)
	for i := range nodes {
		rng := &countingReader{}
		keyStore := keystore.NewInMemory()
		openingStore := keystore.NewInMemory()
		v := vault.NewLocalVault(rng, keyStore, openingStore, zerolog.Nop())

		publicKey, err := v.GenerateKeyPair(idkg.AlgorithmEcdsaSecp256k1)
		require.NoError(t, err)
		id, err := keyid.ForPublicKey(publicKey)
		require.NoError(t, err)

		nodes[i] = &node{
			vault:        v,
			rng:          rng,
			keyStore:     keyStore,
			openingStore: openingStore,
			publicKey:    publicKey,
			keyID:        id,
		}
	}
	return nodes
}

func receiverKeys(nodes []*node) []*mega.PublicKey {
	keys := make([]*mega.PublicKey, len(nodes))
	for i, n := range nodes {
		keys[i] = n.publicKey
	}
	return keys
}

// dealRound has every node deal for the operation and combines the dealings.
func dealRound(t *testing.T, nodes []*node, op *idkg.TranscriptOperation, threshold uint32) (map[uint32]*idkg.Dealing, *idkg.Transcript) {
	t.Helper()
	dealings := make(map[uint32]*idkg.Dealing, len(nodes))
	for i, n := range nodes {
		dealing, err := n.vault.CreateDealing(idkg.AlgorithmEcdsaSecp256k1, loadContext, uint32(i), threshold, receiverKeys(nodes), op)
		require.NoError(t, err)
		dealings[uint32(i)] = dealing
	}
	transcript, err := idkg.CreateTranscript(op, threshold, len(nodes), dealings)
	require.NoError(t, err)
	return dealings, transcript
}

func loadAll(t *testing.T, nodes []*node, dealings map[uint32]*idkg.Dealing, transcript *idkg.Transcript) {
	t.Helper()
	for i, n := range nodes {
		complaints, err := n.vault.LoadTranscript(dealings, loadContext, uint32(i), n.keyID, transcript)
		require.NoError(t, err)
		require.Empty(t, complaints)
	}
}

func TestIdempotentLoad(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, transcript := dealRound(t, nodes, idkg.RandomOp(), 2)

	n := nodes[1]
	before := n.openingStore.Len()
	for i := 0; i < 2; i++ {
		complaints, err := n.vault.LoadTranscript(dealings, loadContext, 1, n.keyID, transcript)
		require.NoError(t, err)
		assert.Empty(t, complaints)
	}
	assert.Equal(t, before+1, n.openingStore.Len())
}

func TestContentAddressing(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, transcript := dealRound(t, nodes, idkg.RandomOp(), 2)

	n := nodes[0]
	_, err := n.vault.LoadTranscript(dealings, loadContext, 0, n.keyID, transcript)
	require.NoError(t, err)
	require.Equal(t, 1, n.openingStore.Len())

	// A distinct transcript value with the same commitment hits the stored
	// opening without touching the dealings at all.
	data, err := transcript.MarshalBinary()
	require.NoError(t, err)
	same := &idkg.Transcript{}
	require.NoError(t, same.UnmarshalBinary(data))

	complaints, err := n.vault.LoadTranscript(nil, loadContext, 0, n.keyID, same)
	require.NoError(t, err)
	assert.Empty(t, complaints)
	assert.Equal(t, 1, n.openingStore.Len())
}

func TestMissingDependency(t *testing.T) {
	nodes := newNodes(t, 4)
	n := nodes[0]

	// A commitment nobody ever loaded an opening for.
	s, p := curve.NewScalarUInt32(7), curve.NewIdentityPoint()
	p.ScalarBaseMult(s)
	unknown := &idkg.PolynomialCommitment{Kind: idkg.CommitSimple, Coefficients: []*curve.Point{p}}

	rngBefore := n.rng.reads
	storeBefore := n.openingStore.Len()
	_, err := n.vault.CreateDealing(idkg.AlgorithmEcdsaSecp256k1, loadContext, 0, 2, receiverKeys(nodes), idkg.ReshareOfUnmaskedOp(unknown))

	var notFound *vault.SecretSharesNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, rngBefore, n.rng.reads)
	assert.Equal(t, storeBefore, n.openingStore.Len())
}

func TestKeyPairUniqueness(t *testing.T) {
	rng := &countingReader{}
	keyStore := keystore.NewInMemory()
	v := vault.NewLocalVault(rng, keyStore, keystore.NewInMemory(), zerolog.Nop())

	first, err := v.GenerateKeyPair(idkg.AlgorithmEcdsaSecp256k1)
	require.NoError(t, err)
	second, err := v.GenerateKeyPair(idkg.AlgorithmEcdsaSecp256k1)
	require.NoError(t, err)
	assert.False(t, first.Equal(second))
	assert.Equal(t, 2, keyStore.Len())

	// Unsupported algorithms are rejected before any entropy or store access.
	rngBefore := rng.reads
	_, err = v.GenerateKeyPair(idkg.AlgorithmUnknown)
	var unsupported *vault.UnsupportedAlgorithmError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, rngBefore, rng.reads)
	assert.Equal(t, 2, keyStore.Len())
}

func TestPrivateKeyNotFound(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, transcript := dealRound(t, nodes, idkg.RandomOp(), 2)

	var missing keyid.KeyID
	_, err := nodes[0].vault.LoadTranscript(dealings, loadContext, 0, missing, transcript)
	var notFound *vault.PrivateKeyNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestComplaintRoundTrip(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, transcript := dealRound(t, nodes, idkg.RandomOp(), 2)

	// Corrupt dealer 0's ciphertext towards receiver 1.
	bad := dealings[0].PairCiphertext.CTexts[1][0]
	bad.Add(bad, curve.NewScalarUInt32(1))

	victim := nodes[1]
	complaints, err := victim.vault.LoadTranscript(dealings, loadContext, 1, victim.keyID, transcript)
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	require.Contains(t, complaints, uint32(0))
	assert.Equal(t, 0, victim.openingStore.Len())

	// Any party can audit the complaint.
	require.NoError(t, idkg.VerifyComplaint(complaints[0], dealings[0], loadContext, 0, 1, victim.publicKey))

	// Honest peers disclose their shares of the corrupted dealing.
	disclosed := make(map[uint32]*idkg.CommitmentOpening)
	for _, openerIndex := range []uint32{0, 2} {
		opener := nodes[openerIndex]
		opening, err := opener.vault.OpenDealing(dealings[0], loadContext, 0, openerIndex, opener.keyID)
		require.NoError(t, err)
		disclosed[openerIndex] = opening
	}

	// A bad opening is rejected and stores nothing.
	wrong := map[uint32]map[uint32]*idkg.CommitmentOpening{
		0: {0: disclosed[2], 2: disclosed[2]},
	}
	err = victim.vault.LoadTranscriptWithOpenings(dealings, wrong, loadContext, 1, victim.keyID, transcript)
	var invalid *vault.InvalidArgumentsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, victim.openingStore.Len())

	// Correct openings repair the share.
	good := map[uint32]map[uint32]*idkg.CommitmentOpening{0: disclosed}
	require.NoError(t, victim.vault.LoadTranscriptWithOpenings(dealings, good, loadContext, 1, victim.keyID, transcript))
	assert.Equal(t, 1, victim.openingStore.Len())

	// The repaired opening serves later loads of the same commitment.
	again, err := victim.vault.LoadTranscript(nil, loadContext, 1, victim.keyID, transcript)
	require.NoError(t, err)
	assert.Empty(t, again)
}

// Two loads of the same transcript value may race "not found, compute,
// insert"; both compute the same opening and the duplicate insert is a no-op.
func TestConcurrentLoad(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, transcript := dealRound(t, nodes, idkg.RandomOp(), 2)

	var group errgroup.Group
	for i, n := range nodes {
		index, n := uint32(i), n
		for j := 0; j < 2; j++ {
			group.Go(func() error {
				complaints, err := n.vault.LoadTranscript(dealings, loadContext, index, n.keyID, transcript)
				if err != nil {
					return err
				}
				if len(complaints) != 0 {
					return fmt.Errorf("receiver %d complained about a consistent transcript", index)
				}
				return nil
			})
		}
	}
	require.NoError(t, group.Wait())
	for _, n := range nodes {
		assert.Equal(t, 1, n.openingStore.Len())
	}
}

func TestConcurrentKeyPairGeneration(t *testing.T) {
	const pairs = 8
	keyStore := keystore.NewInMemory()
	v := vault.NewLocalVault(&countingReader{}, keyStore, keystore.NewInMemory(), zerolog.Nop())

	keys := make([]*mega.PublicKey, pairs)
	var group errgroup.Group
	for i := range keys {
		i := i
		group.Go(func() error {
			pk, err := v.GenerateKeyPair(idkg.AlgorithmEcdsaSecp256k1)
			keys[i] = pk
			return err
		})
	}
	require.NoError(t, group.Wait())

	assert.Equal(t, pairs, keyStore.Len())
	for i := 0; i < pairs; i++ {
		for j := i + 1; j < pairs; j++ {
			assert.False(t, keys[i].Equal(keys[j]))
		}
	}
}

func TestCreateDealingRejectsNilOperation(t *testing.T) {
	nodes := newNodes(t, 2)
	n := nodes[0]

	rngBefore := n.rng.reads
	_, err := n.vault.CreateDealing(idkg.AlgorithmEcdsaSecp256k1, loadContext, 0, 2, receiverKeys(nodes), nil)
	var invalid *vault.InvalidArgumentsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, rngBefore, n.rng.reads)
}

func TestReshareRequiresStoredOpening(t *testing.T) {
	nodes := newNodes(t, 4)
	dealings, masked := dealRound(t, nodes, idkg.RandomOp(), 2)
	loadAll(t, nodes, dealings, masked)

	// With the opening stored, resharing works.
	op := idkg.ReshareOfMaskedOp(masked.CombinedCommitment)
	reshareDealings, unmasked := dealRound(t, nodes, op, 2)
	loadAll(t, nodes, reshareDealings, unmasked)

	assert.Equal(t, idkg.CommitSimple, unmasked.CombinedCommitment.Kind)
	for _, n := range nodes {
		assert.Equal(t, 2, n.openingStore.Len())
	}
}
