// Command example runs a 3 party, threshold 2 signing committee in one
// process: key generation, the five transcript rounds, and a threshold ECDSA
// signature combined from two of the three shares.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quorumsig/tecdsa/pkg/csp"
	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/keyid"
	"github.com/quorumsig/tecdsa/pkg/keystore"
	"github.com/quorumsig/tecdsa/pkg/mega"
	"github.com/quorumsig/tecdsa/pkg/tecdsa"
	"github.com/quorumsig/tecdsa/pkg/vault"
)

const (
	numParties = 3
	threshold  = 2
	algorithm  = idkg.AlgorithmEcdsaSecp256k1
)

var sessionContext = []byte("example-signing-session")

type node struct {
	index     uint32
	csp       *csp.Csp
	publicKey *mega.PublicKey
	keyID     keyid.KeyID
}

func newNode(index uint32, logger zerolog.Logger) (*node, error) {
	logger = logger.With().Uint32("node", index).Logger()
	v := vault.NewLocalVault(rand.Reader, keystore.NewInMemory(), keystore.NewInMemory(), logger)
	c := csp.New(v, logger)

	publicKey, id, err := c.GenerateKeyPair(algorithm)
	if err != nil {
		return nil, err
	}
	return &node{index: index, csp: c, publicKey: publicKey, keyID: id}, nil
}

func receiverKeys(nodes []*node) []*mega.PublicKey {
	keys := make([]*mega.PublicKey, len(nodes))
	for i, n := range nodes {
		keys[i] = n.publicKey
	}
	return keys
}

// runRound plays one dealing round: everyone deals concurrently, node 0
// combines, everyone verifies and loads.
func runRound(nodes []*node, op *idkg.TranscriptOperation) (*idkg.Transcript, error) {
	keys := receiverKeys(nodes)
	dealings := make([]*idkg.Dealing, len(nodes))

	var g errgroup.Group
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			dealing, err := n.csp.CreateDealing(algorithm, sessionContext, n.index, threshold, keys, op)
			dealings[n.index] = dealing
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byDealer := make(map[uint32]*idkg.Dealing, len(dealings))
	for i, dealing := range dealings {
		byDealer[uint32(i)] = dealing
	}
	transcript, err := nodes[0].csp.CreateTranscript(algorithm, op, threshold, len(nodes), byDealer)
	if err != nil {
		return nil, err
	}

	var load errgroup.Group
	for _, n := range nodes {
		n := n
		load.Go(func() error {
			if err := n.csp.VerifyTranscript(algorithm, op, threshold, len(nodes), byDealer, transcript); err != nil {
				return err
			}
			complaints, err := n.csp.LoadTranscript(byDealer, sessionContext, n.index, n.keyID, transcript)
			if err != nil {
				return err
			}
			if len(complaints) > 0 {
				return fmt.Errorf("node %d raised %d complaints", n.index, len(complaints))
			}
			return nil
		})
	}
	return transcript, load.Wait()
}

func unmaskedRound(nodes []*node) (*idkg.Transcript, error) {
	masked, err := runRound(nodes, idkg.RandomOp())
	if err != nil {
		return nil, err
	}
	return runRound(nodes, idkg.ReshareOfMaskedOp(masked.CombinedCommitment))
}

func run(logger zerolog.Logger) error {
	nodes := make([]*node, numParties)
	for i := range nodes {
		n, err := newNode(uint32(i), logger)
		if err != nil {
			return err
		}
		nodes[i] = n
	}

	key, err := unmaskedRound(nodes)
	if err != nil {
		return err
	}
	kappa, err := unmaskedRound(nodes)
	if err != nil {
		return err
	}
	lambda, err := runRound(nodes, idkg.RandomOp())
	if err != nil {
		return err
	}
	kappaLambda, err := runRound(nodes, idkg.UnmaskedTimesMaskedOp(kappa.CombinedCommitment, lambda.CombinedCommitment))
	if err != nil {
		return err
	}
	keyLambda, err := runRound(nodes, idkg.UnmaskedTimesMaskedOp(key.CombinedCommitment, lambda.CombinedCommitment))
	if err != nil {
		return err
	}
	logger.Info().Msg("all five transcripts loaded")

	digest := sha256.Sum256([]byte("hello threshold world"))
	inputs := &tecdsa.SigInputs{
		DerivationPath:   &tecdsa.DerivationPath{Caller: []byte("example"), Path: [][]byte{[]byte("account-1")}},
		HashedMessage:    digest[:],
		Key:              key,
		Kappa:            kappa,
		Lambda:           lambda,
		KappaTimesLambda: kappaLambda,
		KeyTimesLambda:   keyLambda,
	}
	if _, err := rand.Read(inputs.Nonce[:]); err != nil {
		return err
	}

	// Two of the three nodes sign.
	shares := make(map[uint32]*tecdsa.SigShare, threshold)
	for _, n := range nodes[:threshold] {
		share, err := n.csp.SignShare(algorithm, inputs, n.index)
		if err != nil {
			return err
		}
		shares[n.index] = share
	}

	sig, err := nodes[0].csp.CombineSigShares(algorithm, inputs, threshold, shares)
	if err != nil {
		return err
	}
	publicKey, err := nodes[0].csp.PublicKey(key, inputs.DerivationPath, inputs.Nonce[:])
	if err != nil {
		return err
	}
	if err := sig.Verify(publicKey, inputs.HashedMessage); err != nil {
		return err
	}

	logger.Info().
		Str("signature", hex.EncodeToString(sig.Serialize())).
		Msg("threshold signature verified")
	return nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("example failed")
	}
}
