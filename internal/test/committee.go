// Package test provides a committee harness for tests: it plays all parties
// of a dealing round in one process.
package test

import (
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// Committee holds the key pairs of n parties acting as both dealers and
// receivers.
type Committee struct {
	Threshold uint32
	SKs       []*mega.PrivateKey
	PKs       []*mega.PublicKey
}

// NewCommittee samples key pairs for n parties.
func NewCommittee(rand io.Reader, n int, threshold uint32) *Committee {
	c := &Committee{
		Threshold: threshold,
		SKs:       make([]*mega.PrivateKey, n),
		PKs:       make([]*mega.PublicKey, n),
	}
	for i := 0; i < n; i++ {
		c.PKs[i], c.SKs[i] = mega.GenerateKeyPair(rand)
	}
	return c
}

// N returns the committee size.
func (c *Committee) N() int { return len(c.PKs) }

// Run executes one full dealing round: every party deals per the operation,
// the dealings are combined into a transcript, and every party computes its
// opening. sharesFor resolves each dealer's secret input.
func (c *Committee) Run(
	rand io.Reader,
	op *idkg.TranscriptOperation,
	sharesFor func(dealerIndex uint32) (*idkg.SecretShares, error),
	contextData []byte,
) (*idkg.Transcript, map[uint32]*idkg.CommitmentOpening, error) {
	dealings := make(map[uint32]*idkg.Dealing, c.N())
	for i := 0; i < c.N(); i++ {
		dealerIndex := uint32(i)
		shares, err := sharesFor(dealerIndex)
		if err != nil {
			return nil, nil, fmt.Errorf("test: dealer %d: %w", dealerIndex, err)
		}
		seed, err := idkg.NewSeed(rand)
		if err != nil {
			return nil, nil, err
		}
		dealings[dealerIndex], err = idkg.CreateDealing(seed, op, shares, contextData, dealerIndex, c.Threshold, c.PKs)
		if err != nil {
			return nil, nil, fmt.Errorf("test: dealer %d: %w", dealerIndex, err)
		}
	}

	transcript, err := idkg.CreateTranscript(op, c.Threshold, c.N(), dealings)
	if err != nil {
		return nil, nil, err
	}

	openings := make(map[uint32]*idkg.CommitmentOpening, c.N())
	for i := 0; i < c.N(); i++ {
		receiverIndex := uint32(i)
		openings[receiverIndex], err = idkg.ComputeSecretShares(dealings, transcript, contextData, receiverIndex, c.SKs[i], c.PKs[i])
		if err != nil {
			return nil, nil, fmt.Errorf("test: receiver %d: %w", receiverIndex, err)
		}
	}
	return transcript, openings, nil
}

// RandomRound deals a fresh masked random value.
func (c *Committee) RandomRound(rand io.Reader, contextData []byte) (*idkg.Transcript, map[uint32]*idkg.CommitmentOpening, error) {
	return c.Run(rand, idkg.RandomOp(), func(uint32) (*idkg.SecretShares, error) {
		return idkg.RandomShares(), nil
	}, contextData)
}

// UnmaskedRound deals a fresh random value and reshare-unmasks it.
func (c *Committee) UnmaskedRound(rand io.Reader, contextData []byte) (*idkg.Transcript, map[uint32]*idkg.CommitmentOpening, error) {
	masked, maskedOpenings, err := c.RandomRound(rand, contextData)
	if err != nil {
		return nil, nil, err
	}
	return c.Run(rand, idkg.ReshareOfMaskedOp(masked.CombinedCommitment), func(dealerIndex uint32) (*idkg.SecretShares, error) {
		return idkg.ReshareOfMaskedShares(maskedOpenings[dealerIndex])
	}, contextData)
}

// ProductRound deals the product of an unmasked and a masked value.
func (c *Committee) ProductRound(
	rand io.Reader,
	unmasked *idkg.Transcript, unmaskedOpenings map[uint32]*idkg.CommitmentOpening,
	masked *idkg.Transcript, maskedOpenings map[uint32]*idkg.CommitmentOpening,
	contextData []byte,
) (*idkg.Transcript, map[uint32]*idkg.CommitmentOpening, error) {
	op := idkg.UnmaskedTimesMaskedOp(unmasked.CombinedCommitment, masked.CombinedCommitment)
	return c.Run(rand, op, func(dealerIndex uint32) (*idkg.SecretShares, error) {
		return idkg.ProductShares(unmaskedOpenings[dealerIndex], maskedOpenings[dealerIndex])
	}, contextData)
}

// SigningSetup is the full transcript set a committee needs to sign, with
// every party's openings.
type SigningSetup struct {
	Key              *idkg.Transcript
	Kappa            *idkg.Transcript
	Lambda           *idkg.Transcript
	KappaTimesLambda *idkg.Transcript
	KeyTimesLambda   *idkg.Transcript

	LambdaOpenings      map[uint32]*idkg.CommitmentOpening
	KappaLambdaOpenings map[uint32]*idkg.CommitmentOpening
	KeyLambdaOpenings   map[uint32]*idkg.CommitmentOpening
}

// NewSigningSetup runs all five dealing rounds of a signing setup.
func (c *Committee) NewSigningSetup(rand io.Reader, contextData []byte) (*SigningSetup, error) {
	key, keyOpenings, err := c.UnmaskedRound(rand, contextData)
	if err != nil {
		return nil, err
	}
	kappa, kappaOpenings, err := c.UnmaskedRound(rand, contextData)
	if err != nil {
		return nil, err
	}
	lambda, lambdaOpenings, err := c.RandomRound(rand, contextData)
	if err != nil {
		return nil, err
	}
	kappaLambda, kappaLambdaOpenings, err := c.ProductRound(rand, kappa, kappaOpenings, lambda, lambdaOpenings, contextData)
	if err != nil {
		return nil, err
	}
	keyLambda, keyLambdaOpenings, err := c.ProductRound(rand, key, keyOpenings, lambda, lambdaOpenings, contextData)
	if err != nil {
		return nil, err
	}
	return &SigningSetup{
		Key:              key,
		Kappa:            kappa,
		Lambda:           lambda,
		KappaTimesLambda: kappaLambda,
		KeyTimesLambda:   keyLambda,

		LambdaOpenings:      lambdaOpenings,
		KappaLambdaOpenings: kappaLambdaOpenings,
		KeyLambdaOpenings:   keyLambdaOpenings,
	}, nil
}
