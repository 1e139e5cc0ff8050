// Package csp is the call surface the protocol-driving layer uses: every
// vault operation plus the stateless transcript, complaint and signature
// functions that need no secret material.
package csp

import (
	"github.com/rs/zerolog"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/keyid"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/mega"
	"github.com/quorumsig/tecdsa/pkg/tecdsa"
	"github.com/quorumsig/tecdsa/pkg/vault"
)

// Csp bundles a node's vault with the public protocol functions.
type Csp struct {
	vault  vault.Vault
	logger zerolog.Logger
}

// New wraps the given vault.
func New(v vault.Vault, logger zerolog.Logger) *Csp {
	return &Csp{
		vault:  v,
		logger: logger.With().Str("component", "csp").Logger(),
	}
}

// GenerateKeyPair creates this node's receiver encryption key pair and
// returns it together with the identifier it is stored under.
func (c *Csp) GenerateKeyPair(algorithm idkg.Algorithm) (*mega.PublicKey, keyid.KeyID, error) {
	publicKey, err := c.vault.GenerateKeyPair(algorithm)
	if err != nil {
		return nil, keyid.KeyID{}, err
	}
	id, err := keyid.ForPublicKey(publicKey)
	if err != nil {
		return nil, keyid.KeyID{}, &vault.SerializationError{Err: err}
	}
	return publicKey, id, nil
}

// CreateDealing deals this node's contribution to a transcript.
func (c *Csp) CreateDealing(algorithm idkg.Algorithm, contextData []byte, dealerIndex, threshold uint32, receiverKeys []*mega.PublicKey, op *idkg.TranscriptOperation) (*idkg.Dealing, error) {
	return c.vault.CreateDealing(algorithm, contextData, dealerIndex, threshold, receiverKeys, op)
}

// LoadTranscript computes and stores this node's share of a transcript,
// returning complaints instead when a dealing is inconsistent.
func (c *Csp) LoadTranscript(dealings map[uint32]*idkg.Dealing, contextData []byte, receiverIndex uint32, keyID keyid.KeyID, transcript *idkg.Transcript) (map[uint32]*idkg.Complaint, error) {
	return c.vault.LoadTranscript(dealings, contextData, receiverIndex, keyID, transcript)
}

// LoadTranscriptWithOpenings is LoadTranscript with disclosed openings
// repairing corrupted dealings.
func (c *Csp) LoadTranscriptWithOpenings(dealings map[uint32]*idkg.Dealing, openings map[uint32]map[uint32]*idkg.CommitmentOpening, contextData []byte, receiverIndex uint32, keyID keyid.KeyID, transcript *idkg.Transcript) error {
	return c.vault.LoadTranscriptWithOpenings(dealings, openings, contextData, receiverIndex, keyID, transcript)
}

// OpenDealing discloses this node's share of one dealing.
func (c *Csp) OpenDealing(dealing *idkg.Dealing, contextData []byte, dealerIndex, openerIndex uint32, keyID keyid.KeyID) (*idkg.CommitmentOpening, error) {
	return c.vault.OpenDealing(dealing, contextData, dealerIndex, openerIndex, keyID)
}

// SignShare produces this node's signature share.
func (c *Csp) SignShare(algorithm idkg.Algorithm, inputs *tecdsa.SigInputs, signerIndex uint32) (*tecdsa.SigShare, error) {
	return c.vault.SignShare(algorithm, inputs, signerIndex)
}

// CreateTranscript combines verified dealings into a transcript. Pure
// function, usable by any party.
func (c *Csp) CreateTranscript(algorithm idkg.Algorithm, op *idkg.TranscriptOperation, threshold uint32, numReceivers int, dealings map[uint32]*idkg.Dealing) (*idkg.Transcript, error) {
	if !algorithm.Supported() {
		return nil, &vault.UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	transcript, err := idkg.CreateTranscript(op, threshold, numReceivers, dealings)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("op", "create_transcript").
		Stringer("operation", op.Kind).
		Int("dealings", len(dealings)).
		Msg("combined transcript")
	return transcript, nil
}

// VerifyTranscript audits a transcript against its dealings.
func (c *Csp) VerifyTranscript(algorithm idkg.Algorithm, op *idkg.TranscriptOperation, threshold uint32, numReceivers int, dealings map[uint32]*idkg.Dealing, transcript *idkg.Transcript) error {
	if !algorithm.Supported() {
		return &vault.UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	return idkg.VerifyTranscript(op, threshold, numReceivers, dealings, transcript)
}

// VerifyDealing checks a dealing's shape against the operation it was dealt
// for, without secret material.
func (c *Csp) VerifyDealing(algorithm idkg.Algorithm, op *idkg.TranscriptOperation, threshold uint32, numReceivers int, dealing *idkg.Dealing) error {
	if !algorithm.Supported() {
		return &vault.UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	return dealing.Validate(op, threshold, numReceivers)
}

// VerifyComplaint audits a complaint against the accused dealing.
func (c *Csp) VerifyComplaint(complaint *idkg.Complaint, dealing *idkg.Dealing, contextData []byte, dealerIndex, complainerIndex uint32, complainerKey *mega.PublicKey) error {
	return idkg.VerifyComplaint(complaint, dealing, contextData, dealerIndex, complainerIndex, complainerKey)
}

// CombineSigShares assembles a threshold of signature shares into the final
// signature.
func (c *Csp) CombineSigShares(algorithm idkg.Algorithm, inputs *tecdsa.SigInputs, threshold uint32, shares map[uint32]*tecdsa.SigShare) (*tecdsa.Signature, error) {
	if !algorithm.Supported() {
		return nil, &vault.UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	return tecdsa.CombineSigShares(inputs, threshold, shares)
}

// PublicKey returns the public key signatures for one derivation verify
// against.
func (c *Csp) PublicKey(key *idkg.Transcript, path *tecdsa.DerivationPath, nonce []byte) (*curve.Point, error) {
	return tecdsa.DerivePublicKey(key, path, nonce)
}
