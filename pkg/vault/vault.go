// Package vault implements the trusted boundary of the protocol: the only
// component holding the process RNG and the secret key store. Every
// operation that consumes entropy or touches stored secrets lives here;
// everything else in this module is a pure function over public data.
package vault

import (
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/keyid"
	"github.com/quorumsig/tecdsa/pkg/keystore"
	"github.com/quorumsig/tecdsa/pkg/mega"
	"github.com/quorumsig/tecdsa/pkg/tecdsa"
)

// Vault is the secret-holding side of the protocol, safe for concurrent use.
type Vault interface {
	// GenerateKeyPair creates and stores a fresh receiver encryption key
	// pair and returns its public half. Not idempotent.
	GenerateKeyPair(algorithm idkg.Algorithm) (*mega.PublicKey, error)

	// CreateDealing resolves the operation's secret input from the store,
	// draws a seed and deals shares to the receivers.
	CreateDealing(algorithm idkg.Algorithm, contextData []byte, dealerIndex, threshold uint32, receiverKeys []*mega.PublicKey, op *idkg.TranscriptOperation) (*idkg.Dealing, error)

	// LoadTranscript computes and stores this node's opening of the
	// transcript's commitment. Returns a non-empty complaint set, keyed by
	// dealer index, instead of storing when a dealing is inconsistent.
	// Loading an already loaded transcript is a no-op.
	LoadTranscript(dealings map[uint32]*idkg.Dealing, contextData []byte, receiverIndex uint32, keyID keyid.KeyID, transcript *idkg.Transcript) (map[uint32]*idkg.Complaint, error)

	// LoadTranscriptWithOpenings is LoadTranscript with disclosed openings,
	// keyed by dealer index then opener index, substituting for corrupted
	// dealings.
	LoadTranscriptWithOpenings(dealings map[uint32]*idkg.Dealing, openings map[uint32]map[uint32]*idkg.CommitmentOpening, contextData []byte, receiverIndex uint32, keyID keyid.KeyID, transcript *idkg.Transcript) error

	// OpenDealing discloses this node's share of one dealing, the artifact
	// peers feed into LoadTranscriptWithOpenings.
	OpenDealing(dealing *idkg.Dealing, contextData []byte, dealerIndex, openerIndex uint32, keyID keyid.KeyID) (*idkg.CommitmentOpening, error)

	// SignShare produces this node's signature share using its stored
	// openings of the inputs' transcripts.
	SignShare(algorithm idkg.Algorithm, inputs *tecdsa.SigInputs, signerIndex uint32) (*tecdsa.SigShare, error)
}

// LocalVault is the in-process Vault. The RNG and the stores are two
// independent synchronization domains, never held together.
type LocalVault struct {
	rngMu sync.Mutex
	rng   io.Reader

	keyStore     keystore.Store
	openingStore keystore.Store

	logger zerolog.Logger
}

var _ Vault = (*LocalVault)(nil)

// NewLocalVault builds a vault over the given entropy source and stores.
func NewLocalVault(rng io.Reader, keyStore, openingStore keystore.Store, logger zerolog.Logger) *LocalVault {
	return &LocalVault{
		rng:          rng,
		keyStore:     keyStore,
		openingStore: openingStore,
		logger:       logger.With().Str("component", "vault").Logger(),
	}
}

func (v *LocalVault) drawSeed() (idkg.Seed, error) {
	v.rngMu.Lock()
	defer v.rngMu.Unlock()
	return idkg.NewSeed(v.rng)
}

// GenerateKeyPair implements Vault.
//
// A colliding insert means two generations produced the same public key,
// which indicates a broken RNG rather than adversarial input, so it aborts.
func (v *LocalVault) GenerateKeyPair(algorithm idkg.Algorithm) (*mega.PublicKey, error) {
	if !algorithm.Supported() {
		return nil, &UnsupportedAlgorithmError{Algorithm: algorithm}
	}

	v.rngMu.Lock()
	pk, sk := mega.GenerateKeyPair(v.rng)
	v.rngMu.Unlock()

	id, err := keyid.ForPublicKey(pk)
	if err != nil {
		return nil, v.serializationError(err)
	}
	blob, err := encodeKeySet(algorithm, pk, sk)
	if err != nil {
		return nil, v.serializationError(err)
	}
	if err := v.keyStore.Insert(id, blob); err != nil {
		v.logger.Panic().Stringer("key_id", id).Err(err).Msg("duplicate key pair insert")
	}

	v.logger.Debug().
		Str("op", "generate_key_pair").
		Stringer("algorithm", algorithm).
		Stringer("key_id", id).
		Msg("generated receiver key pair")
	return pk, nil
}

// CreateDealing implements Vault. The operation's secret input is resolved
// before any entropy is drawn, so a missing dependency consumes nothing.
func (v *LocalVault) CreateDealing(
	algorithm idkg.Algorithm,
	contextData []byte,
	dealerIndex, threshold uint32,
	receiverKeys []*mega.PublicKey,
	op *idkg.TranscriptOperation,
) (*idkg.Dealing, error) {
	if !algorithm.Supported() {
		return nil, &UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	if err := op.Validate(); err != nil {
		return nil, &InvalidArgumentsError{Err: err}
	}

	shares, err := v.resolveShares(op)
	if err != nil {
		return nil, err
	}
	seed, err := v.drawSeed()
	if err != nil {
		return nil, v.internalError(err)
	}

	dealing, err := idkg.CreateDealing(seed, op, shares, contextData, dealerIndex, threshold, receiverKeys)
	if err != nil {
		return nil, v.internalError(err)
	}

	v.logger.Debug().
		Str("op", "create_dealing").
		Stringer("operation", op.Kind).
		Uint32("dealer_index", dealerIndex).
		Uint32("threshold", threshold).
		Int("receivers", len(receiverKeys)).
		Msg("created dealing")
	return dealing, nil
}

// resolveShares fetches the stored openings the operation references.
func (v *LocalVault) resolveShares(op *idkg.TranscriptOperation) (*idkg.SecretShares, error) {
	switch op.Kind {
	case idkg.OpRandom:
		return idkg.RandomShares(), nil
	case idkg.OpReshareOfMasked:
		opening, err := v.lookupOpening(op.First)
		if err != nil {
			return nil, err
		}
		shares, err := idkg.ReshareOfMaskedShares(opening)
		if err != nil {
			return nil, v.internalError(err)
		}
		return shares, nil
	case idkg.OpReshareOfUnmasked:
		opening, err := v.lookupOpening(op.First)
		if err != nil {
			return nil, err
		}
		shares, err := idkg.ReshareOfUnmaskedShares(opening)
		if err != nil {
			return nil, v.internalError(err)
		}
		return shares, nil
	case idkg.OpUnmaskedTimesMasked:
		left, err := v.lookupOpening(op.First)
		if err != nil {
			return nil, err
		}
		right, err := v.lookupOpening(op.Second)
		if err != nil {
			return nil, err
		}
		shares, err := idkg.ProductShares(left, right)
		if err != nil {
			return nil, v.internalError(err)
		}
		return shares, nil
	default:
		return nil, v.internalError(errors.New("invalid operation kind"))
	}
}

// lookupOpening fetches the stored opening of one commitment.
func (v *LocalVault) lookupOpening(commitment *idkg.PolynomialCommitment) (*idkg.CommitmentOpening, error) {
	id, err := keyid.ForCommitment(commitment)
	if err != nil {
		return nil, v.serializationError(err)
	}
	blob, ok := v.openingStore.Get(id)
	if !ok {
		return nil, &SecretSharesNotFoundError{Commitment: id}
	}
	opening := &idkg.CommitmentOpening{}
	if err := opening.UnmarshalBinary(blob); err != nil {
		return nil, v.serializationError(err)
	}
	return opening, nil
}

// megaKeySet fetches this node's encryption key pair.
func (v *LocalVault) megaKeySet(id keyid.KeyID) (*mega.PublicKey, *mega.PrivateKey, error) {
	blob, ok := v.keyStore.Get(id)
	if !ok {
		return nil, nil, &PrivateKeyNotFoundError{KeyID: id}
	}
	_, pk, sk, err := decodeKeySet(blob)
	if err != nil {
		return nil, nil, v.serializationError(err)
	}
	return pk, sk, nil
}

// LoadTranscript implements Vault.
func (v *LocalVault) LoadTranscript(
	dealings map[uint32]*idkg.Dealing,
	contextData []byte,
	receiverIndex uint32,
	keyID keyid.KeyID,
	transcript *idkg.Transcript,
) (map[uint32]*idkg.Complaint, error) {
	commitmentID, err := keyid.ForCommitment(transcript.CombinedCommitment)
	if err != nil {
		return nil, v.serializationError(err)
	}
	if _, ok := v.openingStore.Get(commitmentID); ok {
		v.logger.Debug().
			Str("op", "load_transcript").
			Stringer("commitment_id", commitmentID).
			Msg("opening already stored")
		return nil, nil
	}

	pk, sk, err := v.megaKeySet(keyID)
	if err != nil {
		return nil, err
	}

	opening, err := idkg.ComputeSecretShares(dealings, transcript, contextData, receiverIndex, sk, pk)
	if errors.Is(err, idkg.ErrInconsistentCommitments) {
		seed, seedErr := v.drawSeed()
		if seedErr != nil {
			return nil, v.internalError(seedErr)
		}
		complaints, complaintErr := idkg.GenerateComplaints(seed.Expand("Complaint Randomness"), dealings, contextData, receiverIndex, sk, pk)
		if complaintErr != nil {
			return nil, v.internalError(complaintErr)
		}
		v.logger.Debug().
			Str("op", "load_transcript").
			Stringer("commitment_id", commitmentID).
			Int("complaints", len(complaints)).
			Msg("inconsistent dealings, generated complaints")
		return complaints, nil
	}
	if err != nil {
		return nil, v.internalError(err)
	}

	if err := v.storeOpening(commitmentID, opening); err != nil {
		return nil, err
	}
	v.logger.Debug().
		Str("op", "load_transcript").
		Stringer("commitment_id", commitmentID).
		Uint32("receiver_index", receiverIndex).
		Msg("stored opening")
	return nil, nil
}

// LoadTranscriptWithOpenings implements Vault. Once openings were supplied,
// a still-inconsistent result is terminal for this call.
func (v *LocalVault) LoadTranscriptWithOpenings(
	dealings map[uint32]*idkg.Dealing,
	openings map[uint32]map[uint32]*idkg.CommitmentOpening,
	contextData []byte,
	receiverIndex uint32,
	keyID keyid.KeyID,
	transcript *idkg.Transcript,
) error {
	commitmentID, err := keyid.ForCommitment(transcript.CombinedCommitment)
	if err != nil {
		return v.serializationError(err)
	}
	if _, ok := v.openingStore.Get(commitmentID); ok {
		return nil
	}

	pk, sk, err := v.megaKeySet(keyID)
	if err != nil {
		return err
	}

	opening, err := idkg.ComputeSecretSharesWithOpenings(dealings, openings, transcript, contextData, receiverIndex, sk, pk)
	if err != nil {
		return &InvalidArgumentsError{Err: err}
	}

	if err := v.storeOpening(commitmentID, opening); err != nil {
		return err
	}
	v.logger.Debug().
		Str("op", "load_transcript_with_openings").
		Stringer("commitment_id", commitmentID).
		Uint32("receiver_index", receiverIndex).
		Msg("stored opening after complaint resolution")
	return nil
}

func (v *LocalVault) storeOpening(id keyid.KeyID, opening *idkg.CommitmentOpening) error {
	blob, err := opening.MarshalBinary()
	if err != nil {
		return v.serializationError(err)
	}
	// Content addressing makes a concurrent duplicate insert of the same
	// value a no-op; a differing value under the same id is a bug.
	if err := v.openingStore.Insert(id, blob); err != nil {
		return v.internalError(err)
	}
	return nil
}

// OpenDealing implements Vault.
func (v *LocalVault) OpenDealing(
	dealing *idkg.Dealing,
	contextData []byte,
	dealerIndex, openerIndex uint32,
	keyID keyid.KeyID,
) (*idkg.CommitmentOpening, error) {
	pk, sk, err := v.megaKeySet(keyID)
	if err != nil {
		return nil, err
	}
	opening, err := idkg.OpenDealing(dealing, contextData, dealerIndex, openerIndex, sk, pk)
	if errors.Is(err, idkg.ErrInconsistentCommitments) {
		return nil, &InvalidArgumentsError{Err: err}
	}
	if err != nil {
		return nil, v.internalError(err)
	}
	v.logger.Debug().
		Str("op", "open_dealing").
		Uint32("dealer_index", dealerIndex).
		Uint32("opener_index", openerIndex).
		Msg("opened dealing")
	return opening, nil
}

// SignShare implements Vault.
func (v *LocalVault) SignShare(algorithm idkg.Algorithm, inputs *tecdsa.SigInputs, signerIndex uint32) (*tecdsa.SigShare, error) {
	if !algorithm.Supported() {
		return nil, &UnsupportedAlgorithmError{Algorithm: algorithm}
	}
	if err := inputs.Validate(); err != nil {
		return nil, &InvalidArgumentsError{Err: err}
	}

	lambda, err := v.lookupOpening(inputs.Lambda.CombinedCommitment)
	if err != nil {
		return nil, err
	}
	kappaLambda, err := v.lookupOpening(inputs.KappaTimesLambda.CombinedCommitment)
	if err != nil {
		return nil, err
	}
	keyLambda, err := v.lookupOpening(inputs.KeyTimesLambda.CombinedCommitment)
	if err != nil {
		return nil, err
	}

	share, err := tecdsa.SignShare(inputs, signerIndex, lambda, kappaLambda, keyLambda)
	if err != nil {
		return nil, v.internalError(err)
	}
	v.logger.Debug().
		Str("op", "sign_share").
		Uint32("signer_index", signerIndex).
		Msg("produced signature share")
	return share, nil
}

func (v *LocalVault) internalError(err error) error {
	v.logger.Error().Err(err).Msg("internal failure")
	return &InternalError{Err: err}
}

func (v *LocalVault) serializationError(err error) error {
	v.logger.Error().Err(err).Msg("serialization failure")
	return &SerializationError{Err: err}
}
