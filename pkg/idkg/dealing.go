package idkg

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/polynomial"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// Dealing is one dealer's contribution to a transcript: a commitment to the
// dealer's sharing polynomial, plus the receivers' shares encrypted under
// their keys. Exactly one of the two ciphertext fields is set, matching the
// commitment kind.
type Dealing struct {
	Commitment *PolynomialCommitment

	SingleCiphertext *mega.CiphertextSingle
	PairCiphertext   *mega.CiphertextPairs
}

// CreateDealing deals shares of the value the operation calls for to the
// given receivers. All randomness is expanded from the seed, so the dealing
// is a deterministic function of its arguments.
//
// The dealer's secret input must match the operation: empty for a fresh
// random value, the dealer's opening(s) of the referenced transcript(s)
// otherwise.
func CreateDealing(
	seed Seed,
	op *TranscriptOperation,
	shares *SecretShares,
	contextData []byte,
	dealerIndex uint32,
	threshold uint32,
	receiverKeys []*mega.PublicKey,
) (*Dealing, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if shares == nil || shares.Kind != op.Kind {
		return nil, fmt.Errorf("idkg: secret shares do not match operation %v", op.Kind)
	}
	if len(receiverKeys) == 0 {
		return nil, errors.New("idkg: dealing needs at least one receiver")
	}
	if threshold == 0 || int(threshold) > len(receiverKeys) {
		return nil, fmt.Errorf("idkg: threshold %d out of range for %d receivers", threshold, len(receiverKeys))
	}

	rand := seed.Expand("Dealing Randomness")
	degree := int(threshold) - 1

	constant, err := dealtConstant(rand, op.Kind, shares)
	if err != nil {
		return nil, err
	}
	values := polynomial.NewPolynomial(rand, degree, constant)

	dealing := &Dealing{}
	switch op.resultKind() {
	case CommitSimple:
		dealing.Commitment = newSimpleCommitment(values)
		valueShares := make([]*curve.Scalar, len(receiverKeys))
		for i := range receiverKeys {
			valueShares[i] = values.Evaluate(polynomial.IndexScalar(uint32(i)))
		}
		dealing.SingleCiphertext, err = mega.EncryptSingle(rand, valueShares, receiverKeys, contextData, dealerIndex)
	case CommitPedersen:
		masks := polynomial.NewPolynomial(rand, degree, sample.Scalar(rand))
		dealing.Commitment = newPedersenCommitment(values, masks)
		pairShares := make([][2]*curve.Scalar, len(receiverKeys))
		for i := range receiverKeys {
			x := polynomial.IndexScalar(uint32(i))
			pairShares[i] = [2]*curve.Scalar{values.Evaluate(x), masks.Evaluate(x)}
		}
		dealing.PairCiphertext, err = mega.EncryptPairs(rand, pairShares, receiverKeys, contextData, dealerIndex)
	}
	if err != nil {
		return nil, err
	}
	return dealing, nil
}

// dealtConstant resolves the constant term of the dealer's sharing
// polynomial: fresh for a random sharing, the operation's secret input
// otherwise.
func dealtConstant(rand io.Reader, kind OperationKind, shares *SecretShares) (*curve.Scalar, error) {
	switch kind {
	case OpRandom:
		return sample.Scalar(rand), nil
	case OpReshareOfMasked, OpReshareOfUnmasked:
		if err := shares.First.validate(); err != nil {
			return nil, err
		}
		return shares.First.Value, nil
	case OpUnmaskedTimesMasked:
		if err := shares.First.validate(); err != nil {
			return nil, err
		}
		if err := shares.Second.validate(); err != nil {
			return nil, err
		}
		return curve.NewScalar().Multiply(shares.First.Value, shares.Second.Value), nil
	default:
		return nil, fmt.Errorf("idkg: invalid operation kind %v", kind)
	}
}

// Validate checks the dealing's shape against the operation, the collection
// threshold and the receiver count, without touching any secrets.
func (d *Dealing) Validate(op *TranscriptOperation, threshold uint32, numReceivers int) error {
	if d == nil {
		return errors.New("idkg: nil dealing")
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if err := d.Commitment.validate(); err != nil {
		return err
	}
	if d.Commitment.Kind != op.resultKind() {
		return fmt.Errorf("idkg: dealing commits with %v, operation %v requires %v",
			d.Commitment.Kind, op.Kind, op.resultKind())
	}
	if d.Commitment.Threshold() != threshold {
		return fmt.Errorf("idkg: dealing threshold %d, expected %d", d.Commitment.Threshold(), threshold)
	}
	switch d.Commitment.Kind {
	case CommitSimple:
		if d.SingleCiphertext == nil || d.PairCiphertext != nil {
			return errors.New("idkg: simple dealing must carry a single ciphertext")
		}
		if len(d.SingleCiphertext.CTexts) != numReceivers {
			return fmt.Errorf("idkg: %d ciphertexts for %d receivers", len(d.SingleCiphertext.CTexts), numReceivers)
		}
	case CommitPedersen:
		if d.PairCiphertext == nil || d.SingleCiphertext != nil {
			return errors.New("idkg: pedersen dealing must carry a pair ciphertext")
		}
		if len(d.PairCiphertext.CTexts) != numReceivers {
			return fmt.Errorf("idkg: %d ciphertexts for %d receivers", len(d.PairCiphertext.CTexts), numReceivers)
		}
	}
	return nil
}

// Ephemeral returns the ephemeral encryption key of the dealing's ciphertext.
func (d *Dealing) Ephemeral() *curve.Point {
	if d.SingleCiphertext != nil {
		return d.SingleCiphertext.Ephemeral
	}
	return d.PairCiphertext.Ephemeral
}

// decryptOpening decrypts the receiver's share of this dealing.
func (d *Dealing) decryptOpening(contextData []byte, dealerIndex, receiverIndex uint32, sk *mega.PrivateKey, pk *mega.PublicKey) (*CommitmentOpening, error) {
	switch {
	case d.SingleCiphertext != nil:
		value, err := d.SingleCiphertext.Decrypt(contextData, dealerIndex, receiverIndex, sk, pk)
		if err != nil {
			return nil, err
		}
		return &CommitmentOpening{Value: value}, nil
	case d.PairCiphertext != nil:
		value, mask, err := d.PairCiphertext.Decrypt(contextData, dealerIndex, receiverIndex, sk, pk)
		if err != nil {
			return nil, err
		}
		return &CommitmentOpening{Value: value, Mask: mask}, nil
	default:
		return nil, errors.New("idkg: dealing carries no ciphertext")
	}
}

// openingFromSharedSecret decrypts a receiver's share given an externally
// disclosed DH shared secret, as done when checking a complaint.
func (d *Dealing) openingFromSharedSecret(shared *curve.Point, contextData []byte, dealerIndex, receiverIndex uint32, pk *mega.PublicKey) (*CommitmentOpening, error) {
	switch {
	case d.SingleCiphertext != nil:
		value, err := d.SingleCiphertext.DecryptWithSecret(shared, contextData, dealerIndex, receiverIndex, pk)
		if err != nil {
			return nil, err
		}
		return &CommitmentOpening{Value: value}, nil
	case d.PairCiphertext != nil:
		value, mask, err := d.PairCiphertext.DecryptWithSecret(shared, contextData, dealerIndex, receiverIndex, pk)
		if err != nil {
			return nil, err
		}
		return &CommitmentOpening{Value: value, Mask: mask}, nil
	default:
		return nil, errors.New("idkg: dealing carries no ciphertext")
	}
}
