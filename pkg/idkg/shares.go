package idkg

import (
	"errors"
	"fmt"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/polynomial"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// ErrInconsistentCommitments signals that at least one dealing decrypted to a
// share that does not open its commitment. The receiver should respond by
// generating complaints against the offending dealers.
var ErrInconsistentCommitments = errors.New("idkg: dealing share does not open its commitment")

// ErrInsufficientOpenings signals that a corrupted dealing could not be
// repaired because fewer valid openings than its reconstruction threshold
// were supplied.
var ErrInsufficientOpenings = errors.New("idkg: insufficient openings to reconstruct a share")

// ComputeSecretShares decrypts the receiver's share of every dealing, checks
// each against its dealer's commitment, and combines them into the
// receiver's opening of the transcript's combined commitment.
//
// Returns ErrInconsistentCommitments if any dealing fails its commitment
// check; the caller should then complain against the offending dealers.
func ComputeSecretShares(
	dealings map[uint32]*Dealing,
	transcript *Transcript,
	contextData []byte,
	receiverIndex uint32,
	sk *mega.PrivateKey,
	pk *mega.PublicKey,
) (*CommitmentOpening, error) {
	openings := make(map[uint32]*CommitmentOpening, len(dealings))
	for dealerIndex, dealing := range dealings {
		opening, err := dealing.decryptOpening(contextData, dealerIndex, receiverIndex, sk, pk)
		if err != nil || !dealing.Commitment.CheckOpening(receiverIndex, opening) {
			return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, ErrInconsistentCommitments)
		}
		openings[dealerIndex] = opening
	}
	return combineOpenings(openings, transcript, receiverIndex)
}

// ComputeSecretSharesWithOpenings is ComputeSecretShares for the case where
// some dealings are known to be corrupted: for each dealer listed in
// openings, the receiver's share of that dealing is reconstructed from other
// receivers' disclosed openings instead of decrypted.
//
// openings maps dealer index to the disclosing receivers' openings of that
// dealing, keyed by the opener's index.
func ComputeSecretSharesWithOpenings(
	dealings map[uint32]*Dealing,
	openings map[uint32]map[uint32]*CommitmentOpening,
	transcript *Transcript,
	contextData []byte,
	receiverIndex uint32,
	sk *mega.PrivateKey,
	pk *mega.PublicKey,
) (*CommitmentOpening, error) {
	resolved := make(map[uint32]*CommitmentOpening, len(dealings))
	for dealerIndex, dealing := range dealings {
		if disclosed, ok := openings[dealerIndex]; ok {
			opening, err := reconstructOpening(dealing, disclosed, receiverIndex)
			if err != nil {
				return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, err)
			}
			resolved[dealerIndex] = opening
			continue
		}
		opening, err := dealing.decryptOpening(contextData, dealerIndex, receiverIndex, sk, pk)
		if err != nil || !dealing.Commitment.CheckOpening(receiverIndex, opening) {
			return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, ErrInconsistentCommitments)
		}
		resolved[dealerIndex] = opening
	}
	return combineOpenings(resolved, transcript, receiverIndex)
}

// reconstructOpening rebuilds the receiver's share of one dealing by
// interpolating the valid disclosed openings at the receiver's point.
func reconstructOpening(dealing *Dealing, disclosed map[uint32]*CommitmentOpening, receiverIndex uint32) (*CommitmentOpening, error) {
	values := make(map[uint32]*curve.Scalar, len(disclosed))
	var masks map[uint32]*curve.Scalar
	if dealing.Commitment.Kind == CommitPedersen {
		masks = make(map[uint32]*curve.Scalar, len(disclosed))
	}

	for openerIndex, opening := range disclosed {
		if !dealing.Commitment.CheckOpening(openerIndex, opening) {
			return nil, fmt.Errorf("idkg: invalid opening from receiver %d", openerIndex)
		}
		values[openerIndex] = opening.Value
		if masks != nil {
			masks[openerIndex] = opening.Mask
		}
	}
	if uint32(len(values)) < dealing.Commitment.Threshold() {
		return nil, ErrInsufficientOpenings
	}

	at := polynomial.IndexScalar(receiverIndex)
	value, err := polynomial.InterpolateScalars(values, at)
	if err != nil {
		return nil, err
	}
	opening := &CommitmentOpening{Value: value}
	if masks != nil {
		if opening.Mask, err = polynomial.InterpolateScalars(masks, at); err != nil {
			return nil, err
		}
	}
	return opening, nil
}

// combineOpenings folds per-dealing openings into the receiver's opening of
// the combined commitment, per the transcript's combine mode, and checks the
// result against the combined commitment.
func combineOpenings(openings map[uint32]*CommitmentOpening, transcript *Transcript, receiverIndex uint32) (*CommitmentOpening, error) {
	if len(openings) == 0 {
		return nil, errors.New("idkg: no openings to combine")
	}
	masked := transcript.CombinedCommitment.Kind == CommitPedersen

	combined := &CommitmentOpening{Value: curve.NewScalar()}
	if masked {
		combined.Mask = curve.NewScalar()
	}

	switch transcript.CombineMode {
	case BySummation:
		for dealerIndex, opening := range openings {
			if masked == (opening.Mask == nil) {
				return nil, fmt.Errorf("idkg: dealer %d opening does not match commitment kind", dealerIndex)
			}
			combined.Value.Add(combined.Value, opening.Value)
			if masked {
				combined.Mask.Add(combined.Mask, opening.Mask)
			}
		}
	case ByInterpolation:
		indices := make([]uint32, 0, len(openings))
		for dealerIndex := range openings {
			indices = append(indices, dealerIndex)
		}
		weights, err := polynomial.LagrangeCoefficientsAt(indices, curve.NewScalar())
		if err != nil {
			return nil, err
		}
		for dealerIndex, opening := range openings {
			if masked == (opening.Mask == nil) {
				return nil, fmt.Errorf("idkg: dealer %d opening does not match commitment kind", dealerIndex)
			}
			w := weights[dealerIndex]
			combined.Value.MultiplyAdd(w, opening.Value, combined.Value)
			if masked {
				combined.Mask.MultiplyAdd(w, opening.Mask, combined.Mask)
			}
		}
	default:
		return nil, fmt.Errorf("idkg: invalid combine mode %v", transcript.CombineMode)
	}

	if !transcript.CombinedCommitment.CheckOpening(receiverIndex, combined) {
		return nil, errors.New("idkg: combined share does not open the transcript commitment")
	}
	return combined, nil
}
