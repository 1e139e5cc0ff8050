package idkg

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/polynomial"
)

// CombineMode records how the dealings' commitments were combined into the
// transcript's commitment, and therefore how shares of the dealings combine
// into a share of the transcript.
type CombineMode uint8

const (
	// BySummation adds all dealings, used when every dealer contributes an
	// independent random value.
	BySummation CombineMode = iota + 1
	// ByInterpolation interpolates the dealings at zero, used when each
	// dealer re-shares a share of an existing value.
	ByInterpolation
)

func (m CombineMode) String() string {
	switch m {
	case BySummation:
		return "by-summation"
	case ByInterpolation:
		return "by-interpolation"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Transcript is the public outcome of one dealing round: the combined
// commitment to the shared secret, and the rule receivers apply to combine
// their per-dealing shares.
type Transcript struct {
	CombineMode        CombineMode
	CombinedCommitment *PolynomialCommitment
}

// CreateTranscript combines a sufficient collection of verified dealings,
// keyed by dealer index, into a transcript for the operation.
func CreateTranscript(op *TranscriptOperation, threshold uint32, numReceivers int, dealings map[uint32]*Dealing) (*Transcript, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if min := op.minimumDealings(threshold); len(dealings) < min {
		return nil, fmt.Errorf("idkg: %d dealings, operation %v needs at least %d", len(dealings), op.Kind, min)
	}
	for dealerIndex, dealing := range dealings {
		if err := dealing.Validate(op, threshold, numReceivers); err != nil {
			return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, err)
		}
	}

	combined, err := combineCommitments(op, threshold, dealings)
	if err != nil {
		return nil, err
	}

	if op.Kind == OpReshareOfUnmasked {
		// Resharing must preserve the shared value.
		if !combined.Constant().Equal(op.First.Constant()) {
			return nil, errors.New("idkg: reshared transcript does not open to the source value")
		}
	}

	return &Transcript{CombineMode: op.combineMode(), CombinedCommitment: combined}, nil
}

func combineCommitments(op *TranscriptOperation, threshold uint32, dealings map[uint32]*Dealing) (*PolynomialCommitment, error) {
	coefficients := make([]*curve.Point, threshold)
	for i := range coefficients {
		coefficients[i] = curve.NewIdentityPoint()
	}

	switch op.combineMode() {
	case BySummation:
		for _, dealing := range dealings {
			for i, c := range dealing.Commitment.Coefficients {
				coefficients[i].Add(coefficients[i], c)
			}
		}
	case ByInterpolation:
		indices := make([]uint32, 0, len(dealings))
		for dealerIndex := range dealings {
			indices = append(indices, dealerIndex)
		}
		weights, err := polynomial.LagrangeCoefficientsAt(indices, curve.NewScalar())
		if err != nil {
			return nil, err
		}
		tmp := curve.NewIdentityPoint()
		for dealerIndex, dealing := range dealings {
			w := weights[dealerIndex]
			for i, c := range dealing.Commitment.Coefficients {
				coefficients[i].Add(coefficients[i], tmp.ScalarMult(w, c))
			}
		}
	}

	return &PolynomialCommitment{Kind: op.resultKind(), Coefficients: coefficients}, nil
}

// VerifyTranscript recomputes the transcript from the dealings and checks it
// matches.
func VerifyTranscript(op *TranscriptOperation, threshold uint32, numReceivers int, dealings map[uint32]*Dealing, transcript *Transcript) error {
	expected, err := CreateTranscript(op, threshold, numReceivers, dealings)
	if err != nil {
		return err
	}
	if transcript == nil || transcript.CombineMode != expected.CombineMode ||
		!expected.CombinedCommitment.Equal(transcript.CombinedCommitment) {
		return errors.New("idkg: transcript does not match its dealings")
	}
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	total := int64(0)
	n, err := w.Write([]byte{byte(t.CombineMode)})
	total += int64(n)
	if err != nil {
		return total, err
	}
	m, err := t.CombinedCommitment.WriteTo(w)
	total += m
	return total, err
}

// Domain implements hash.WriterToWithDomain.
func (*Transcript) Domain() string { return "IDKG Transcript" }
