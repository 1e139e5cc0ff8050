package idkg

import (
	"errors"
	"fmt"
)

// OperationKind tags how a transcript's shared secret relates to prior
// transcripts.
type OperationKind uint8

const (
	// OpRandom shares a fresh random value with no dependency.
	OpRandom OperationKind = iota + 1
	// OpReshareOfMasked re-shares a Pedersen-committed value, unmasking it.
	OpReshareOfMasked
	// OpReshareOfUnmasked re-shares a simple-committed value.
	OpReshareOfUnmasked
	// OpUnmaskedTimesMasked shares the product of an unmasked and a masked
	// value, the core primitive for multiplicative blinding.
	OpUnmaskedTimesMasked
)

func (k OperationKind) String() string {
	switch k {
	case OpRandom:
		return "random"
	case OpReshareOfMasked:
		return "reshare-of-masked"
	case OpReshareOfUnmasked:
		return "reshare-of-unmasked"
	case OpUnmaskedTimesMasked:
		return "unmasked-times-masked"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TranscriptOperation describes what a new transcript shares, referencing the
// commitments of the transcripts it builds on.
type TranscriptOperation struct {
	Kind OperationKind
	// First is the reshared commitment, or the unmasked left factor of a product.
	First *PolynomialCommitment
	// Second is the masked right factor of a product.
	Second *PolynomialCommitment
}

// RandomOp returns the operation sharing a fresh random value.
func RandomOp() *TranscriptOperation {
	return &TranscriptOperation{Kind: OpRandom}
}

// ReshareOfMaskedOp returns the operation re-sharing (and unmasking) the value
// under the given Pedersen commitment.
func ReshareOfMaskedOp(masked *PolynomialCommitment) *TranscriptOperation {
	return &TranscriptOperation{Kind: OpReshareOfMasked, First: masked}
}

// ReshareOfUnmaskedOp returns the operation re-sharing the value under the
// given simple commitment.
func ReshareOfUnmaskedOp(unmasked *PolynomialCommitment) *TranscriptOperation {
	return &TranscriptOperation{Kind: OpReshareOfUnmasked, First: unmasked}
}

// UnmaskedTimesMaskedOp returns the operation sharing the product of the two
// referenced values.
func UnmaskedTimesMaskedOp(unmasked, masked *PolynomialCommitment) *TranscriptOperation {
	return &TranscriptOperation{Kind: OpUnmaskedTimesMasked, First: unmasked, Second: masked}
}

// Validate checks that the referenced commitments are present and of the
// kinds the operation requires.
func (op *TranscriptOperation) Validate() error {
	if op == nil {
		return errors.New("idkg: nil transcript operation")
	}
	switch op.Kind {
	case OpRandom:
		if op.First != nil || op.Second != nil {
			return errors.New("idkg: random operation references commitments")
		}
		return nil
	case OpReshareOfMasked:
		if err := op.First.validate(); err != nil {
			return err
		}
		if op.First.Kind != CommitPedersen {
			return errors.New("idkg: reshare-of-masked requires a pedersen commitment")
		}
		return nil
	case OpReshareOfUnmasked:
		if err := op.First.validate(); err != nil {
			return err
		}
		if op.First.Kind != CommitSimple {
			return errors.New("idkg: reshare-of-unmasked requires a simple commitment")
		}
		return nil
	case OpUnmaskedTimesMasked:
		if err := op.First.validate(); err != nil {
			return err
		}
		if err := op.Second.validate(); err != nil {
			return err
		}
		if op.First.Kind != CommitSimple || op.Second.Kind != CommitPedersen {
			return errors.New("idkg: product requires an unmasked left and masked right factor")
		}
		return nil
	default:
		return fmt.Errorf("idkg: invalid operation kind %v", op.Kind)
	}
}

// resultKind is the commitment scheme dealings for this operation use:
// fresh and product sharings stay masked, reshares are unmasked.
func (op *TranscriptOperation) resultKind() CommitmentKind {
	switch op.Kind {
	case OpReshareOfMasked, OpReshareOfUnmasked:
		return CommitSimple
	default:
		return CommitPedersen
	}
}

func (op *TranscriptOperation) combineMode() CombineMode {
	if op.Kind == OpRandom {
		return BySummation
	}
	return ByInterpolation
}

// minimumDealings is the number of dealings a transcript for this operation
// needs: the collection threshold for fresh values, the source reconstruction
// threshold for reshares, and the degree bound of the share product for
// products.
func (op *TranscriptOperation) minimumDealings(threshold uint32) int {
	switch op.Kind {
	case OpReshareOfMasked, OpReshareOfUnmasked:
		return int(op.First.Threshold())
	case OpUnmaskedTimesMasked:
		return int(op.First.Threshold() + op.Second.Threshold() - 1)
	default:
		return int(threshold)
	}
}

// SecretShares is the locally held secret input a dealer contributes to a
// dealing, resolved from stored commitment openings per the operation.
type SecretShares struct {
	Kind   OperationKind
	First  *CommitmentOpening
	Second *CommitmentOpening
}

// RandomShares returns the (empty) secret input for a random dealing.
func RandomShares() *SecretShares {
	return &SecretShares{Kind: OpRandom}
}

// ReshareOfMaskedShares wraps the dealer's opening of the masked value being reshared.
func ReshareOfMaskedShares(opening *CommitmentOpening) (*SecretShares, error) {
	if err := opening.validate(); err != nil {
		return nil, err
	}
	if opening.Mask == nil {
		return nil, errors.New("idkg: reshare-of-masked requires a masked opening")
	}
	return &SecretShares{Kind: OpReshareOfMasked, First: opening}, nil
}

// ReshareOfUnmaskedShares wraps the dealer's opening of the unmasked value being reshared.
func ReshareOfUnmaskedShares(opening *CommitmentOpening) (*SecretShares, error) {
	if err := opening.validate(); err != nil {
		return nil, err
	}
	if opening.Mask != nil {
		return nil, errors.New("idkg: reshare-of-unmasked requires an unmasked opening")
	}
	return &SecretShares{Kind: OpReshareOfUnmasked, First: opening}, nil
}

// ProductShares wraps the dealer's openings of the two factors of a product dealing.
func ProductShares(unmasked, masked *CommitmentOpening) (*SecretShares, error) {
	if err := unmasked.validate(); err != nil {
		return nil, err
	}
	if err := masked.validate(); err != nil {
		return nil, err
	}
	if unmasked.Mask != nil {
		return nil, errors.New("idkg: product requires an unmasked left opening")
	}
	if masked.Mask == nil {
		return nil, errors.New("idkg: product requires a masked right opening")
	}
	return &SecretShares{Kind: OpUnmaskedTimesMasked, First: unmasked, Second: masked}, nil
}
