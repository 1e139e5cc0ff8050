package idkg

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// Complaint is a receiver's public accusation that a dealer sent it a share
// inconsistent with the dealing's commitment. The receiver discloses its DH
// shared secret for the dealing, with a proof of correct computation, so
// that anyone can re-run the decryption and the commitment check.
type Complaint struct {
	SharedSecret *curve.Point
	Proof        *mega.DleqProof
}

// GenerateComplaints checks the receiver's share of every dealing and
// returns a complaint, keyed by dealer index, for each one that fails its
// commitment check. It is an error to call this when every dealing is
// consistent.
func GenerateComplaints(
	rand io.Reader,
	dealings map[uint32]*Dealing,
	contextData []byte,
	receiverIndex uint32,
	sk *mega.PrivateKey,
	pk *mega.PublicKey,
) (map[uint32]*Complaint, error) {
	complaints := make(map[uint32]*Complaint)
	for dealerIndex, dealing := range dealings {
		opening, err := dealing.decryptOpening(contextData, dealerIndex, receiverIndex, sk, pk)
		if err == nil && dealing.Commitment.CheckOpening(receiverIndex, opening) {
			continue
		}
		shared, proof, err := mega.ProveDleq(rand, sk, dealing.Ephemeral(), contextData)
		if err != nil {
			return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, err)
		}
		complaints[dealerIndex] = &Complaint{SharedSecret: shared, Proof: proof}
	}
	if len(complaints) == 0 {
		return nil, errors.New("idkg: all dealings are consistent, nothing to complain about")
	}
	return complaints, nil
}

// VerifyComplaint checks a complaint against the accused dealing: the
// disclosed shared secret must be proven correct for the complainer's key,
// and the share it decrypts must indeed fail the commitment check.
func VerifyComplaint(
	complaint *Complaint,
	dealing *Dealing,
	contextData []byte,
	dealerIndex, complainerIndex uint32,
	complainerKey *mega.PublicKey,
) error {
	if complaint == nil || complaint.SharedSecret == nil {
		return errors.New("idkg: incomplete complaint")
	}
	if err := complaint.Proof.Verify(complainerKey, dealing.Ephemeral(), complaint.SharedSecret, contextData); err != nil {
		return fmt.Errorf("idkg: complaint proof: %w", err)
	}
	opening, err := dealing.openingFromSharedSecret(complaint.SharedSecret, contextData, dealerIndex, complainerIndex, complainerKey)
	if err != nil {
		return err
	}
	if dealing.Commitment.CheckOpening(complainerIndex, opening) {
		return errors.New("idkg: dealing decrypts to a valid share, complaint is unfounded")
	}
	return nil
}

// OpenDealing discloses the opener's own share of a dealing so that a
// receiver with a corrupted share can reconstruct its one. The opener's
// share must itself be consistent with the dealing's commitment.
func OpenDealing(
	dealing *Dealing,
	contextData []byte,
	dealerIndex, openerIndex uint32,
	sk *mega.PrivateKey,
	pk *mega.PublicKey,
) (*CommitmentOpening, error) {
	opening, err := dealing.decryptOpening(contextData, dealerIndex, openerIndex, sk, pk)
	if err != nil {
		return nil, err
	}
	if !dealing.Commitment.CheckOpening(openerIndex, opening) {
		return nil, fmt.Errorf("idkg: dealer %d: %w", dealerIndex, ErrInconsistentCommitments)
	}
	return opening, nil
}
