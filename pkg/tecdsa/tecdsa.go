// Package tecdsa implements threshold ECDSA signing over transcripts
// produced by the idkg package.
//
// A signature is assembled from five transcripts: the long lived key
// (unmasked), a per-signature presignature kappa (unmasked), a masked
// blinding value lambda, and the two products kappa*lambda and key*lambda.
// Each signer combines its openings of the last three into a signature
// share; any threshold of shares interpolates to a standard ECDSA signature.
package tecdsa

import (
	"errors"
	"fmt"

	"github.com/quorumsig/tecdsa/internal/hash"
	"github.com/quorumsig/tecdsa/internal/params"
	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/math/polynomial"
	"github.com/quorumsig/tecdsa/pkg/math/sample"
)

// DerivationPath selects a signing key derived from the long lived key: the
// caller's identity plus an arbitrary path chosen by the caller.
type DerivationPath struct {
	Caller []byte
	Path   [][]byte
}

// SigInputs collects everything a signature depends on besides the signers'
// secret shares.
type SigInputs struct {
	DerivationPath *DerivationPath
	HashedMessage  []byte
	Nonce          [params.BytesSeed]byte

	Key              *idkg.Transcript
	Kappa            *idkg.Transcript
	Lambda           *idkg.Transcript
	KappaTimesLambda *idkg.Transcript
	KeyTimesLambda   *idkg.Transcript
}

// Validate checks the transcripts have the shapes signing relies on.
func (inputs *SigInputs) Validate() error {
	if inputs == nil || inputs.DerivationPath == nil {
		return errors.New("tecdsa: missing derivation path")
	}
	if len(inputs.HashedMessage) == 0 {
		return errors.New("tecdsa: missing hashed message")
	}
	for _, transcript := range []struct {
		name string
		t    *idkg.Transcript
		kind idkg.CommitmentKind
	}{
		{"key", inputs.Key, idkg.CommitSimple},
		{"kappa", inputs.Kappa, idkg.CommitSimple},
		{"lambda", inputs.Lambda, idkg.CommitPedersen},
		{"kappa*lambda", inputs.KappaTimesLambda, idkg.CommitPedersen},
		{"key*lambda", inputs.KeyTimesLambda, idkg.CommitPedersen},
	} {
		if transcript.t == nil || transcript.t.CombinedCommitment == nil {
			return fmt.Errorf("tecdsa: missing %s transcript", transcript.name)
		}
		if transcript.t.CombinedCommitment.Kind != transcript.kind {
			return fmt.Errorf("tecdsa: %s transcript must be %v", transcript.name, transcript.kind)
		}
	}
	return nil
}

// Tweak derives the additive key tweak binding a derived signing key to the
// master public key, the caller's derivation path and the signature nonce.
func Tweak(masterPublicKey *curve.Point, path *DerivationPath, nonce []byte) (*curve.Scalar, error) {
	h := hash.New()
	err := h.WriteAny(
		hash.BytesWithDomain{TheDomain: "ECDSA Key Tweak", Bytes: nonce},
		masterPublicKey,
		hash.BytesWithDomain{TheDomain: "Derivation Caller", Bytes: path.Caller},
		uint32(len(path.Path)),
	)
	if err != nil {
		return nil, fmt.Errorf("tecdsa.Tweak: %w", err)
	}
	for _, element := range path.Path {
		if err := h.WriteAny(hash.BytesWithDomain{TheDomain: "Derivation Element", Bytes: element}); err != nil {
			return nil, fmt.Errorf("tecdsa.Tweak: %w", err)
		}
	}
	return sample.Scalar(h.Digest()), nil
}

// DerivePublicKey returns the public key signatures for this derivation path
// and nonce verify against: master + tweak⋅G.
func DerivePublicKey(key *idkg.Transcript, path *DerivationPath, nonce []byte) (*curve.Point, error) {
	if key == nil || key.CombinedCommitment == nil || key.CombinedCommitment.Kind != idkg.CommitSimple {
		return nil, errors.New("tecdsa: key transcript must be unmasked")
	}
	master := key.CombinedCommitment.Constant()
	tweak, err := Tweak(master, path, nonce)
	if err != nil {
		return nil, err
	}
	derived := curve.NewIdentityPoint().ScalarBaseMult(tweak)
	derived.Add(derived, master)
	if derived.IsIdentity() {
		return nil, errors.New("tecdsa: derived public key is the identity")
	}
	return derived, nil
}

// SigShare is one signer's contribution: shares of the blinded numerator
// m⋅λ + r⋅(x⋅λ + t⋅λ) and the blinded denominator k⋅λ.
type SigShare struct {
	Numerator   *curve.Scalar
	Denominator *curve.Scalar
}

// SignShare combines the signer's openings of the lambda and product
// transcripts into its signature share. The openings are checked against the
// transcripts at the signer's index.
func SignShare(
	inputs *SigInputs,
	signerIndex uint32,
	lambda, kappaLambda, keyLambda *idkg.CommitmentOpening,
) (*SigShare, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if !inputs.Lambda.CombinedCommitment.CheckOpening(signerIndex, lambda) {
		return nil, errors.New("tecdsa: lambda opening does not match its transcript")
	}
	if !inputs.KappaTimesLambda.CombinedCommitment.CheckOpening(signerIndex, kappaLambda) {
		return nil, errors.New("tecdsa: kappa*lambda opening does not match its transcript")
	}
	if !inputs.KeyTimesLambda.CombinedCommitment.CheckOpening(signerIndex, keyLambda) {
		return nil, errors.New("tecdsa: key*lambda opening does not match its transcript")
	}

	r, err := sigR(inputs.Kappa)
	if err != nil {
		return nil, err
	}
	tweak, err := Tweak(inputs.Key.CombinedCommitment.Constant(), inputs.DerivationPath, inputs.Nonce[:])
	if err != nil {
		return nil, err
	}
	m := curve.NewScalar().SetHash(inputs.HashedMessage)

	// numerator = m⋅λ + r⋅(x⋅λ + t⋅λ)
	blindedKey := curve.NewScalar().MultiplyAdd(tweak, lambda.Value, keyLambda.Value)
	numerator := curve.NewScalar().Multiply(m, lambda.Value)
	numerator.MultiplyAdd(r, blindedKey, numerator)

	return &SigShare{
		Numerator:   numerator,
		Denominator: curve.NewScalar().Set(kappaLambda.Value),
	}, nil
}

// CombineSigShares interpolates at least threshold signature shares, keyed
// by signer index, into a complete signature.
func CombineSigShares(inputs *SigInputs, threshold uint32, shares map[uint32]*SigShare) (*Signature, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if uint32(len(shares)) < threshold {
		return nil, fmt.Errorf("tecdsa: %d signature shares, need at least %d", len(shares), threshold)
	}

	numerators := make(map[uint32]*curve.Scalar, len(shares))
	denominators := make(map[uint32]*curve.Scalar, len(shares))
	for signerIndex, share := range shares {
		if share == nil || share.Numerator == nil || share.Denominator == nil {
			return nil, fmt.Errorf("tecdsa: incomplete share from signer %d", signerIndex)
		}
		numerators[signerIndex] = share.Numerator
		denominators[signerIndex] = share.Denominator
	}

	at := curve.NewScalar()
	numerator, err := polynomial.InterpolateScalars(numerators, at)
	if err != nil {
		return nil, err
	}
	denominator, err := polynomial.InterpolateScalars(denominators, at)
	if err != nil {
		return nil, err
	}
	if denominator.IsZero() {
		return nil, errors.New("tecdsa: blinded denominator is zero")
	}

	r, err := sigR(inputs.Kappa)
	if err != nil {
		return nil, err
	}
	s := curve.NewScalar().Invert(denominator)
	s.Multiply(s, numerator)
	if s.IsZero() {
		return nil, errors.New("tecdsa: signature s is zero")
	}
	if s.IsOverHalfOrder() {
		s.Negate(s)
	}
	return &Signature{R: r, S: s}, nil
}

// sigR extracts r, the x coordinate of the presignature point, reduced mod
// the group order.
func sigR(kappa *idkg.Transcript) (*curve.Scalar, error) {
	point := kappa.CombinedCommitment.Constant()
	if point.IsIdentity() {
		return nil, errors.New("tecdsa: presignature point is the identity")
	}
	r := point.XScalar()
	if r.IsZero() {
		return nil, errors.New("tecdsa: presignature r is zero")
	}
	return r, nil
}
