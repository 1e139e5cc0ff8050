package idkg

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/quorumsig/tecdsa/pkg/math/curve"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// The wire formats below are cbor encodings of surrogate structs holding
// only plain byte slices, so the encoding does not depend on the cbor
// library's treatment of custom types.

type rawCommitment struct {
	Kind         uint8
	Coefficients [][]byte
}

type rawOpening struct {
	Value []byte
	Mask  []byte
}

type rawSingleCiphertext struct {
	Ephemeral []byte
	CTexts    [][]byte
}

type rawPairCiphertext struct {
	Ephemeral []byte
	CTexts    [][2][]byte
}

type rawDealing struct {
	Commitment rawCommitment
	Single     *rawSingleCiphertext
	Pair       *rawPairCiphertext
}

type rawTranscript struct {
	CombineMode uint8
	Commitment  rawCommitment
}

type rawComplaint struct {
	SharedSecret []byte
	Challenge    []byte
	Response     []byte
}

func pointsToBytes(points []*curve.Point) ([][]byte, error) {
	out := make([][]byte, len(points))
	for i, p := range points {
		data, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func pointsFromBytes(data [][]byte) ([]*curve.Point, error) {
	out := make([]*curve.Point, len(data))
	for i, b := range data {
		p := curve.NewIdentityPoint()
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func scalarFromBytes(data []byte) (*curve.Scalar, error) {
	s := curve.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

func pointFromBytes(data []byte) (*curve.Point, error) {
	p := curve.NewIdentityPoint()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *PolynomialCommitment) toRaw() (rawCommitment, error) {
	coefficients, err := pointsToBytes(c.Coefficients)
	if err != nil {
		return rawCommitment{}, err
	}
	return rawCommitment{Kind: uint8(c.Kind), Coefficients: coefficients}, nil
}

func commitmentFromRaw(raw rawCommitment) (*PolynomialCommitment, error) {
	coefficients, err := pointsFromBytes(raw.Coefficients)
	if err != nil {
		return nil, err
	}
	c := &PolynomialCommitment{Kind: CommitmentKind(raw.Kind), Coefficients: coefficients}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *PolynomialCommitment) MarshalBinary() ([]byte, error) {
	raw, err := c.toRaw()
	if err != nil {
		return nil, fmt.Errorf("idkg.PolynomialCommitment: %w", err)
	}
	return cbor.Marshal(raw)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *PolynomialCommitment) UnmarshalBinary(data []byte) error {
	var raw rawCommitment
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("idkg.PolynomialCommitment: %w", err)
	}
	decoded, err := commitmentFromRaw(raw)
	if err != nil {
		return fmt.Errorf("idkg.PolynomialCommitment: %w", err)
	}
	*c = *decoded
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o *CommitmentOpening) MarshalBinary() ([]byte, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	raw := rawOpening{Value: o.Value.Bytes()}
	if o.Mask != nil {
		raw.Mask = o.Mask.Bytes()
	}
	return cbor.Marshal(raw)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *CommitmentOpening) UnmarshalBinary(data []byte) error {
	var raw rawOpening
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("idkg.CommitmentOpening: %w", err)
	}
	value, err := scalarFromBytes(raw.Value)
	if err != nil {
		return fmt.Errorf("idkg.CommitmentOpening: %w", err)
	}
	o.Value, o.Mask = value, nil
	if raw.Mask != nil {
		if o.Mask, err = scalarFromBytes(raw.Mask); err != nil {
			return fmt.Errorf("idkg.CommitmentOpening: %w", err)
		}
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Dealing) MarshalBinary() ([]byte, error) {
	commitment, err := d.Commitment.toRaw()
	if err != nil {
		return nil, fmt.Errorf("idkg.Dealing: %w", err)
	}
	raw := rawDealing{Commitment: commitment}
	switch {
	case d.SingleCiphertext != nil:
		ephemeral, err := d.SingleCiphertext.Ephemeral.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("idkg.Dealing: %w", err)
		}
		ctexts := make([][]byte, len(d.SingleCiphertext.CTexts))
		for i, c := range d.SingleCiphertext.CTexts {
			ctexts[i] = c.Bytes()
		}
		raw.Single = &rawSingleCiphertext{Ephemeral: ephemeral, CTexts: ctexts}
	case d.PairCiphertext != nil:
		ephemeral, err := d.PairCiphertext.Ephemeral.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("idkg.Dealing: %w", err)
		}
		ctexts := make([][2][]byte, len(d.PairCiphertext.CTexts))
		for i, c := range d.PairCiphertext.CTexts {
			ctexts[i] = [2][]byte{c[0].Bytes(), c[1].Bytes()}
		}
		raw.Pair = &rawPairCiphertext{Ephemeral: ephemeral, CTexts: ctexts}
	default:
		return nil, errors.New("idkg.Dealing: no ciphertext")
	}
	return cbor.Marshal(raw)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Dealing) UnmarshalBinary(data []byte) error {
	var raw rawDealing
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("idkg.Dealing: %w", err)
	}
	commitment, err := commitmentFromRaw(raw.Commitment)
	if err != nil {
		return fmt.Errorf("idkg.Dealing: %w", err)
	}
	decoded := Dealing{Commitment: commitment}
	switch {
	case raw.Single != nil && raw.Pair == nil:
		ephemeral, err := pointFromBytes(raw.Single.Ephemeral)
		if err != nil {
			return fmt.Errorf("idkg.Dealing: %w", err)
		}
		ctexts := make([]*curve.Scalar, len(raw.Single.CTexts))
		for i, b := range raw.Single.CTexts {
			if ctexts[i], err = scalarFromBytes(b); err != nil {
				return fmt.Errorf("idkg.Dealing: %w", err)
			}
		}
		decoded.SingleCiphertext = &mega.CiphertextSingle{Ephemeral: ephemeral, CTexts: ctexts}
	case raw.Pair != nil && raw.Single == nil:
		ephemeral, err := pointFromBytes(raw.Pair.Ephemeral)
		if err != nil {
			return fmt.Errorf("idkg.Dealing: %w", err)
		}
		ctexts := make([][2]*curve.Scalar, len(raw.Pair.CTexts))
		for i, pair := range raw.Pair.CTexts {
			value, err := scalarFromBytes(pair[0])
			if err != nil {
				return fmt.Errorf("idkg.Dealing: %w", err)
			}
			mask, err := scalarFromBytes(pair[1])
			if err != nil {
				return fmt.Errorf("idkg.Dealing: %w", err)
			}
			ctexts[i] = [2]*curve.Scalar{value, mask}
		}
		decoded.PairCiphertext = &mega.CiphertextPairs{Ephemeral: ephemeral, CTexts: ctexts}
	default:
		return errors.New("idkg.Dealing: exactly one ciphertext expected")
	}
	*d = decoded
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Transcript) MarshalBinary() ([]byte, error) {
	commitment, err := t.CombinedCommitment.toRaw()
	if err != nil {
		return nil, fmt.Errorf("idkg.Transcript: %w", err)
	}
	return cbor.Marshal(rawTranscript{CombineMode: uint8(t.CombineMode), Commitment: commitment})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Transcript) UnmarshalBinary(data []byte) error {
	var raw rawTranscript
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("idkg.Transcript: %w", err)
	}
	mode := CombineMode(raw.CombineMode)
	if mode != BySummation && mode != ByInterpolation {
		return fmt.Errorf("idkg.Transcript: invalid combine mode %d", raw.CombineMode)
	}
	commitment, err := commitmentFromRaw(raw.Commitment)
	if err != nil {
		return fmt.Errorf("idkg.Transcript: %w", err)
	}
	t.CombineMode, t.CombinedCommitment = mode, commitment
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Complaint) MarshalBinary() ([]byte, error) {
	if c.SharedSecret == nil || c.Proof == nil || c.Proof.Challenge == nil || c.Proof.Response == nil {
		return nil, errors.New("idkg.Complaint: incomplete complaint")
	}
	shared, err := c.SharedSecret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("idkg.Complaint: %w", err)
	}
	return cbor.Marshal(rawComplaint{
		SharedSecret: shared,
		Challenge:    c.Proof.Challenge.Bytes(),
		Response:     c.Proof.Response.Bytes(),
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *Complaint) UnmarshalBinary(data []byte) error {
	var raw rawComplaint
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("idkg.Complaint: %w", err)
	}
	shared, err := pointFromBytes(raw.SharedSecret)
	if err != nil {
		return fmt.Errorf("idkg.Complaint: %w", err)
	}
	challenge, err := scalarFromBytes(raw.Challenge)
	if err != nil {
		return fmt.Errorf("idkg.Complaint: %w", err)
	}
	response, err := scalarFromBytes(raw.Response)
	if err != nil {
		return fmt.Errorf("idkg.Complaint: %w", err)
	}
	c.SharedSecret = shared
	c.Proof = &mega.DleqProof{Challenge: challenge, Response: response}
	return nil
}
