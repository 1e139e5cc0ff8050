package vault

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/mega"
)

// rawKeySet is the stored form of a receiver encryption key pair.
type rawKeySet struct {
	Algorithm  uint8
	PublicKey  []byte
	PrivateKey []byte
}

func encodeKeySet(algorithm idkg.Algorithm, pk *mega.PublicKey, sk *mega.PrivateKey) ([]byte, error) {
	publicBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	privateBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(rawKeySet{
		Algorithm:  uint8(algorithm),
		PublicKey:  publicBytes,
		PrivateKey: privateBytes,
	})
}

func decodeKeySet(data []byte) (idkg.Algorithm, *mega.PublicKey, *mega.PrivateKey, error) {
	var raw rawKeySet
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return idkg.AlgorithmUnknown, nil, nil, err
	}
	pk := &mega.PublicKey{}
	if err := pk.UnmarshalBinary(raw.PublicKey); err != nil {
		return idkg.AlgorithmUnknown, nil, nil, fmt.Errorf("stored public key: %w", err)
	}
	sk := &mega.PrivateKey{}
	if err := sk.UnmarshalBinary(raw.PrivateKey); err != nil {
		return idkg.AlgorithmUnknown, nil, nil, fmt.Errorf("stored private key: %w", err)
	}
	return idkg.Algorithm(raw.Algorithm), pk, sk, nil
}
