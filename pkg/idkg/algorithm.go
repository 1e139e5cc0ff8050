package idkg

import "fmt"

// Algorithm identifies the signature scheme a protocol instance runs over.
type Algorithm uint8

const (
	AlgorithmUnknown Algorithm = iota
	// AlgorithmEcdsaSecp256k1 is threshold ECDSA over secp256k1, the only
	// algorithm currently supported.
	AlgorithmEcdsaSecp256k1
)

// Supported reports whether the protocol math implements this algorithm.
func (a Algorithm) Supported() bool {
	return a == AlgorithmEcdsaSecp256k1
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmEcdsaSecp256k1:
		return "ecdsa-secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}
