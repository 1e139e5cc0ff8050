package vault

import (
	"fmt"

	"github.com/quorumsig/tecdsa/pkg/idkg"
	"github.com/quorumsig/tecdsa/pkg/keyid"
)

// SecretSharesNotFoundError is returned when an operation references a
// commitment whose opening is not in the store.
type SecretSharesNotFoundError struct {
	Commitment keyid.KeyID
}

func (e *SecretSharesNotFoundError) Error() string {
	return fmt.Sprintf("vault: no secret shares stored for commitment %s", e.Commitment)
}

// PrivateKeyNotFoundError is returned when the node's encryption key pair is
// not in the store.
type PrivateKeyNotFoundError struct {
	KeyID keyid.KeyID
}

func (e *PrivateKeyNotFoundError) Error() string {
	return fmt.Sprintf("vault: no private key stored under %s", e.KeyID)
}

// UnsupportedAlgorithmError rejects an algorithm identifier the vault does
// not implement.
type UnsupportedAlgorithmError struct {
	Algorithm idkg.Algorithm
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("vault: unsupported algorithm %s", e.Algorithm)
}

// SerializationError is returned when converting between in-memory values
// and their stored byte representation fails.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("vault: serialization: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// InvalidArgumentsError is returned when cross-party inputs fail a
// consistency check that supplied openings were expected to resolve.
type InvalidArgumentsError struct {
	Err error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("vault: invalid arguments: %v", e.Err)
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Err }

// InternalError wraps a primitive failure with no protocol level recovery.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("vault: internal: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
