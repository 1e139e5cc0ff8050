package curve

import (
	"encoding/hex"
	"sync"

	"github.com/cronokirby/saferith"
)

// orderHex is the order q of the secp256k1 group.
const orderHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"

var (
	orderOnce sync.Once
	order     *saferith.Modulus
)

// Order returns the group order q as a saferith modulus, suitable for
// rejection sampling of scalars.
func Order() *saferith.Modulus {
	orderOnce.Do(func() {
		bytes, err := hex.DecodeString(orderHex)
		if err != nil {
			panic("curve: invalid order constant")
		}
		order = saferith.ModulusFromBytes(bytes)
	})
	return order
}
