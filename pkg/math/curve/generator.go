package curve

import (
	"encoding/binary"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

const altGeneratorDomain = "quorumsig-tecdsa-pedersen-generator-h"

var (
	altOnce sync.Once
	altBase Point
)

// AltBasePoint returns H, a second generator for Pedersen commitments whose
// discrete logarithm with respect to G is unknown.
//
// H is derived by hashing a fixed domain string together with a counter and
// decompressing the digest as an x coordinate, taking the first counter value
// that lands on the curve.
func AltBasePoint() *Point {
	altOnce.Do(func() {
		counter := make([]byte, 4)
		for i := uint32(0); ; i++ {
			binary.BigEndian.PutUint32(counter, i)
			digest := sha3.Sum256(append([]byte(altGeneratorDomain), counter...))

			var x, y secp256k1.FieldVal
			if x.SetByteSlice(digest[:]) {
				continue
			}
			if !secp256k1.DecompressY(&x, false, &y) {
				continue
			}
			y.Normalize()
			altBase.p.X.Set(&x)
			altBase.p.Y.Set(&y)
			altBase.p.Z.SetInt(1)
			return
		}
	})
	var v Point
	v.p.Set(&altBase.p)
	return &v
}
