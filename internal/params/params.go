package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// BytesScalar is the length of the canonical encoding of a secp256k1 scalar.
	BytesScalar = 32
	// BytesPoint is the length of a compressed secp256k1 point.
	BytesPoint = 33

	// BytesSeed is the length of the randomness drawn for one seeded operation.
	BytesSeed = 32
)
