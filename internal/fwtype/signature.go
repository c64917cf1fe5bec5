package fwtype

// SignatureSize is the length of the opaque signature material.
const SignatureSize = 256

// Signature is the trailing authentication block of a container.
// Its contents are recorded as-is and never verified.
type Signature struct {
	// Position is the stream offset of the ENDS tag that begins the block.
	Position int64

	// Signature is the opaque signature material.
	Signature [SignatureSize]byte

	// Key identifies the signing key.
	Key uint32
}
