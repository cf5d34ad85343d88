package paillier

import "golang.org/x/crypto/sha3"

// fiatShamirHash expands the concatenation of parts into a digest at
// least as wide as a Paillier modulus, using Keccak-256 in counter mode
// (a single 32-byte digest is far narrower than the ~2048-bit modulus the
// resulting challenge is reduced into, which would bias the low bits).
func fiatShamirHash(parts ...[]byte) []byte {
	const outLen = 384 // bytes; comfortably covers a 2048+-bit modulus
	out := make([]byte, 0, outLen)
	for ctr := 0; len(out) < outLen; ctr++ {
		h := sha3.NewLegacyKeccak256()
		for _, p := range parts {
			h.Write(p)
		}
		h.Write([]byte{byte(ctr), byte(ctr >> 8)})
		out = append(out, h.Sum(nil)...)
	}
	return out[:outLen]
}
