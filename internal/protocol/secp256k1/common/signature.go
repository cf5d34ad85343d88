package common

import (
	"math/big"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
)

// Signature is a standard ECDSA signature with recovery id, per §6:
// "{r:hex, s:hex, v:u8} with 0 <= v <= 1, low-s enforced".
type Signature struct {
	R *big.Int
	S *big.Int
	V byte
}

// NormalizeLowS enforces s <= q/2 (malleability fix), flipping v whenever
// s is flipped, per §4.5/§8 invariant 9.
func NormalizeLowS(s *big.Int, v byte) (*big.Int, byte) {
	q := secp256k1.Order()
	half := new(big.Int).Rsh(q, 1)
	if s.Cmp(half) > 0 {
		return new(big.Int).Sub(q, s), v ^ 1
	}
	return s, v
}

// DigestToInt interprets a message digest as a big-endian integer reduced
// mod the curve order, the standard ECDSA treatment of e = H(m).
func DigestToInt(digest []byte) *big.Int {
	e := new(big.Int).SetBytes(digest)
	return e.Mod(e, secp256k1.Order())
}

// Verify checks a standard ECDSA signature (r, s) over digest against
// pubKey, per §4.5's mandatory final verification on Party-1.
func Verify(pubKey curve.Point, digest []byte, r, s *big.Int) bool {
	q := secp256k1.Order()
	if r.Sign() <= 0 || r.Cmp(q) >= 0 || s.Sign() <= 0 || s.Cmp(q) >= 0 {
		return false
	}
	e := DigestToInt(digest)

	sInv := secp256k1.ScalarFromBigInt(s).Invert()
	u1 := secp256k1.ScalarFromBigInt(e).Mul(sInv)
	u2 := secp256k1.ScalarFromBigInt(r).Mul(sInv)

	p := secp256k1.Suite.BasePoint().ScalarMult(u1).Add(pubKey.ScalarMult(u2))
	if p.IsIdentity() {
		return false
	}
	x := p.(*secp256k1.Point).X()
	return x.Cmp(r) == 0
}
