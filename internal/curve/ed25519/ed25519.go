// Package ed25519 implements the curve.Scalar/curve.Point algebra over
// Ed25519 on top of filippo.io/edwards25519.
package ed25519

import (
	"crypto/rand"
	"crypto/sha512"
	"io"
	"math/big"

	ed "filippo.io/edwards25519"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
)

var groupOrder = func() *big.Int {
	n, _ := new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)
	return n
}()

type Scalar struct {
	s *ed.Scalar
}

func NewScalar() (curve.Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return nil, err
	}
	s, err := ed.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, err
	}
	return &Scalar{s: s}, nil
}

// ScalarFromBytes interprets b as the 32-byte little-endian canonical
// encoding of a scalar, per §3 ("Ed25519 scalars use little-endian").
func ScalarFromBytes(b []byte) (curve.Scalar, error) {
	var buf [32]byte
	copy(buf[:], b)
	s, err := ed.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		return nil, err
	}
	return &Scalar{s: s}, nil
}

// ScalarFromBigInt converts a big-endian big.Int (as produced when a
// scalar is derived from a hash, per §3) into an Ed25519 scalar: it is
// reduced mod the group order, then its bytes are reversed into the
// little-endian scalar encoding.
func ScalarFromBigInt(n *big.Int) curve.Scalar {
	m := new(big.Int).Mod(n, groupOrder)
	be := m.Bytes()
	var le [32]byte
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	s, err := ed.NewScalar().SetCanonicalBytes(le[:])
	if err != nil {
		// le may exceed canonical range if caller passed in a value not
		// already reduced; fall back to wide reduction.
		var wide [64]byte
		copy(wide[:], le[:])
		s, _ = ed.NewScalar().SetUniformBytes(wide[:])
	}
	return &Scalar{s: s}
}

func (s *Scalar) Bytes() []byte {
	return s.s.Bytes()
}

func (s *Scalar) BigInt() *big.Int {
	le := s.s.Bytes()
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

func (s *Scalar) Add(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	res := ed.NewScalar().Add(s.s, other.s)
	return &Scalar{s: res}
}

func (s *Scalar) Sub(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	res := ed.NewScalar().Subtract(s.s, other.s)
	return &Scalar{s: res}
}

func (s *Scalar) Mul(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	res := ed.NewScalar().Multiply(s.s, other.s)
	return &Scalar{s: res}
}

func (s *Scalar) Invert() curve.Scalar {
	res := ed.NewScalar().Invert(s.s)
	return &Scalar{s: res}
}

func (s *Scalar) Negate() curve.Scalar {
	res := ed.NewScalar().Negate(s.s)
	return &Scalar{s: res}
}

func (s *Scalar) IsZero() bool {
	zero := ed.NewScalar()
	return s.s.Equal(zero) == 1
}

func (s *Scalar) Equal(o curve.Scalar) bool {
	other, ok := o.(*Scalar)
	if !ok {
		return false
	}
	return s.s.Equal(other.s) == 1
}

type Point struct {
	p *ed.Point
}

func BasePoint() curve.Point {
	return &Point{p: ed.NewGeneratorPoint()}
}

func Order() *big.Int {
	return new(big.Int).Set(groupOrder)
}

func PointFromBytes(b []byte) (curve.Point, error) {
	p, err := ed.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, err
	}
	return &Point{p: p}, nil
}

func (p *Point) Bytes() []byte {
	return p.p.Bytes()
}

// BytesUncompressed is identical to Bytes for Ed25519: the curve library's
// only wire format is the 32-byte compressed (sign-bit + y) encoding, per
// §3/§6 ("Ed25519... uncompressed (65 or 32 bytes)").
func (p *Point) BytesUncompressed() []byte {
	return p.p.Bytes()
}

func (p *Point) Add(o curve.Point) curve.Point {
	other := o.(*Point)
	res := ed.NewIdentityPoint().Add(p.p, other.p)
	return &Point{p: res}
}

func (p *Point) ScalarMult(s curve.Scalar) curve.Point {
	sc := s.(*Scalar)
	res := ed.NewIdentityPoint().ScalarMult(sc.s, p.p)
	return &Point{p: res}
}

func (p *Point) IsIdentity() bool {
	return p.p.Equal(ed.NewIdentityPoint()) == 1
}

func (p *Point) Equal(o curve.Point) bool {
	other, ok := o.(*Point)
	if !ok {
		return false
	}
	return p.p.Equal(other.p) == 1
}

// HashToScalar hashes the concatenation of parts with SHA-512 and reduces
// the resulting 64-byte little-endian digest mod the group order via
// SetUniformBytes, per §4.9 ("rᵢ = H(prefixᵢ ‖ agg_Q ‖ digest) reduced to
// scalar (Ed25519 little-endian reduction)").
func HashToScalar(parts ...[]byte) curve.Scalar {
	h := sha512.New()
	for _, part := range parts {
		h.Write(part)
	}
	digest := h.Sum(nil)
	s, _ := ed.NewScalar().SetUniformBytes(digest)
	return &Scalar{s: s}
}

// CommitmentHash computes H(parts...) with SHA-512, used for the Ed25519
// DLogCommitment hash commitments in keygen.
func CommitmentHash(parts ...[]byte) []byte {
	h := sha512.New()
	for _, part := range parts {
		h.Write(part)
	}
	return h.Sum(nil)
}

// Suite is the curve.Suite instance for Ed25519.
var Suite = curve.Suite{
	Name:             "ed25519",
	NewScalar:        NewScalar,
	ScalarFromBytes:  ScalarFromBytes,
	ScalarFromBigInt: ScalarFromBigInt,
	PointFromBytes:   PointFromBytes,
	BasePoint:        BasePoint,
	Order:            Order,
	HashToScalar:     HashToScalar,
	CommitmentHasher: CommitmentHash,
}

// ClampSeed applies the RFC 8032 bit-fixing to a 32-byte seed and returns
// the derived scalar x and nonce prefix, per §4.8.
func ClampSeed(seed [32]byte) (x curve.Scalar, prefix [32]byte) {
	h := sha512.Sum512(seed[:])
	var clamped [32]byte
	copy(clamped[:], h[:32])
	clamped[0] &^= 0b0000_0111 // clear bits 0,1,2
	clamped[31] &^= 0b1000_0000 // clear bit 7
	clamped[31] |= 0b0100_0000 // set bit 6

	s, err := ed.NewScalar().SetBytesWithClamping(clamped[:])
	if err != nil {
		// SetBytesWithClamping clamps internally and should never reject a
		// 32-byte input; fall back to the manually clamped bytes.
		s, _ = ed.NewScalar().SetCanonicalBytes(clamped[:])
	}
	copy(prefix[:], h[32:])
	return &Scalar{s: s}, prefix
}
