// Package secp256k1 implements the curve.Scalar/curve.Point algebra over
// secp256k1 on top of github.com/decred/dcrd/dcrec/secp256k1/v4.
package secp256k1

import (
	"crypto/rand"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
)

var curveOrder = secp256k1.S256().N

type Scalar struct {
	s secp256k1.ModNScalar
}

func NewScalar() (curve.Scalar, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}
	var s secp256k1.ModNScalar
	s.SetByteSlice(buf[:]) // overflow is reduced mod N, which is fine for uniform sampling
	return &Scalar{s: s}, nil
}

func ScalarFromBytes(b []byte) (curve.Scalar, error) {
	var s secp256k1.ModNScalar
	s.SetByteSlice(b)
	return &Scalar{s: s}, nil
}

func ScalarFromBigInt(n *big.Int) curve.Scalar {
	m := new(big.Int).Mod(n, curveOrder)
	var s secp256k1.ModNScalar
	b := make([]byte, 32)
	m.FillBytes(b)
	s.SetByteSlice(b)
	return &Scalar{s: s}
}

func (s *Scalar) Bytes() []byte {
	b := s.s.Bytes()
	return b[:]
}

func (s *Scalar) BigInt() *big.Int {
	b := s.s.Bytes()
	return new(big.Int).SetBytes(b[:])
}

func (s *Scalar) Add(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	res := s.s
	res.Add(&other.s)
	return &Scalar{s: res}
}

func (s *Scalar) Sub(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	neg := other.s
	neg.Negate()
	res := s.s
	res.Add(&neg)
	return &Scalar{s: res}
}

func (s *Scalar) Mul(o curve.Scalar) curve.Scalar {
	other := o.(*Scalar)
	res := s.s
	res.Mul(&other.s)
	return &Scalar{s: res}
}

func (s *Scalar) Invert() curve.Scalar {
	res := s.s
	res.InverseValNonConst()
	return &Scalar{s: res}
}

func (s *Scalar) Negate() curve.Scalar {
	res := s.s
	res.Negate()
	return &Scalar{s: res}
}

func (s *Scalar) IsZero() bool {
	return s.s.IsZero()
}

func (s *Scalar) Equal(o curve.Scalar) bool {
	other, ok := o.(*Scalar)
	if !ok {
		return false
	}
	return s.s.Equals(&other.s)
}

// Point wraps a secp256k1 Jacobian point, always normalized to affine on
// construction so that comparisons and serialization are cheap.
type Point struct {
	p secp256k1.JacobianPoint
}

func BasePoint() curve.Point {
	var p secp256k1.JacobianPoint
	one := new(secp256k1.ModNScalar).SetInt(1)
	secp256k1.ScalarBaseMultNonConst(one, &p)
	p.ToAffine()
	return &Point{p: p}
}

func Order() *big.Int {
	return new(big.Int).Set(curveOrder)
}

func PointFromBytes(b []byte) (curve.Point, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	var p secp256k1.JacobianPoint
	pub.AsJacobian(&p)
	p.ToAffine()
	return &Point{p: p}, nil
}

func (p *Point) Bytes() []byte {
	if p.IsIdentity() {
		return []byte{}
	}
	pub := secp256k1.NewPublicKey(&p.p.X, &p.p.Y)
	return pub.SerializeCompressed()
}

func (p *Point) BytesUncompressed() []byte {
	if p.IsIdentity() {
		return []byte{}
	}
	pub := secp256k1.NewPublicKey(&p.p.X, &p.p.Y)
	return pub.SerializeUncompressed()
}

func (p *Point) Add(o curve.Point) curve.Point {
	other := o.(*Point)
	var res secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.p, &other.p, &res)
	res.ToAffine()
	return &Point{p: res}
}

func (p *Point) ScalarMult(s curve.Scalar) curve.Point {
	sc := s.(*Scalar)
	var res secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&sc.s, &p.p, &res)
	res.ToAffine()
	return &Point{p: res}
}

func (p *Point) IsIdentity() bool {
	return (p.p.X.IsZero() && p.p.Y.IsZero()) || p.p.Z.IsZero()
}

func (p *Point) Equal(o curve.Point) bool {
	other, ok := o.(*Point)
	if !ok {
		return false
	}
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() == other.IsIdentity()
	}
	return p.p.X.Equals(&other.p.X) && p.p.Y.Equals(&other.p.Y)
}

// X returns the affine x-coordinate reduced mod the curve order, as used to
// build the ECDSA signature component r = R.x mod q.
func (p *Point) X() *big.Int {
	xBytes := p.p.X.Bytes()
	x := new(big.Int).SetBytes(xBytes[:])
	return x.Mod(x, curveOrder)
}

// YIsOdd reports the parity of the affine y-coordinate, used to compute the
// ECDSA recovery id v.
func (p *Point) YIsOdd() bool {
	return p.p.Y.IsOdd()
}

// Y returns the affine y-coordinate as an unreduced big-endian integer.
func (p *Point) Y() *big.Int {
	yBytes := p.p.Y.Bytes()
	return new(big.Int).SetBytes(yBytes[:])
}

// HashToScalar hashes the concatenation of parts with Keccak-256 and
// reduces the big-endian digest mod the curve order.
func HashToScalar(parts ...[]byte) curve.Scalar {
	h := sha3.NewLegacyKeccak256()
	for _, part := range parts {
		h.Write(part)
	}
	digest := h.Sum(nil)
	n := new(big.Int).SetBytes(digest)
	n.Mod(n, curveOrder)
	return ScalarFromBigInt(n)
}

// CommitmentHash computes H(parts...) with Keccak-256, used for the
// DLogCommitment hash commitments.
func CommitmentHash(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, part := range parts {
		h.Write(part)
	}
	return h.Sum(nil)
}

// Suite is the curve.Suite instance for secp256k1.
var Suite = curve.Suite{
	Name:             "secp256k1",
	NewScalar:        NewScalar,
	ScalarFromBytes:  ScalarFromBytes,
	ScalarFromBigInt: ScalarFromBigInt,
	PointFromBytes:   PointFromBytes,
	BasePoint:        BasePoint,
	Order:            Order,
	HashToScalar:     HashToScalar,
	CommitmentHasher: CommitmentHash,
}
