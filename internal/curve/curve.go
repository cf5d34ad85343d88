// Package curve defines the scalar/point algebra the secp256k1 and Ed25519
// protocol packages are written against, so that keygen/sign/rotate/export
// share one implementation parameterized by a Suite rather than being
// duplicated per curve.
package curve

import "math/big"

// Scalar is an element of a curve's scalar field Z_q.
type Scalar interface {
	Bytes() []byte
	BigInt() *big.Int
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Negate() Scalar
	IsZero() bool
	Equal(Scalar) bool
}

// Point is an element of a curve's group.
type Point interface {
	Bytes() []byte
	BytesUncompressed() []byte
	Add(Point) Point
	ScalarMult(Scalar) Point
	IsIdentity() bool
	Equal(Point) bool
}

// Suite bundles the curve-specific operations that differ between
// secp256k1 and Ed25519: base point, group order, scalar/point
// deserialization, and the hash-to-scalar function (Keccak-256 with
// big-endian reduction for secp256k1; SHA-512 with little-endian reduction
// for Ed25519).
//
// Keeping these as fields on a value, rather than branching on a curve
// enum at every call site, keeps curve-specific constants out of runtime
// branches entirely.
type Suite struct {
	Name string

	NewScalar        func() (Scalar, error)
	ScalarFromBytes  func([]byte) (Scalar, error)
	ScalarFromBigInt func(*big.Int) Scalar
	PointFromBytes   func([]byte) (Point, error)
	BasePoint        func() Point
	Order            func() *big.Int
	HashToScalar     func(parts ...[]byte) Scalar
	CommitmentHasher func(parts ...[]byte) []byte // same hash as HashToScalar, uncondensed
}
