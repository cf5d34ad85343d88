package secp256k1

import (
	"math/big"
	"testing"
)

func TestScalarArithmeticRoundTrip(t *testing.T) {
	a, err := NewScalar()
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}
	b, err := NewScalar()
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}

	sum := a.Add(b)
	back := sum.Sub(b)
	if !back.Equal(a) {
		t.Fatal("(a+b)-b != a")
	}

	inv := a.Invert()
	one := a.Mul(inv)
	if one.BigInt().Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("a * a^-1 != 1, got %s", one.BigInt())
	}

	neg := a.Negate()
	if !a.Add(neg).IsZero() {
		t.Fatal("a + (-a) != 0")
	}
}

func TestScalarFromBytesRoundTrip(t *testing.T) {
	a, _ := NewScalar()
	b, err := ScalarFromBytes(a.Bytes())
	if err != nil {
		t.Fatalf("ScalarFromBytes failed: %v", err)
	}
	if !a.Equal(b) {
		t.Fatal("ScalarFromBytes(a.Bytes()) != a")
	}
}

func TestScalarFromBigIntReducesModOrder(t *testing.T) {
	over := new(big.Int).Add(Order(), big.NewInt(7))
	s := ScalarFromBigInt(over)
	if s.BigInt().Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("expected reduction to 7, got %s", s.BigInt())
	}
}

func TestPointSerializationRoundTrip(t *testing.T) {
	x, _ := NewScalar()
	Q := BasePoint().ScalarMult(x)

	compressed := Q.Bytes()
	back, err := PointFromBytes(compressed)
	if err != nil {
		t.Fatalf("PointFromBytes(compressed) failed: %v", err)
	}
	if !back.Equal(Q) {
		t.Fatal("PointFromBytes(Q.Bytes()) != Q")
	}

	uncompressed := Q.BytesUncompressed()
	back2, err := PointFromBytes(uncompressed)
	if err != nil {
		t.Fatalf("PointFromBytes(uncompressed) failed: %v", err)
	}
	if !back2.Equal(Q) {
		t.Fatal("PointFromBytes(Q.BytesUncompressed()) != Q")
	}
}

func TestPointAddAndScalarMultAgree(t *testing.T) {
	x, _ := NewScalar()
	G := BasePoint()
	twoG := G.Add(G)
	two := ScalarFromBigInt(big.NewInt(2))
	if !twoG.Equal(G.ScalarMult(two)) {
		t.Fatal("G+G != 2*G")
	}
	_ = x
}

func TestXYAccessors(t *testing.T) {
	x, _ := NewScalar()
	Q := BasePoint().ScalarMult(x).(*Point)
	if Q.X().Cmp(Order()) >= 0 {
		t.Fatal("X() not reduced below curve order")
	}
	if Q.Y().Sign() <= 0 {
		t.Fatal("Y() expected to be a positive big-endian integer")
	}
	if Q.YIsOdd() != (Q.Y().Bit(0) == 1) {
		t.Fatal("YIsOdd() disagrees with the parity of Y()")
	}
}

func TestHashToScalarDeterministic(t *testing.T) {
	a := HashToScalar([]byte("one"), []byte("two"))
	b := HashToScalar([]byte("one"), []byte("two"))
	if !a.Equal(b) {
		t.Fatal("HashToScalar not deterministic for identical inputs")
	}
	c := HashToScalar([]byte("one"), []byte("three"))
	if a.Equal(c) {
		t.Fatal("HashToScalar collided on different inputs")
	}
}

func TestIdentityPointBytesEmpty(t *testing.T) {
	x := ScalarFromBigInt(big.NewInt(0))
	identity := BasePoint().ScalarMult(x)
	if !identity.IsIdentity() {
		t.Fatal("0*G expected to be the identity point")
	}
	if len(identity.Bytes()) != 0 {
		t.Fatal("identity point expected to serialize to an empty byte slice")
	}
}
