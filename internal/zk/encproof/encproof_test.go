package encproof

import (
	"math/big"
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
)

func testStatementAndWitness(t *testing.T) (*paillier.PrivateKey, *Statement, *Witness) {
	t.Helper()
	priv, err := paillier.GenerateKey(paillier.MinBits + 1)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	x1, err := secp256k1.NewScalar()
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}
	q := secp256k1.Suite.BasePoint().ScalarMult(x1)

	c, r, err := priv.Encrypt(x1.BigInt())
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	st := &Statement{EK: &priv.PublicKey, C: paillier.NatToBigInt(c), Q: q}
	wit := &Witness{X1: x1, R: r}
	return priv, st, wit
}

func TestProveVerify(t *testing.T) {
	_, st, wit := testStatementAndWitness(t)

	proof, err := Prove(secp256k1.Suite, wit, st)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if !Verify(secp256k1.Suite, proof, st) {
		t.Fatal("Verify rejected a valid proof")
	}
}

func TestVerifyRejectsTamperedS1(t *testing.T) {
	_, st, wit := testStatementAndWitness(t)

	proof, err := Prove(secp256k1.Suite, wit, st)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	proof.S1 = new(big.Int).Add(proof.S1, big.NewInt(1))
	if Verify(secp256k1.Suite, proof, st) {
		t.Fatal("Verify accepted a proof with a tampered S1")
	}
}

func TestVerifyRejectsWrongStatement(t *testing.T) {
	_, st, wit := testStatementAndWitness(t)
	proof, err := Prove(secp256k1.Suite, wit, st)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	otherX1, _ := secp256k1.NewScalar()
	otherQ := secp256k1.Suite.BasePoint().ScalarMult(otherX1)
	wrongStatement := &Statement{EK: st.EK, C: st.C, Q: otherQ}

	if Verify(secp256k1.Suite, proof, wrongStatement) {
		t.Fatal("Verify accepted a proof against a mismatched statement")
	}
}
