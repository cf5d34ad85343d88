// Package encproof implements a correct-encryption-of-secret ZK proof: a
// non-interactive proof that a Paillier ciphertext c encrypts the
// discrete log x1 of a curve point Q = x1*G, without a supporting range
// proof. The construction uses the linear-response shape common to MtA
// proofs (curve commitment + Paillier commitment, Fiat-Shamir challenge,
// single combined response), adapted from "does c encrypt a times b" down
// to the simpler "does c encrypt the dlog of Q" statement.
//
// This protocol gives up a full range proof in exchange for a
// two-message, no-setup construction. The response s1 is returned as an
// unreduced integer (not modulo the curve order) specifically so the
// verifier's Paillier-side equation can use it as a true exponent; a
// malicious prover that submits an out-of-range x1 is caught only under
// the honest-but-curious assumption, not by this protocol's math.
package encproof

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
)

// alphaBits is the width of the prover's integer mask alpha. With a
// 256-bit challenge and a 256-bit x1, e*x1 is itself up to 512 bits wide,
// so a 512-bit alpha is no wider than e*x1 and adds no statistical slack
// when s1 = e*x1 + alpha is revealed unreduced.
const alphaBits = 512

// Statement is the public input: an encryption key, a ciphertext under it,
// and a curve point.
type Statement struct {
	EK *paillier.PublicKey
	C  *big.Int
	Q  curve.Point
}

// Witness is the secret input: the discrete log of Q and the randomness
// used to produce Statement.C under Statement.EK.
type Witness struct {
	X1 curve.Scalar
	R  *big.Int
}

// Proof is the non-interactive correct-encryption-of-secret proof.
type Proof struct {
	U1 curve.Point
	U2 *big.Int
	S1 *big.Int
	S2 *big.Int
}

func challenge(suite curve.Suite, st *Statement, u1 curve.Point, u2 *big.Int) *big.Int {
	e := suite.HashToScalar(
		suite.BasePoint().Bytes(),
		st.Q.Bytes(),
		st.C.Bytes(),
		u1.Bytes(),
		u2.Bytes(),
	)
	return e.BigInt()
}

// Prove builds a Proof that Statement.C encrypts the discrete log of
// Statement.Q under Statement.EK, given the witness.
//
// alpha <- [0, 2^alphaBits), beta <- Z_n^*
// u1 = alpha*G
// u2 = (1+n)^alpha * beta^n mod n^2
// e  = H(G, Q, c, u1, u2)
// s1 = e*x1 + alpha                 (over Z)
// s2 = r^e * beta mod n
func Prove(suite curve.Suite, wit *Witness, st *Statement) (*Proof, error) {
	n := st.EK.Modulus()

	alphaMax := new(big.Int).Lsh(big.NewInt(1), alphaBits)
	alpha, err := rand.Int(rand.Reader, alphaMax)
	if err != nil {
		return nil, errors.WithMessage(err, "encproof: failed to sample alpha")
	}

	var beta *big.Int
	for {
		beta, err = rand.Int(rand.Reader, n)
		if err != nil {
			return nil, errors.WithMessage(err, "encproof: failed to sample beta")
		}
		if beta.Sign() != 0 {
			break
		}
	}

	u1 := suite.BasePoint().ScalarMult(suite.ScalarFromBigInt(alpha))

	u2, err := st.EK.EncryptWithChosenRandomness(alpha, beta)
	if err != nil {
		return nil, errors.WithMessage(err, "encproof: failed to form u2")
	}

	e := challenge(suite, st, u1, u2)

	x1 := wit.X1.BigInt()
	s1 := new(big.Int).Mul(e, x1)
	s1.Add(s1, alpha)

	s2 := new(big.Int).Exp(wit.R, e, n)
	s2.Mul(s2, beta)
	s2.Mod(s2, n)

	return &Proof{U1: u1, U2: u2, S1: s1, S2: s2}, nil
}

// Verify checks the proof's conditions:
//
//	0 < u2 < n^2
//	u1 == s1*G - e*Q
//	u2 == (1+n)^s1 * s2^n * c^-e mod n^2
func Verify(suite curve.Suite, proof *Proof, st *Statement) bool {
	if proof == nil || proof.U1 == nil || proof.U2 == nil || proof.S1 == nil || proof.S2 == nil {
		return false
	}
	if proof.U2.Sign() == 0 {
		return false
	}
	n := st.EK.Modulus()
	n2 := st.EK.ModulusSquared()
	if proof.U2.Sign() < 0 || proof.U2.Cmp(n2) >= 0 {
		return false
	}

	e := challenge(suite, st, proof.U1, proof.U2)

	// u1 == s1*G - e*Q
	s1G := suite.BasePoint().ScalarMult(suite.ScalarFromBigInt(proof.S1))
	negEQ := st.Q.ScalarMult(suite.ScalarFromBigInt(e).Negate())
	lhs := s1G.Add(negEQ)
	if !lhs.Equal(proof.U1) {
		return false
	}

	// u2 == (1+n)^s1 * s2^n * c^-e mod n^2
	gs1 := new(big.Int).Mul(n, proof.S1)
	gs1.Add(gs1, big.NewInt(1))
	gs1.Mod(gs1, n2)

	s2n := new(big.Int).Exp(proof.S2, n, n2)

	cInv := new(big.Int).ModInverse(st.C, n2)
	if cInv == nil {
		return false
	}
	cNegE := new(big.Int).Exp(cInv, e, n2)

	want := new(big.Int).Mul(gs1, s2n)
	want.Mod(want, n2)
	want.Mul(want, cNegE)
	want.Mod(want, n2)

	return want.Cmp(proof.U2) == 0
}
