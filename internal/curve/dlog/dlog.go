// Package dlog implements Schnorr-style discrete-log proofs: plain
// DLogProof, and a commit-then-reveal DLogCommitment/DLogWitness pair
// used by both curves' Keygen protocols so that neither party can choose
// its share as a function of the peer's revealed point.
//
// Both curves reuse this single implementation, parameterized by a
// curve.Suite; only the hash function and scalar byte order differ,
// encoded as per-suite constants rather than branched on at call sites.
package dlog

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
)

// Proof is a Schnorr proof of knowledge of x such that Q = xG.
type Proof struct {
	Q curve.Point
	R curve.Point
	S curve.Scalar
}

func challenge(suite curve.Suite, R, Q curve.Point, extra *big.Int) curve.Scalar {
	parts := [][]byte{R.Bytes(), suite.BasePoint().Bytes(), Q.Bytes()}
	if extra != nil {
		parts = append(parts, extra.Bytes())
	}
	return suite.HashToScalar(parts...)
}

// Prove generates a DLogProof for secret x with public point Q = xG.
// challenge, if non-nil, is folded into the Fiat-Shamir hash to bind the
// proof to context (used by Sign to bind the x1-proof to R, per §4.5).
func Prove(suite curve.Suite, x curve.Scalar, Q curve.Point, challenge_ *big.Int) (*Proof, error) {
	r, err := suite.NewScalar()
	if err != nil {
		return nil, errors.WithMessage(err, "dlog: failed to sample nonce")
	}
	R := suite.BasePoint().ScalarMult(r)
	e := challenge(suite, R, Q, challenge_)
	s := r.Sub(e.Mul(x))
	return &Proof{Q: Q, R: R, S: s}, nil
}

// Verify checks sG + eQ = R and R != identity.
func (p *Proof) Verify(suite curve.Suite, challenge_ *big.Int) bool {
	if p == nil || p.Q == nil || p.R == nil || p.S == nil {
		return false
	}
	if p.R.IsIdentity() {
		return false
	}
	e := challenge(suite, p.R, p.Q, challenge_)
	lhs := suite.BasePoint().ScalarMult(p.S).Add(p.Q.ScalarMult(e))
	return lhs.Equal(p.R)
}

// Commitment is the pair of hash commitments {H(Q‖bQ), H(R‖bR)} sent in
// the first round of a committed-Schnorr exchange.
type Commitment struct {
	CQ []byte
	CR []byte
}

// Opening holds the prover's secret blinds and ephemeral nonce between the
// commit and reveal steps of a protocol round; it must be zeroed after use.
type Opening struct {
	suite curve.Suite
	r     curve.Scalar
	R     curve.Point
	BQ    []byte
	BR    []byte
}

// Commit samples fresh blinds bQ, bR and a fresh nonce r, computing
// R = rG, and returns both the Commitment to send immediately and the
// Opening to retain until the reveal step.
func Commit(suite curve.Suite, Q curve.Point) (*Opening, *Commitment, error) {
	r, err := suite.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "dlog: failed to sample nonce")
	}
	R := suite.BasePoint().ScalarMult(r)

	bQ := make([]byte, 32)
	bR := make([]byte, 32)
	if _, err := rand.Read(bQ); err != nil {
		return nil, nil, errors.WithMessage(err, "dlog: failed to sample blind bQ")
	}
	if _, err := rand.Read(bR); err != nil {
		return nil, nil, errors.WithMessage(err, "dlog: failed to sample blind bR")
	}

	comm := &Commitment{
		CQ: suite.CommitmentHasher(Q.Bytes(), bQ),
		CR: suite.CommitmentHasher(R.Bytes(), bR),
	}
	op := &Opening{suite: suite, r: r, R: R, BQ: bQ, BR: bR}
	return op, comm, nil
}

// Witness is the reveal: the blinds plus the underlying DLogProof.
type Witness struct {
	BQ    []byte
	BR    []byte
	Proof *Proof
}

// Open completes the committed proof for secret x, public point Q = xG,
// using the nonce and blinds retained from Commit.
func (o *Opening) Open(x curve.Scalar, Q curve.Point, challenge_ *big.Int) *Witness {
	e := challenge(o.suite, o.R, Q, challenge_)
	s := o.r.Sub(e.Mul(x))
	return &Witness{
		BQ: o.BQ,
		BR: o.BR,
		Proof: &Proof{
			Q: Q,
			R: o.R,
			S: s,
		},
	}
}

// Zero clears the ephemeral nonce and blinds. Scalars are immutable value
// wrappers in this module so "zeroing" drops the reference; callers MUST
// NOT retain o after calling Zero.
func (o *Opening) Zero() {
	o.r = nil
	o.R = nil
	for i := range o.BQ {
		o.BQ[i] = 0
	}
	for i := range o.BR {
		o.BR[i] = 0
	}
}

// Verify recomputes both hash commitments against the revealed witness and
// only then performs the underlying Schnorr verification, per §3's
// "verification recomputes both commitments and then the Schnorr
// verification."
func Verify(suite curve.Suite, comm *Commitment, w *Witness, challenge_ *big.Int) bool {
	if comm == nil || w == nil || w.Proof == nil {
		return false
	}
	gotCQ := suite.CommitmentHasher(w.Proof.Q.Bytes(), w.BQ)
	gotCR := suite.CommitmentHasher(w.Proof.R.Bytes(), w.BR)
	if !constantTimeEqual(gotCQ, comm.CQ) || !constantTimeEqual(gotCR, comm.CR) {
		return false
	}
	return w.Proof.Verify(suite, challenge_)
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
