// Package party2 implements the responder role of secp256k1 Sign, §4.5:
// prove an ephemeral K2, verify Party-1's K1 reveal and x1-proof bound to
// r = R.x, then compute a Paillier-blinded partial signature that Party-1
// can complete without Party-2 ever learning k1 or x1.
package party2

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
)

// Step1InFromP1 carries Party-1's commitment to K1.
type Step1InFromP1 struct {
	Commitment *dlog.Commitment
}

// State carries the ephemeral k2 between steps.
type State struct {
	k2         curve.Scalar
	commitment *dlog.Commitment
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.k2 = nil
	s.commitment = nil
}

// Step1Out is sent back to Party-1: a direct proof of K2.
type Step1Out struct {
	Proof *dlog.Proof
}

// Step1 samples k2 and proves K2 = k2*G.
func Step1(in *Step1InFromP1) (*State, *Step1Out, error) {
	if in == nil || in.Commitment == nil {
		return nil, nil, errors.New("sign/party2: missing K1 commitment")
	}
	k2, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "sign/party2: failed to sample k2")
	}
	K2 := secp256k1.Suite.BasePoint().ScalarMult(k2)
	proof, err := dlog.Prove(secp256k1.Suite, k2, K2, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "sign/party2: failed to prove K2")
	}
	return &State{k2: k2, commitment: in.Commitment}, &Step1Out{Proof: proof}, nil
}

// Step2InFromP1 is Party-1's reveal plus its x1-proof for this session.
type Step2InFromP1 struct {
	Witness *dlog.Witness // reveals K1
	Digest  []byte
	X1Proof *dlog.Proof
}

// Step2Out carries the Paillier-blinded partial signature back to Party-1.
type Step2Out struct {
	C *big.Int
}

// Step2 verifies Party-1's K1 reveal and x1-proof (bound to r = R.x),
// then computes the Paillier-blinded partial signature per §4.5.
func (s *State) Step2(share *common.Party2Share, digest []byte, in *Step2InFromP1) (*Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Witness == nil || in.X1Proof == nil {
		return nil, errors.New("sign/party2: malformed step2 input")
	}
	if !dlog.Verify(secp256k1.Suite, s.commitment, in.Witness, nil) {
		return nil, errors.New("sign/party2: K1 reveal failed verification")
	}
	K1 := in.Witness.Proof.Q
	if K1 == nil || K1.IsIdentity() {
		return nil, errors.New("sign/party2: K1 is the identity point")
	}

	R := K1.ScalarMult(s.k2)
	if R.IsIdentity() {
		return nil, errors.New("sign/party2: R is the identity point")
	}
	r := R.(*secp256k1.Point).X()

	if in.X1Proof.Q == nil || !in.X1Proof.Q.Equal(share.Q1) {
		return nil, errors.New("sign/party2: x1-proof is against the wrong public point")
	}
	if !in.X1Proof.Verify(secp256k1.Suite, r) {
		return nil, errors.New("sign/party2: x1-proof failed")
	}

	k2inv := s.k2.Invert()
	e := common.DigestToInt(digest)
	eTerm := k2inv.Mul(secp256k1.ScalarFromBigInt(e)).BigInt()

	// rho is sampled uniformly in [0, q^2).
	q := secp256k1.Order()
	rhoMax := new(big.Int).Mul(q, q)
	rho, err := rand.Int(rand.Reader, rhoMax)
	if err != nil {
		return nil, errors.WithMessage(err, "sign/party2: failed to sample rho")
	}

	plain1 := new(big.Int).Mul(rho, secp256k1.Order())
	plain1.Add(plain1, eTerm)

	n := share.PaillierEK.Modulus()
	r1, err := rand.Int(rand.Reader, n)
	if err != nil {
		return nil, errors.WithMessage(err, "sign/party2: failed to sample c1 randomness")
	}
	if r1.Sign() == 0 {
		r1.SetInt64(1)
	}
	c1, err := share.PaillierEK.EncryptWithChosenRandomness(plain1, r1)
	if err != nil {
		return nil, errors.WithMessage(err, "sign/party2: failed to encrypt c1")
	}

	exponent := k2inv.Mul(secp256k1.ScalarFromBigInt(r)).Mul(share.X2).BigInt()
	c2 := share.PaillierEK.ScalarMul(paillier.BigIntToNat(share.EncryptedX1, share.PaillierEK.ModulusSquared().BitLen()), exponent)

	c := share.PaillierEK.Add(c1, c2)
	return &Step2Out{C: paillier.NatToBigInt(c)}, nil
}

