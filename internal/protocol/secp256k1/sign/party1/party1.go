// Package party1 implements the initiator role of secp256k1 Sign, §4.5:
// commit an ephemeral K1, verify Party-2's K2 proof, compute the shared
// R = k1*k2*G, prove knowledge of x1 bound to r = R.x, and on Step3
// decrypt Party-2's Paillier-blinded partial signature into (r, s, v).
package party1

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
)

// State carries the ephemeral k1 and R between steps.
type State struct {
	k1      curve.Scalar
	opening *dlog.Opening
	digest  []byte
	R       curve.Point
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	if s.opening != nil {
		s.opening.Zero()
	}
	s.k1 = nil
	s.opening = nil
	s.R = nil
}

// Step1Out is sent to Party-2.
type Step1Out struct {
	Commitment *dlog.Commitment
}

// Step1 samples the ephemeral k1 and commits K1 = k1*G.
func Step1() (*State, *Step1Out, error) {
	k1, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "sign/party1: failed to sample k1")
	}
	K1 := secp256k1.Suite.BasePoint().ScalarMult(k1)
	opening, commitment, err := dlog.Commit(secp256k1.Suite, K1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "sign/party1: failed to commit K1")
	}
	return &State{k1: k1, opening: opening}, &Step1Out{Commitment: commitment}, nil
}

// Step1In is Party-2's reply to Step1.
type Step1In struct {
	Proof *dlog.Proof // proof of K2
}

// Step2Out is sent to Party-2 to drive its partial-signature computation.
type Step2Out struct {
	Witness *dlog.Witness // reveals K1
	Digest  []byte
	X1Proof *dlog.Proof
}

// Step2 verifies Party-2's K2 proof, computes R = k1*K2, and proves
// knowledge of x1 bound to the challenge r = R.x mod q.
func (s *State) Step2(share *common.Party1Share, digest []byte, in *Step1In) (*Step2Out, error) {
	if in == nil || in.Proof == nil {
		s.Zero()
		return nil, errors.New("sign/party1: missing K2 proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		s.Zero()
		return nil, errors.New("sign/party1: K2 is the identity point")
	}
	if !in.Proof.Verify(secp256k1.Suite, nil) {
		s.Zero()
		return nil, errors.New("sign/party1: K2 proof failed")
	}
	K2 := in.Proof.Q

	R := K2.ScalarMult(s.k1)
	if R.IsIdentity() {
		s.Zero()
		return nil, errors.New("sign/party1: R is the identity point")
	}
	r := R.(*secp256k1.Point).X()
	s.R = R
	s.digest = digest

	K1 := secp256k1.Suite.BasePoint().ScalarMult(s.k1)
	Q1 := secp256k1.Suite.BasePoint().ScalarMult(share.X1)
	x1Proof, err := dlog.Prove(secp256k1.Suite, share.X1, Q1, r)
	if err != nil {
		s.Zero()
		return nil, errors.WithMessage(err, "sign/party1: failed to prove x1")
	}
	witness := s.opening.Open(s.k1, K1, nil)

	return &Step2Out{Witness: witness, Digest: digest, X1Proof: x1Proof}, nil
}

// Step2In carries Party-2's Paillier-encrypted partial signature.
type Step2In struct {
	C *big.Int
}

// Step3 decrypts the partial signature, completes it with k1^-1, applies
// low-s normalization, computes v, and performs the mandatory final
// signature verification, per §4.5.
func (s *State) Step3(share *common.Party1Share, in *Step2In) (*common.Signature, error) {
	defer s.Zero()

	if in == nil || in.C == nil {
		return nil, errors.New("sign/party1: missing partial signature")
	}

	n2Bits := share.PaillierDK.ModulusSquared().BitLen()
	partial, err := share.PaillierDK.Decrypt(paillier.BigIntToNat(in.C, n2Bits))
	if err != nil {
		return nil, errors.WithMessage(err, "sign/party1: failed to decrypt partial signature")
	}

	partialScalar := secp256k1.ScalarFromBigInt(partial)
	k1inv := s.k1.Invert()
	sScalar := k1inv.Mul(partialScalar)
	sVal := sScalar.BigInt()

	r := s.R.(*secp256k1.Point).X()
	yParity := new(big.Int).Mod(s.R.(*secp256k1.Point).Y(), secp256k1.Order())
	v := byte(yParity.Bit(0))

	sVal, v = common.NormalizeLowS(sVal, v)

	if !common.Verify(share.PubKey, s.digest, r, sVal) {
		return nil, errors.New("sign/party1: final signature verification failed")
	}

	return &common.Signature{R: r, S: sVal, V: v}, nil
}
