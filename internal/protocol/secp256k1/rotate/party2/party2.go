// Package party2 implements the responder role of secp256k1 Rotate, §4.6:
// derive the same delta Party-1 computed, scale x2 by delta^-1, verify
// Party-1's reissued Paillier key and new share invariant, and only then
// approve the new share and prove the new x2 back to Party-1.
package party2

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	"github.com/mpc-2p/twoparty-mpc/internal/zk/encproof"
)

// Step1InFromP1 carries Party-1's commitment to S1.
type Step1InFromP1 struct {
	Commitment *dlog.Commitment
}

// State carries the ephemeral seed s2 between steps.
type State struct {
	s2         curve.Scalar
	commitment *dlog.Commitment
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.s2 = nil
	s.commitment = nil
}

// Step1Out is sent back to Party-1: a direct proof of S2.
type Step1Out struct {
	Proof *dlog.Proof
}

// Step1 samples s2 and proves S2 = s2*G.
func Step1(in *Step1InFromP1) (*State, *Step1Out, error) {
	if in == nil || in.Commitment == nil {
		return nil, nil, errors.New("rotate/party2: missing S1 commitment")
	}
	s2, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party2: failed to sample s2")
	}
	S2 := secp256k1.Suite.BasePoint().ScalarMult(s2)
	proof, err := dlog.Prove(secp256k1.Suite, s2, S2, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party2: failed to prove S2")
	}
	return &State{s2: s2, commitment: in.Commitment}, &Step1Out{Proof: proof}, nil
}

// Step2InFromP1 carries Party-1's S1 reveal and its reissued Paillier key
// and proofs for the new share.
type Step2InFromP1 struct {
	Witness         *dlog.Witness // reveals S1
	Q1New           curve.Point
	PaillierN       *big.Int
	EncryptedX1New  *big.Int
	CorrectKeySalt  []byte
	CorrectKeyProof *paillier.CorrectKeyProof
	EncProof        *encproof.Proof
}

// Step2Out carries Party-2's proof of the new x2 back to Party-1.
type Step2Out struct {
	Proof *dlog.Proof
}

// Step2 derives delta = (s1*S2).x (the same EC point Party-1 derived, just
// computed from the other side), scales x2 by delta^-1, verifies Party-1's
// reissued Paillier key and encryption proof, and checks that the new
// share still multiplies back to the unchanged pub_key before approving.
func (s *State) Step2(share *common.Party2Share, in *Step2InFromP1) (*common.Party2Share, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Witness == nil || in.Q1New == nil || in.PaillierN == nil || in.EncryptedX1New == nil {
		return nil, nil, errors.New("rotate/party2: malformed step2 input")
	}
	if !dlog.Verify(secp256k1.Suite, s.commitment, in.Witness, nil) {
		return nil, nil, errors.New("rotate/party2: S1 reveal failed verification")
	}
	S1 := in.Witness.Proof.Q
	if S1 == nil || S1.IsIdentity() {
		return nil, nil, errors.New("rotate/party2: S1 is the identity point")
	}

	deltaPoint := S1.ScalarMult(s.s2)
	if deltaPoint.IsIdentity() {
		return nil, nil, errors.New("rotate/party2: delta point is the identity")
	}
	delta := secp256k1.ScalarFromBigInt(deltaPoint.(*secp256k1.Point).X())
	deltaInv := delta.Invert()

	x2New := share.X2.Mul(deltaInv)

	ekNew := paillier.NewPublicKey(in.PaillierN)
	if ekNew.NBitLen() < paillier.MinBits {
		return nil, nil, errors.New("rotate/party2: paillier n less than 2047")
	}
	if !paillier.VerifyCorrectKey(ekNew, in.CorrectKeySalt, in.CorrectKeyProof) {
		return nil, nil, errors.New("rotate/party2: correct-key proof failed")
	}
	if !encproof.Verify(secp256k1.Suite, in.EncProof, &encproof.Statement{
		EK: ekNew,
		C:  in.EncryptedX1New,
		Q:  in.Q1New,
	}) {
		return nil, nil, errors.New("rotate/party2: correct-encryption proof failed")
	}

	check := in.Q1New.ScalarMult(x2New)
	if !check.Equal(share.PubKey) {
		return nil, nil, errors.New("rotate/party2: post-rotate pub_key mismatch")
	}

	Q2New := secp256k1.Suite.BasePoint().ScalarMult(x2New)
	proof, err := dlog.Prove(secp256k1.Suite, x2New, Q2New, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party2: failed to prove new x2")
	}

	newShare := &common.Party2Share{
		X2:          x2New,
		Q1:          in.Q1New,
		EncryptedX1: in.EncryptedX1New,
		PaillierEK:  ekNew,
		PubKey:      share.PubKey,
	}
	return newShare, &Step2Out{Proof: proof}, nil
}
