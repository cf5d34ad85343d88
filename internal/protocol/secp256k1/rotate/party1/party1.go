// Package party1 implements the initiator role of secp256k1 Rotate, §4.6:
// derive a shared blinding factor delta from fresh ephemeral seeds, scale
// x1 by delta, reissue a fresh Paillier key for the new share, and in the
// third step confirm Party-2's new share multiplies back to the same
// pub_key before committing.
package party1

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	"github.com/mpc-2p/twoparty-mpc/internal/zk/encproof"
)

// PaillierBits is the modulus size reissued at Rotate.
const PaillierBits = 2048

// State carries the ephemeral seed s1 between Step1 and Step2.
type State struct {
	s1      curve.Scalar
	opening *dlog.Opening
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	if s.opening != nil {
		s.opening.Zero()
	}
	s.s1 = nil
	s.opening = nil
}

// State2 carries the new share's material between Step2 and Step3.
type State2 struct {
	x1New      curve.Scalar
	rNew       *big.Int
	dkNew      *paillier.PrivateKey
	q1New      curve.Point
	oldPubKey  curve.Point
}

func (s *State2) Zero() {
	if s == nil {
		return
	}
	s.x1New = nil
	s.rNew = nil
	s.dkNew = nil
}

type Step1Out struct {
	Commitment *dlog.Commitment
}

// Step1 samples the ephemeral seed s1 and commits S1 = s1*G.
func Step1() (*State, *Step1Out, error) {
	s1, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to sample s1")
	}
	S1 := secp256k1.Suite.BasePoint().ScalarMult(s1)
	opening, commitment, err := dlog.Commit(secp256k1.Suite, S1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to commit S1")
	}
	return &State{s1: s1, opening: opening}, &Step1Out{Commitment: commitment}, nil
}

type Step1In struct {
	Proof *dlog.Proof // proof of S2
}

type Step2Out struct {
	Witness         *dlog.Witness // reveals S1
	Q1New           curve.Point
	PaillierN       *big.Int
	EncryptedX1New  *big.Int
	CorrectKeySalt  []byte
	CorrectKeyProof *paillier.CorrectKeyProof
	EncProof        *encproof.Proof
}

// Step2 derives delta = (s1*S2).x, scales x1 by delta, and reissues the
// Paillier key and its proofs for the new share.
func (s *State) Step2(share *common.Party1Share, in *Step1In) (*State2, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Proof == nil {
		return nil, nil, errors.New("rotate/party1: missing S2 proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		return nil, nil, errors.New("rotate/party1: S2 is the identity point")
	}
	if !in.Proof.Verify(secp256k1.Suite, nil) {
		return nil, nil, errors.New("rotate/party1: S2 proof failed")
	}
	S2 := in.Proof.Q

	deltaPoint := S2.ScalarMult(s.s1)
	if deltaPoint.IsIdentity() {
		return nil, nil, errors.New("rotate/party1: delta point is the identity")
	}
	delta := secp256k1.ScalarFromBigInt(deltaPoint.(*secp256k1.Point).X())

	x1New := share.X1.Mul(delta)
	Q1New := secp256k1.Suite.BasePoint().ScalarMult(x1New)

	dkNew, err := paillier.GenerateKey(PaillierBits)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to generate Paillier key")
	}
	cNat, rNew, err := dkNew.Encrypt(x1New.BigInt())
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to encrypt new x1")
	}
	c := paillier.NatToBigInt(cNat)

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to sample correct-key salt")
	}
	correctKeyProof, err := dkNew.ProveCorrectKey(salt)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to prove correct key")
	}

	encProof, err := encproof.Prove(secp256k1.Suite, &encproof.Witness{X1: x1New, R: rNew}, &encproof.Statement{
		EK: &dkNew.PublicKey,
		C:  c,
		Q:  Q1New,
	})
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to prove correct encryption")
	}

	S1 := secp256k1.Suite.BasePoint().ScalarMult(s.s1)
	witness := s.opening.Open(s.s1, S1, nil)

	state2 := &State2{x1New: x1New, rNew: rNew, dkNew: dkNew, q1New: Q1New, oldPubKey: share.PubKey}
	out := &Step2Out{
		Witness:         witness,
		Q1New:           Q1New,
		PaillierN:       dkNew.Modulus(),
		EncryptedX1New:  c,
		CorrectKeySalt:  salt,
		CorrectKeyProof: correctKeyProof,
		EncProof:        encProof,
	}
	return state2, out, nil
}

// Step2In carries Party-2's proof of the new x2, which closes the loop on
// the shared-invariant check.
type Step2In struct {
	Proof *dlog.Proof // proof of x2_new
}

// Step3 verifies Party-2's new x2 proof and confirms x1_new*Q2_new equals
// the unchanged pub_key before committing the new share, per §4.6.
func (s *State2) Step3(in *Step2In) (*common.Party1Share, error) {
	defer s.Zero()

	if in == nil || in.Proof == nil {
		return nil, errors.New("rotate/party1: missing x2_new proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		return nil, errors.New("rotate/party1: x2_new point is the identity")
	}
	if !in.Proof.Verify(secp256k1.Suite, nil) {
		return nil, errors.New("rotate/party1: x2_new proof failed")
	}
	Q2New := in.Proof.Q

	check := Q2New.ScalarMult(s.x1New)
	if !check.Equal(s.oldPubKey) {
		return nil, errors.New("rotate/party1: post-rotate pub_key mismatch")
	}

	return &common.Party1Share{
		X1:            s.x1New,
		REncryptingX1: s.rNew,
		PaillierDK:    s.dkNew,
		PaillierEK:    &s.dkNew.PublicKey,
		PubKey:        s.oldPubKey,
	}, nil
}
