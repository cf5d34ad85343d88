// Package party2 implements the responder (server) role of secp256k1
// Keygen, §4.4: sample x2, prove Q2 directly (no commitment — Party-1
// commits first specifically so Party-2's reveal cannot be chosen as a
// function of Party-1's point), then verify Party-1's reveal, Paillier
// key, and correct-encryption proof before deriving pub_key.
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

// Step1InFromP1 carries Party-1's commitment to Q1.
type Step1InFromP1 struct {
	Commitment *dlog.Commitment
}

// State carries the ephemeral x2 between Step1 and Step2.
type State struct {
	x2         curve.Scalar
	commitment *dlog.Commitment
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.x2 = nil
	s.commitment = nil
}

// Step1Out is sent back to Party-1: a direct (uncommitted) proof of Q2.
type Step1Out struct {
	Proof *dlog.Proof
}

// Step1 samples x2 and proves Q2 = x2*G.
func Step1(in *Step1InFromP1) (*State, *Step1Out, error) {
	if in == nil || in.Commitment == nil {
		return nil, nil, errors.New("keygen/party2: missing Q1 commitment")
	}
	x2, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party2: failed to sample x2")
	}
	Q2 := secp256k1.Suite.BasePoint().ScalarMult(x2)
	proof, err := dlog.Prove(secp256k1.Suite, x2, Q2, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party2: failed to prove Q2")
	}
	return &State{x2: x2, commitment: in.Commitment}, &Step1Out{Proof: proof}, nil
}

// Step2InFromP1 completes Party-1's side of Keygen.
type Step2InFromP1 struct {
	Witness         *dlog.Witness
	PaillierN       *big.Int
	EncryptedX1     *big.Int
	CorrectKeySalt  []byte
	CorrectKeyProof *paillier.CorrectKeyProof
	EncProof        *encproof.Proof
}

// Step2 verifies Party-1's commitment reveal, Paillier key, and
// correct-encryption proof, then derives pub_key and the persisted share.
func (s *State) Step2(in *Step2InFromP1) (*common.Party2Share, error) {
	defer s.Zero()

	if in == nil || in.Witness == nil || in.PaillierN == nil || in.EncryptedX1 == nil {
		return nil, errors.New("keygen/party2: malformed step2 input")
	}
	if !dlog.Verify(secp256k1.Suite, s.commitment, in.Witness, nil) {
		return nil, errors.New("keygen/party2: Q1 reveal failed verification")
	}
	Q1 := in.Witness.Proof.Q
	if Q1 == nil || Q1.IsIdentity() {
		return nil, errors.New("keygen/party2: Q1 is the identity point")
	}

	ek := paillier.NewPublicKey(in.PaillierN)
	if ek.NBitLen() < paillier.MinBits {
		return nil, errors.New("keygen/party2: paillier n less than 2047")
	}
	if !paillier.VerifyCorrectKey(ek, in.CorrectKeySalt, in.CorrectKeyProof) {
		return nil, errors.New("keygen/party2: correct-key proof failed")
	}
	if !encproof.Verify(secp256k1.Suite, in.EncProof, &encproof.Statement{
		EK: ek,
		C:  in.EncryptedX1,
		Q:  Q1,
	}) {
		return nil, errors.New("keygen/party2: correct-encryption proof failed")
	}

	pubKey := Q1.ScalarMult(s.x2)
	return &common.Party2Share{
		X2:          s.x2,
		Q1:          Q1,
		EncryptedX1: in.EncryptedX1,
		PaillierEK:  ek,
		PubKey:      pubKey,
	}, nil
}
