// Package party1 implements the initiator (client) role of secp256k1
// Keygen, §4.4: sample x1, commit Q1, then on receipt of Party-2's proof
// of Q2 generate a Paillier key, encrypt x1 under it, prove both the key's
// correctness and the correctness of the encryption, and derive pub_key.
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

// PaillierBits is the modulus size Party-1 generates its Keygen/Rotate
// Paillier key at: comfortably above the §4.2 MinBits floor.
const PaillierBits = 2048

// State carries the ephemeral secrets between Step1 and Step2. It MUST be
// zeroed on both the success and failure exit paths of Step2.
type State struct {
	x1      curve.Scalar
	opening *dlog.Opening
}

// Zero clears the ephemeral nonce/blinds retained in State.
func (s *State) Zero() {
	if s == nil {
		return
	}
	if s.opening != nil {
		s.opening.Zero()
	}
	s.x1 = nil
	s.opening = nil
}

// Step1Out is sent to Party-2 after Step1.
type Step1Out struct {
	Commitment *dlog.Commitment
}

// Step1 samples x1 and commits Q1 = x1*G.
func Step1() (*State, *Step1Out, error) {
	x1, err := secp256k1.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to sample x1")
	}
	Q1 := secp256k1.Suite.BasePoint().ScalarMult(x1)
	opening, commitment, err := dlog.Commit(secp256k1.Suite, Q1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to commit Q1")
	}
	return &State{x1: x1, opening: opening}, &Step1Out{Commitment: commitment}, nil
}

// Step1In is Party-2's reply to Step1.
type Step1In struct {
	Proof *dlog.Proof // proof of Q2
}

// Step2Out is sent to Party-2 to complete Keygen.
type Step2Out struct {
	Witness          *dlog.Witness // reveals Q1, R1
	PaillierN        *big.Int
	EncryptedX1      *big.Int
	CorrectKeySalt   []byte
	CorrectKeyProof  *paillier.CorrectKeyProof
	EncProof         *encproof.Proof
}

// Step2 verifies Party-2's Q2 proof, generates a Paillier key, encrypts
// x1 under it, and proves both the key and the encryption are well formed.
func (s *State) Step2(in *Step1In) (*common.Party1Share, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Proof == nil {
		return nil, nil, errors.New("keygen/party1: missing Q2 proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		return nil, nil, errors.New("keygen/party1: Q2 is the identity point")
	}
	if !in.Proof.Verify(secp256k1.Suite, nil) {
		return nil, nil, errors.New("keygen/party1: Q2 proof failed")
	}
	Q2 := in.Proof.Q

	dk, err := paillier.GenerateKey(PaillierBits)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to generate Paillier key")
	}

	cNat, r, err := dk.Encrypt(s.x1.BigInt())
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to encrypt x1")
	}
	c := paillier.NatToBigInt(cNat)

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to sample correct-key salt")
	}
	correctKeyProof, err := dk.ProveCorrectKey(salt)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to prove correct key")
	}

	Q1 := secp256k1.Suite.BasePoint().ScalarMult(s.x1)
	encProof, err := encproof.Prove(secp256k1.Suite, &encproof.Witness{X1: s.x1, R: r}, &encproof.Statement{
		EK: &dk.PublicKey,
		C:  c,
		Q:  Q1,
	})
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to prove correct encryption")
	}

	witness := s.opening.Open(s.x1, Q1, nil)
	pubKey := Q2.ScalarMult(s.x1)

	share := &common.Party1Share{
		X1:            s.x1,
		REncryptingX1: r,
		PaillierDK:    dk,
		PaillierEK:    &dk.PublicKey,
		PubKey:        pubKey,
	}
	out := &Step2Out{
		Witness:         witness,
		PaillierN:       dk.Modulus(),
		EncryptedX1:     c,
		CorrectKeySalt:  salt,
		CorrectKeyProof: correctKeyProof,
		EncProof:        encProof,
	}
	return share, out, nil
}
