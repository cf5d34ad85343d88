// Package party1 implements the initiator role of Ed25519 Rotate, §4.10:
// derive a shared additive blinding delta from fresh ephemeral seeds,
// shift x1 by +delta, and confirm the unchanged agg_Q invariant before
// committing the new share. Unlike secp256k1 Rotate, there is no Paillier
// key to reissue: the additive EdDSA split needs no homomorphic carrier.
package party1

import (
	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
)

// State carries the ephemeral seed s1 and its commitment opening between
// Step1 and Step2.
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
}

// State2 carries the new x1 and the share material it must not disturb
// between Step2 and Step3.
type State2 struct {
	x1New curve.Scalar
	share *common.Share
}

func (s *State2) Zero() {
	if s == nil {
		return
	}
	s.x1New = nil
}

type Step1Out struct {
	Commitment *dlog.Commitment
}

// Step1 samples the ephemeral seed s1 and commits S1 = s1*G.
func Step1() (*State, *Step1Out, error) {
	s1, err := ed25519.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to sample s1")
	}
	S1 := ed25519.Suite.BasePoint().ScalarMult(s1)
	opening, commitment, err := dlog.Commit(ed25519.Suite, S1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party1: failed to commit S1")
	}
	return &State{s1: s1, opening: opening}, &Step1Out{Commitment: commitment}, nil
}

type Step1In struct {
	Proof *dlog.Proof // proof of S2
}

type Step2Out struct {
	Witness *dlog.Witness // reveals S1
	Q1New   curve.Point
}

// Step2 derives delta = H((s1*S2)) and shifts x1 by +delta.
func (s *State) Step2(share *common.Share, in *Step1In) (*State2, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Proof == nil {
		return nil, nil, errors.New("rotate/party1: missing S2 proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		return nil, nil, errors.New("rotate/party1: S2 is the identity point")
	}
	if !in.Proof.Verify(ed25519.Suite, nil) {
		return nil, nil, errors.New("rotate/party1: S2 proof failed")
	}
	S2 := in.Proof.Q

	deltaPoint := S2.ScalarMult(s.s1)
	if deltaPoint.IsIdentity() {
		return nil, nil, errors.New("rotate/party1: delta point is the identity")
	}
	delta := ed25519.HashToScalar(deltaPoint.Bytes())

	x1New := share.X.Add(delta)
	Q1New := ed25519.Suite.BasePoint().ScalarMult(x1New)

	S1 := ed25519.Suite.BasePoint().ScalarMult(s.s1)
	witness := s.opening.Open(s.s1, S1, nil)

	state2 := &State2{x1New: x1New, share: share}
	return state2, &Step2Out{Witness: witness, Q1New: Q1New}, nil
}

// Step2In carries Party-2's new agg_Q recomputation for cross-checking the
// unchanged aggregate key invariant.
type Step2In struct {
	AggQCheck curve.Point
}

// Step3 confirms the rotated halves still recompose to the unchanged
// agg_Q before committing the new share, per §4.10 ("agg_hash_Q*(x1_new +
// x2_new)*G must equal the original agg_Q").
func (s *State2) Step3(in *Step2In) (*common.Share, error) {
	defer s.Zero()

	if in == nil || in.AggQCheck == nil {
		return nil, errors.New("rotate/party1: missing agg_Q cross-check from peer")
	}
	if !in.AggQCheck.Equal(s.share.AggQ) {
		return nil, errors.New("rotate/party1: post-rotate agg_Q mismatch")
	}

	return &common.Share{
		Prefix:    s.share.Prefix,
		X:         s.x1New,
		AggHashQ:  s.share.AggHashQ,
		AggQ:      s.share.AggQ,
		AggQMinus: s.share.AggQMinus,
	}, nil
}
