// Package party1 implements the initiator role of Ed25519 Keygen, §4.8:
// clamp a fresh seed per RFC 8032, commit Q1, reveal after Party-2's proof
// of Q2, then cross-check Party-2's independently computed agg_Q before
// committing the share.
package party1

import (
	"crypto/rand"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
)

// State carries the ephemeral clamped seed and commitment opening between
// Step1 and Step2.
type State struct {
	x1      curve.Scalar
	prefix1 [32]byte
	opening *dlog.Opening
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	if s.opening != nil {
		s.opening.Zero()
	}
	s.x1 = nil
}

// State2 carries the revealed Q1/Q2 and derived share material between
// Step2 and Step3.
type State2 struct {
	x1        curve.Scalar
	prefix1   [32]byte
	aggHashQ  curve.Scalar
	aggQ      curve.Point
	aggQMinus curve.Point
}

func (s *State2) Zero() {
	if s == nil {
		return
	}
	s.x1 = nil
}

type Step1Out struct {
	Commitment *dlog.Commitment
}

// Step1 clamps a fresh random seed per RFC 8032 and commits Q1 = x1*G.
func Step1() (*State, *Step1Out, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to sample seed")
	}
	x1, prefix1 := ed25519.ClampSeed(seed)
	Q1 := ed25519.Suite.BasePoint().ScalarMult(x1)
	opening, commitment, err := dlog.Commit(ed25519.Suite, Q1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party1: failed to commit Q1")
	}
	return &State{x1: x1, prefix1: prefix1, opening: opening}, &Step1Out{Commitment: commitment}, nil
}

type Step1In struct {
	Proof *dlog.Proof // proof of Q2
}

type Step2Out struct {
	Witness *dlog.Witness // reveals Q1
}

// Step2 verifies Party-2's Q2 proof and reveals Q1, retaining the
// aggregate material to cross-check in Step3.
func (s *State) Step2(in *Step1In) (*State2, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Proof == nil {
		return nil, nil, errors.New("keygen/party1: missing Q2 proof")
	}
	if in.Proof.Q == nil || in.Proof.Q.IsIdentity() {
		return nil, nil, errors.New("keygen/party1: Q2 is the identity point")
	}
	if !in.Proof.Verify(ed25519.Suite, nil) {
		return nil, nil, errors.New("keygen/party1: Q2 proof failed")
	}
	Q2 := in.Proof.Q

	Q1 := ed25519.Suite.BasePoint().ScalarMult(s.x1)
	witness := s.opening.Open(s.x1, Q1, nil)

	aggHashQ, aggQ, aggQMinus := common.AggregatePublic(Q1, Q2)

	state2 := &State2{x1: s.x1, prefix1: s.prefix1, aggHashQ: aggHashQ, aggQ: aggQ, aggQMinus: aggQMinus}
	return state2, &Step2Out{Witness: witness}, nil
}

// Step2In carries Party-2's independently computed agg_Q for Party-1's
// cross-check.
type Step2In struct {
	AggQ curve.Point
}

// Step3 cross-checks Party-2's agg_Q against Party-1's own computation
// before committing the share.
func (s *State2) Step3(in *Step2In) (*common.Share, error) {
	defer s.Zero()

	if in == nil || in.AggQ == nil {
		return nil, errors.New("keygen/party1: missing agg_Q from peer")
	}
	if !in.AggQ.Equal(s.aggQ) {
		return nil, errors.New("keygen/party1: agg_Q mismatch with peer")
	}

	return &common.Share{
		Prefix:    s.prefix1,
		X:         s.x1,
		AggHashQ:  s.aggHashQ,
		AggQ:      s.aggQ,
		AggQMinus: s.aggQMinus,
	}, nil
}
