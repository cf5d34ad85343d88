// Package party2 implements the responder role of Ed25519 Rotate, §4.10:
// derive the same delta Party-1 computed, shift x2 by -delta, and confirm
// the rotated halves still recompose to the unchanged agg_Q before
// approving the new share.
package party2

import (
	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
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
	s2, err := ed25519.NewScalar()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party2: failed to sample s2")
	}
	S2 := ed25519.Suite.BasePoint().ScalarMult(s2)
	proof, err := dlog.Prove(ed25519.Suite, s2, S2, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "rotate/party2: failed to prove S2")
	}
	return &State{s2: s2, commitment: in.Commitment}, &Step1Out{Proof: proof}, nil
}

// Step2InFromP1 carries Party-1's S1 reveal and the new Q1 point needed to
// cross-check the unchanged aggregate key.
type Step2InFromP1 struct {
	Witness *dlog.Witness // reveals S1
	Q1New   curve.Point
}

// Step2Out carries the recomputed agg_Q back to Party-1 for cross-check.
type Step2Out struct {
	AggQCheck curve.Point
}

// Step2 derives delta = H(s1*S2) (the same EC point Party-1 derived, just
// computed from the other side), shifts x2 by -delta, and checks that the
// rotated halves still recompose to the unchanged agg_Q before approving.
func (s *State) Step2(share *common.Share, in *Step2InFromP1) (*common.Share, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Witness == nil || in.Q1New == nil {
		return nil, nil, errors.New("rotate/party2: malformed step2 input")
	}
	if !dlog.Verify(ed25519.Suite, s.commitment, in.Witness, nil) {
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
	delta := ed25519.HashToScalar(deltaPoint.Bytes())

	x2New := share.X.Sub(delta)
	Q2New := ed25519.Suite.BasePoint().ScalarMult(x2New)

	aggQCheck := in.Q1New.Add(Q2New).ScalarMult(share.AggHashQ)
	if !aggQCheck.Equal(share.AggQ) {
		return nil, nil, errors.New("rotate/party2: post-rotate agg_Q mismatch")
	}

	newShare := &common.Share{
		Prefix:    share.Prefix,
		X:         x2New,
		AggHashQ:  share.AggHashQ,
		AggQ:      share.AggQ,
		AggQMinus: share.AggQMinus,
	}
	return newShare, &Step2Out{AggQCheck: aggQCheck}, nil
}
