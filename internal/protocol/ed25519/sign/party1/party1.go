// Package party1 implements the initiator role of Ed25519 Sign, §4.9:
// derive the deterministic per-share nonce r1 = H(prefix1 || agg_Q ||
// digest), exchange R points, compute its own partial signature, and on
// Step3 sum with Party-2's partial and perform the mandatory cofactored
// verification.
package party1

import (
	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
)

// State carries the ephemeral nonce and digest between steps.
type State struct {
	r1     curve.Scalar
	digest []byte
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.r1 = nil
}

type Step1Out struct {
	R1 curve.Point
}

// Step1 derives the deterministic nonce r1 and computes R1 = r1*G.
func Step1(share *common.Share, digest []byte) (*State, *Step1Out, error) {
	r1 := ed25519.Suite.HashToScalar(share.Prefix[:], share.AggQ.Bytes(), digest)
	R1 := ed25519.Suite.BasePoint().ScalarMult(r1)
	return &State{r1: r1, digest: digest}, &Step1Out{R1: R1}, nil
}

// State2 carries the aggregate R and this party's partial signature
// between Step2 and Step3.
type State2 struct {
	aggR curve.Point
	s1   curve.Scalar
}

func (s *State2) Zero() {
	if s == nil {
		return
	}
	s.s1 = nil
}

type Step1In struct {
	R2 curve.Point
}

type Step2Out struct {
	Digest []byte
}

// Step2 computes agg_R = R1+R2 and this party's partial signature
// s1 = r1 + H(agg_R||agg_Q||digest)*x1*agg_hash_Q.
func (s *State) Step2(share *common.Share, in *Step1In) (*State2, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.R2 == nil || in.R2.IsIdentity() {
		return nil, nil, errors.New("sign/party1: missing or invalid R2")
	}
	R1 := ed25519.Suite.BasePoint().ScalarMult(s.r1)
	aggR := R1.Add(in.R2)

	k := common.ChallengeScalar(aggR, share.AggQ, s.digest)
	partial := s.r1.Add(k.Mul(share.X).Mul(share.AggHashQ))

	return &State2{aggR: aggR, s1: partial}, &Step2Out{Digest: s.digest}, nil
}

type Step2In struct {
	S2 curve.Scalar
}

// Step3 sums the partial signatures and performs the mandatory cofactored
// verification against agg_Q before returning the final signature.
func (s *State2) Step3(share *common.Share, digest []byte, in *Step2In) (*common.Signature, error) {
	defer s.Zero()

	if in == nil || in.S2 == nil {
		return nil, errors.New("sign/party1: missing partial signature s2")
	}
	sig := &common.Signature{R: s.aggR, S: s.s1.Add(in.S2)}
	if !common.Verify(share.AggQ, digest, sig) {
		return nil, errors.New("sign/party1: final signature verification failed")
	}
	return sig, nil
}
