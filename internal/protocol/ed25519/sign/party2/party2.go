// Package party2 implements the responder role of Ed25519 Sign, §4.9:
// derive the deterministic nonce r2 from the digest, reply with R2, then
// on Step2 compute and return its partial signature against that same
// digest.
package party2

import (
	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
)

type Step1InFromP1 struct {
	R1 curve.Point
}

// State carries the ephemeral nonce, Party-1's R1, and the digest bound
// to this nonce between steps.
type State struct {
	r2     curve.Scalar
	R1     curve.Point
	digest []byte
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.r2 = nil
}

type Step1Out struct {
	R2 curve.Point
}

// Step1 derives the deterministic nonce r2 and computes R2 = r2*G.
func Step1(share *common.Share, digest []byte, in *Step1InFromP1) (*State, *Step1Out, error) {
	if in == nil || in.R1 == nil || in.R1.IsIdentity() {
		return nil, nil, errors.New("sign/party2: missing or invalid R1")
	}
	r2 := ed25519.Suite.HashToScalar(share.Prefix[:], share.AggQ.Bytes(), digest)
	R2 := ed25519.Suite.BasePoint().ScalarMult(r2)
	return &State{r2: r2, R1: in.R1, digest: digest}, &Step1Out{R2: R2}, nil
}

type Step2Out struct {
	S2 curve.Scalar
}

// Step2 computes agg_R = R1+R2 and this party's partial signature
// s2 = r2 + H(agg_R||agg_Q||digest)*x2*agg_hash_Q, against the digest
// bound to r2 in Step1. The digest is never re-read off the wire here.
func (s *State) Step2(share *common.Share) (*Step2Out, error) {
	defer s.Zero()

	R2 := ed25519.Suite.BasePoint().ScalarMult(s.r2)
	aggR := s.R1.Add(R2)

	k := common.ChallengeScalar(aggR, share.AggQ, s.digest)
	partial := s.r2.Add(k.Mul(share.X).Mul(share.AggHashQ))

	return &Step2Out{S2: partial}, nil
}
