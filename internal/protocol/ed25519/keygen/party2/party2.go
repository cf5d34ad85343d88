// Package party2 implements the responder role of Ed25519 Keygen:
// clamp a fresh seed, prove Q2 directly, verify Party-1's reveal of Q1,
// compute agg_Q with the cofactor-8 formula on both sides, and reply
// with it for Party-1 to cross-check.
package party2

import (
	"crypto/rand"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
)

type Step1InFromP1 struct {
	Commitment *dlog.Commitment
}

// State carries the ephemeral clamped seed between steps.
type State struct {
	x2         curve.Scalar
	prefix2    [32]byte
	commitment *dlog.Commitment
}

func (s *State) Zero() {
	if s == nil {
		return
	}
	s.x2 = nil
	s.commitment = nil
}

type Step1Out struct {
	Proof *dlog.Proof
}

// Step1 clamps a fresh random seed and proves Q2 = x2*G.
func Step1(in *Step1InFromP1) (*State, *Step1Out, error) {
	if in == nil || in.Commitment == nil {
		return nil, nil, errors.New("keygen/party2: missing Q1 commitment")
	}
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party2: failed to sample seed")
	}
	x2, prefix2 := ed25519.ClampSeed(seed)
	Q2 := ed25519.Suite.BasePoint().ScalarMult(x2)
	proof, err := dlog.Prove(ed25519.Suite, x2, Q2, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "keygen/party2: failed to prove Q2")
	}
	return &State{x2: x2, prefix2: prefix2, commitment: in.Commitment}, &Step1Out{Proof: proof}, nil
}

type Step2InFromP1 struct {
	Witness *dlog.Witness // reveals Q1
}

type Step2Out struct {
	AggQ curve.Point
}

// Step2 verifies Party-1's Q1 reveal, derives the share, and returns the
// aggregate public key for Party-1 to cross-check.
func (s *State) Step2(in *Step2InFromP1) (*common.Share, *Step2Out, error) {
	defer s.Zero()

	if in == nil || in.Witness == nil {
		return nil, nil, errors.New("keygen/party2: malformed step2 input")
	}
	if !dlog.Verify(ed25519.Suite, s.commitment, in.Witness, nil) {
		return nil, nil, errors.New("keygen/party2: Q1 reveal failed verification")
	}
	Q1 := in.Witness.Proof.Q
	if Q1 == nil || Q1.IsIdentity() {
		return nil, nil, errors.New("keygen/party2: Q1 is the identity point")
	}
	Q2 := ed25519.Suite.BasePoint().ScalarMult(s.x2)

	aggHashQ, aggQ, aggQMinus := common.AggregatePublic(Q1, Q2)

	share := &common.Share{
		Prefix:    s.prefix2,
		X:         s.x2,
		AggHashQ:  aggHashQ,
		AggQ:      aggQ,
		AggQMinus: aggQMinus,
	}
	return share, &Step2Out{AggQ: aggQ}, nil
}
