// Package rotate_test drives Ed25519 rotate/party1 and rotate/party2
// against each other, starting from a real keygen round trip.
package rotate_test

import (
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
	keygenparty1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/keygen/party1"
	keygenparty2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/keygen/party2"
	party1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/rotate/party1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/rotate/party2"
)

func freshShares(t *testing.T) (*common.Share, *common.Share) {
	t.Helper()
	p1State, p1Out, err := keygenparty1.Step1()
	if err != nil {
		t.Fatalf("keygen party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := keygenparty2.Step1(&keygenparty2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("keygen party2.Step1 failed: %v", err)
	}
	p1State2, p1Step2Out, err := p1State.Step2(&keygenparty1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("keygen party1.Step2 failed: %v", err)
	}
	p2Share, p2Step2Out, err := p2State.Step2(&keygenparty2.Step2InFromP1{Witness: p1Step2Out.Witness})
	if err != nil {
		t.Fatalf("keygen party2.Step2 failed: %v", err)
	}
	p1Share, err := p1State2.Step3(&keygenparty1.Step2In{AggQ: p2Step2Out.AggQ})
	if err != nil {
		t.Fatalf("keygen party1.Step3 failed: %v", err)
	}
	return p1Share, p2Share
}

func TestRotateKeepsAggQAndChangesShares(t *testing.T) {
	p1Share, p2Share := freshShares(t)

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("rotate party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("rotate party2.Step1 failed: %v", err)
	}
	p1State2, p1Step2Out, err := p1State.Step2(p1Share, &party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("rotate party1.Step2 failed: %v", err)
	}
	newP2Share, p2Step2Out, err := p2State.Step2(p2Share, &party2.Step2InFromP1{
		Witness: p1Step2Out.Witness,
		Q1New:   p1Step2Out.Q1New,
	})
	if err != nil {
		t.Fatalf("rotate party2.Step2 failed: %v", err)
	}

	newP1Share, err := p1State2.Step3(&party1.Step2In{AggQCheck: p2Step2Out.AggQCheck})
	if err != nil {
		t.Fatalf("rotate party1.Step3 failed: %v", err)
	}

	if !newP1Share.AggQ.Equal(p1Share.AggQ) {
		t.Fatal("agg_Q must be unchanged across rotation")
	}
	if newP1Share.X.Equal(p1Share.X) {
		t.Fatal("x1 must change across rotation")
	}
	if newP2Share.X.Equal(p2Share.X) {
		t.Fatal("x2 must change across rotation")
	}

	Q1New := p1Step2Out.Q1New
	Q2New := ed25519.Suite.BasePoint().ScalarMult(newP2Share.X)
	recomposed := Q1New.Add(Q2New).ScalarMult(newP1Share.AggHashQ)
	if !recomposed.Equal(p1Share.AggQ) {
		t.Fatal("new shares must still recompose to the original agg_Q")
	}
}

func TestRotateRejectsMismatchedQ1New(t *testing.T) {
	p1Share, p2Share := freshShares(t)

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("rotate party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("rotate party2.Step1 failed: %v", err)
	}
	_, p1Step2Out, err := p1State.Step2(p1Share, &party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("rotate party1.Step2 failed: %v", err)
	}

	// Feed party2 a Q1New that doesn't match the witness it verified.
	otherP1State, otherOut, err := party1.Step1()
	if err != nil {
		t.Fatalf("rotate party1.Step1 (other) failed: %v", err)
	}
	otherP2State, otherP2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: otherOut.Commitment})
	if err != nil {
		t.Fatalf("rotate party2.Step1 (other) failed: %v", err)
	}
	_, otherP1Step2Out, err := otherP1State.Step2(p1Share, &party1.Step1In{Proof: otherP2Out.Proof})
	if err != nil {
		t.Fatalf("rotate party1.Step2 (other) failed: %v", err)
	}
	_ = otherP2State

	_, _, err = p2State.Step2(p2Share, &party2.Step2InFromP1{
		Witness: p1Step2Out.Witness,
		Q1New:   otherP1Step2Out.Q1New,
	})
	if err == nil {
		t.Fatal("expected a mismatched Q1New to fail the post-rotate agg_Q check")
	}
}
