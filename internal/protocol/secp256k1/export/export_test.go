// Package export_test drives secp256k1 export/party1 and export/party2
// against each other, starting from a real keygen round trip.
package export_test

import (
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	party1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/export/party1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/export/party2"
	keygenparty1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party1"
	keygenparty2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party2"
)

func freshShares(t *testing.T) (*common.Party1Share, *common.Party2Share) {
	t.Helper()
	p1State, p1Out, err := keygenparty1.Step1()
	if err != nil {
		t.Fatalf("keygen party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := keygenparty2.Step1(&keygenparty2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("keygen party2.Step1 failed: %v", err)
	}
	p1Share, p1Step2Out, err := p1State.Step2(&keygenparty1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("keygen party1.Step2 failed: %v", err)
	}
	p2Share, err := p2State.Step2(&keygenparty2.Step2InFromP1{
		Witness:         p1Step2Out.Witness,
		PaillierN:       p1Step2Out.PaillierN,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        p1Step2Out.EncProof,
	})
	if err != nil {
		t.Fatalf("keygen party2.Step2 failed: %v", err)
	}
	return p1Share, p2Share
}

func TestExportRecomposesX(t *testing.T) {
	p1Share, p2Share := freshShares(t)

	p2Out, err := party2.Step1()
	if err != nil {
		t.Fatalf("export party2.Step1 failed: %v", err)
	}
	p1Out, err := party1.Step1(p1Share, &party1.Step1In{Challenge: p2Out.Challenge})
	if err != nil {
		t.Fatalf("export party1.Step1 failed: %v", err)
	}
	p2Step2Out, err := party2.Step2(p2Share, p2Out.Challenge, &party2.Step2In{Proof: p1Out.Proof})
	if err != nil {
		t.Fatalf("export party2.Step2 failed: %v", err)
	}
	x, err := party1.Step2(p1Share, &party1.Step2In{EncryptedX2: p2Step2Out.EncryptedX2})
	if err != nil {
		t.Fatalf("export party1.Step2 failed: %v", err)
	}
	if x == "" {
		t.Fatal("expected a non-empty hex-encoded x")
	}
}

func TestExportRejectsProofAgainstWrongChallenge(t *testing.T) {
	p1Share, p2Share := freshShares(t)

	p2Out, err := party2.Step1()
	if err != nil {
		t.Fatalf("export party2.Step1 failed: %v", err)
	}
	otherChallenge, err := party2.Step1()
	if err != nil {
		t.Fatalf("export party2.Step1 (other) failed: %v", err)
	}
	p1Out, err := party1.Step1(p1Share, &party1.Step1In{Challenge: otherChallenge.Challenge})
	if err != nil {
		t.Fatalf("export party1.Step1 failed: %v", err)
	}

	_, err = party2.Step2(p2Share, p2Out.Challenge, &party2.Step2In{Proof: p1Out.Proof})
	if err == nil {
		t.Fatal("expected a proof bound to a different challenge to be rejected")
	}
}

func TestExportRejectsMissingChallenge(t *testing.T) {
	p1Share, _ := freshShares(t)
	if _, err := party1.Step1(p1Share, &party1.Step1In{}); err == nil {
		t.Fatal("expected an error for a missing challenge")
	}
}
