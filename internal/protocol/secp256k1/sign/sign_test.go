// Package sign_test drives secp256k1 sign/party1 and sign/party2 against
// each other, with shares produced by a real keygen round trip.
package sign_test

import (
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	keygenparty1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party1"
	keygenparty2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party2"
	party1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/sign/party1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/sign/party2"
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

func TestSignProducesVerifiableSignature(t *testing.T) {
	p1Share, p2Share := freshShares(t)
	digest := []byte{1, 2, 3, 4}

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("sign party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("sign party2.Step1 failed: %v", err)
	}
	p1Step2Out, err := p1State.Step2(p1Share, digest, &party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("sign party1.Step2 failed: %v", err)
	}
	p2Step2Out, err := p2State.Step2(p2Share, digest, &party2.Step2InFromP1{
		Witness: p1Step2Out.Witness,
		Digest:  p1Step2Out.Digest,
		X1Proof: p1Step2Out.X1Proof,
	})
	if err != nil {
		t.Fatalf("sign party2.Step2 failed: %v", err)
	}

	sig, err := p1State.Step3(p1Share, &party1.Step2In{C: p2Step2Out.C})
	if err != nil {
		t.Fatalf("sign party1.Step3 failed: %v", err)
	}
	if !common.Verify(p1Share.PubKey, digest, sig.R, sig.S) {
		t.Fatal("final signature failed verification against pub_key")
	}
}

func TestSignRejectsX1ProofAgainstWrongPoint(t *testing.T) {
	p1Share, p2Share := freshShares(t)
	other1Share, _ := freshShares(t)
	digest := []byte{1, 2, 3, 4}

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("sign party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("sign party2.Step1 failed: %v", err)
	}

	// Drive Step2 with a share from a different keypair entirely, so the
	// x1-proof is bound to a point party2 never saw during keygen.
	p1Step2Out, err := p1State.Step2(other1Share, digest, &party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("sign party1.Step2 failed: %v", err)
	}

	_, err = p2State.Step2(p2Share, digest, &party2.Step2InFromP1{
		Witness: p1Step2Out.Witness,
		Digest:  p1Step2Out.Digest,
		X1Proof: p1Step2Out.X1Proof,
	})
	if err == nil {
		t.Fatal("expected an x1-proof against the wrong point to be rejected")
	}
}

func TestSignRejectsMissingK2Proof(t *testing.T) {
	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("sign party1.Step1 failed: %v", err)
	}
	_ = p1Out
	p1Share, _ := freshShares(t)
	if _, err := p1State.Step2(p1Share, []byte{1}, &party1.Step1In{}); err == nil {
		t.Fatal("expected an error for a missing K2 proof")
	}
}
