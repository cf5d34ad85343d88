// Package keygen_test drives secp256k1 party1 and party2 against each
// other directly, without the session engine in between.
package keygen_test

import (
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	party1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party2"
)

func runKeygen(t *testing.T) (*party1.State, error) {
	t.Helper()
	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}

	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("party2.Step1 failed: %v", err)
	}

	p1Share, p1Step2Out, err := p1State.Step2(&party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("party1.Step2 failed: %v", err)
	}

	p2Share, err := p2State.Step2(&party2.Step2InFromP1{
		Witness:         p1Step2Out.Witness,
		PaillierN:       p1Step2Out.PaillierN,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        p1Step2Out.EncProof,
	})
	if err != nil {
		return nil, err
	}

	if !p1Share.PubKey.Equal(p2Share.PubKey) {
		t.Fatal("party1 and party2 disagree on pub_key")
	}
	return p1State, nil
}

func TestKeygenAgreesOnPubKey(t *testing.T) {
	if _, err := runKeygen(t); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
}

func TestKeygenRejectsTamperedWitness(t *testing.T) {
	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("party2.Step1 failed: %v", err)
	}
	_, p1Step2Out, err := p1State.Step2(&party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("party1.Step2 failed: %v", err)
	}

	otherX1, err := secp256k1.NewScalar()
	if err != nil {
		t.Fatalf("failed to sample replacement scalar: %v", err)
	}
	p1Step2Out.Witness.Proof.S = otherX1

	_, err = p2State.Step2(&party2.Step2InFromP1{
		Witness:         p1Step2Out.Witness,
		PaillierN:       p1Step2Out.PaillierN,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        p1Step2Out.EncProof,
	})
	if err == nil {
		t.Fatal("expected a tampered witness to fail verification")
	}
}

func TestKeygenRejectsLowPaillierBits(t *testing.T) {
	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}
	p2State, p2Out, err := party2.Step1(&party2.Step1InFromP1{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("party2.Step1 failed: %v", err)
	}
	_, p1Step2Out, err := p1State.Step2(&party1.Step1In{Proof: p2Out.Proof})
	if err != nil {
		t.Fatalf("party1.Step2 failed: %v", err)
	}

	tooSmall := p1Step2Out.PaillierN.Rsh(p1Step2Out.PaillierN, 100)
	_, err = p2State.Step2(&party2.Step2InFromP1{
		Witness:         p1Step2Out.Witness,
		PaillierN:       tooSmall,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        p1Step2Out.EncProof,
	})
	if err == nil {
		t.Fatal("expected a Paillier modulus under MinBits to be rejected")
	}
}

func TestKeygenRejectsMissingCommitment(t *testing.T) {
	if _, _, err := party2.Step1(&party2.Step1InFromP1{}); err == nil {
		t.Fatal("expected an error for a missing commitment")
	}
}
