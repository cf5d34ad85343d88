package session

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	party1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party1"
	signparty1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/sign/party1"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// keygenSecp256k1 drives a full Keygen round trip against e, playing
// Party-1's role with the real client-side package, and returns the
// persisted share_id plus Party-1's own share for a later Sign.
func keygenSecp256k1(t *testing.T, e *Engine, connID ConnectionID, identityID string) (string, *common.Party1Share) {
	t.Helper()

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}
	step1Body, err := json.Marshal(secp256k1KeygenStep1Body{Commitment: p1Out.Commitment})
	if err != nil {
		t.Fatalf("marshal step1 body failed: %v", err)
	}
	resp1, err := e.HandleStep(connID, &wire.MPCEnvelope{
		Command: wire.CommandKeygen, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: step1Body, IdentityID: identityID,
	})
	if err != nil {
		t.Fatalf("HandleStep(keygen,1) failed: %v", err)
	}
	var r1 secp256k1KeygenStep1Resp
	if err := json.Unmarshal(resp1, &r1); err != nil {
		t.Fatalf("unmarshal step1 response failed: %v", err)
	}
	q2Proof, err := dtoToProof(secp256k1.Suite, r1.Proof)
	if err != nil {
		t.Fatalf("dtoToProof failed: %v", err)
	}

	p1Share, p1Step2Out, err := p1State.Step2(&party1.Step1In{Proof: q2Proof})
	if err != nil {
		t.Fatalf("party1.Step2 failed: %v", err)
	}

	step2Body, err := json.Marshal(secp256k1KeygenStep2Body{
		Witness:         witnessToDTO(p1Step2Out.Witness),
		PaillierN:       p1Step2Out.PaillierN,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        encProofToDTO(p1Step2Out.EncProof),
	})
	if err != nil {
		t.Fatalf("marshal step2 body failed: %v", err)
	}
	resp2, err := e.HandleStep(connID, &wire.MPCEnvelope{
		Command: wire.CommandKeygen, Scope: wire.ScopeSecp256k1, Party: 2, Step: 2,
		MsgDetail: step2Body,
	})
	if err != nil {
		t.Fatalf("HandleStep(keygen,2) failed: %v", err)
	}
	var r2 struct {
		ShareID string `json:"share_id"`
	}
	if err := json.Unmarshal(resp2, &r2); err != nil {
		t.Fatalf("unmarshal step2 response failed: %v", err)
	}
	if r2.ShareID == "" {
		t.Fatal("expected a non-empty share_id")
	}
	return r2.ShareID, p1Share
}

func newTestEngine() *Engine {
	return NewEngine(sharestore.NewInMemoryStore())
}

func TestEngineKeygenSignRoundTrip(t *testing.T) {
	e := newTestEngine()
	shareID, p1Share := keygenSecp256k1(t, e, "conn-1", "identity-1")

	digest := []byte{1, 2, 3, 4}

	p1State, p1Out, err := signparty1.Step1()
	if err != nil {
		t.Fatalf("signparty1.Step1 failed: %v", err)
	}
	step1Body, _ := json.Marshal(secp256k1SignStep1Body{Commitment: p1Out.Commitment})
	resp1, err := e.HandleStep("conn-1", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: step1Body, ShareID: shareID,
	})
	if err != nil {
		t.Fatalf("HandleStep(sign,1) failed: %v", err)
	}
	var r1 secp256k1SignStep1Resp
	if err := json.Unmarshal(resp1, &r1); err != nil {
		t.Fatalf("unmarshal sign step1 response failed: %v", err)
	}
	k2Proof, err := dtoToProof(secp256k1.Suite, r1.Proof)
	if err != nil {
		t.Fatalf("dtoToProof failed: %v", err)
	}

	p1Step2Out, err := p1State.Step2(p1Share, digest, &signparty1.Step1In{Proof: k2Proof})
	if err != nil {
		t.Fatalf("signparty1.Step2 failed: %v", err)
	}
	step2Body, _ := json.Marshal(secp256k1SignStep2Body{
		Witness: witnessToDTO(p1Step2Out.Witness),
		Digest:  p1Step2Out.Digest,
		X1Proof: proofToDTO(p1Step2Out.X1Proof),
	})
	resp2, err := e.HandleStep("conn-1", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 2,
		MsgDetail: step2Body, ShareID: shareID,
	})
	if err != nil {
		t.Fatalf("HandleStep(sign,2) failed: %v", err)
	}
	var r2 secp256k1SignStep2Resp
	if err := json.Unmarshal(resp2, &r2); err != nil {
		t.Fatalf("unmarshal sign step2 response failed: %v", err)
	}

	sig, err := p1State.Step3(p1Share, &signparty1.Step2In{C: r2.C})
	if err != nil {
		t.Fatalf("signparty1.Step3 failed (final verification): %v", err)
	}
	if sig == nil {
		t.Fatal("expected a non-nil signature")
	}
}

func TestEngineKeygenRejectsLowPaillierBits(t *testing.T) {
	e := newTestEngine()

	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}
	step1Body, _ := json.Marshal(secp256k1KeygenStep1Body{Commitment: p1Out.Commitment})
	resp1, err := e.HandleStep("conn-low-bits", &wire.MPCEnvelope{
		Command: wire.CommandKeygen, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: step1Body, IdentityID: "identity-2",
	})
	if err != nil {
		t.Fatalf("HandleStep(keygen,1) failed: %v", err)
	}
	var r1 secp256k1KeygenStep1Resp
	json.Unmarshal(resp1, &r1)
	q2Proof, _ := dtoToProof(secp256k1.Suite, r1.Proof)

	_, p1Step2Out, err := p1State.Step2(&party1.Step1In{Proof: q2Proof})
	if err != nil {
		t.Fatalf("party1.Step2 failed: %v", err)
	}

	forgedN := new(big.Int).Lsh(big.NewInt(1), 2000)
	step2Body, _ := json.Marshal(secp256k1KeygenStep2Body{
		Witness:         witnessToDTO(p1Step2Out.Witness),
		PaillierN:       forgedN,
		EncryptedX1:     p1Step2Out.EncryptedX1,
		CorrectKeySalt:  p1Step2Out.CorrectKeySalt,
		CorrectKeyProof: p1Step2Out.CorrectKeyProof,
		EncProof:        encProofToDTO(p1Step2Out.EncProof),
	})
	_, err = e.HandleStep("conn-low-bits", &wire.MPCEnvelope{
		Command: wire.CommandKeygen, Scope: wire.ScopeSecp256k1, Party: 2, Step: 2,
		MsgDetail: step2Body,
	})
	if err == nil {
		t.Fatal("expected keygen to reject a Paillier modulus under MinBits")
	}
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected a *ProtocolError, got %T: %v", err, err)
	}
	if pe.Kind.Code() != wire.CodeForbidden {
		t.Fatalf("expected a 403-coded rejection, got %d", pe.Kind.Code())
	}
}

func TestEngineSignRejectsTamperedX1Proof(t *testing.T) {
	e := newTestEngine()
	shareID, p1Share := keygenSecp256k1(t, e, "conn-tamper", "identity-3")

	digest := []byte{1, 2, 3, 4}
	p1State, p1Out, err := signparty1.Step1()
	if err != nil {
		t.Fatalf("signparty1.Step1 failed: %v", err)
	}
	step1Body, _ := json.Marshal(secp256k1SignStep1Body{Commitment: p1Out.Commitment})
	resp1, err := e.HandleStep("conn-tamper", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: step1Body, ShareID: shareID,
	})
	if err != nil {
		t.Fatalf("HandleStep(sign,1) failed: %v", err)
	}
	var r1 secp256k1SignStep1Resp
	json.Unmarshal(resp1, &r1)
	k2Proof, _ := dtoToProof(secp256k1.Suite, r1.Proof)

	p1Step2Out, err := p1State.Step2(p1Share, digest, &signparty1.Step1In{Proof: k2Proof})
	if err != nil {
		t.Fatalf("signparty1.Step2 failed: %v", err)
	}

	x1ProofDTO := proofToDTO(p1Step2Out.X1Proof)
	tampered := x1ProofDTO.S[:len(x1ProofDTO.S)-2] + "00"
	if tampered == x1ProofDTO.S {
		tampered = x1ProofDTO.S[:len(x1ProofDTO.S)-2] + "11"
	}
	x1ProofDTO.S = tampered

	step2Body, _ := json.Marshal(secp256k1SignStep2Body{
		Witness: witnessToDTO(p1Step2Out.Witness),
		Digest:  p1Step2Out.Digest,
		X1Proof: x1ProofDTO,
	})
	_, err = e.HandleStep("conn-tamper", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 2,
		MsgDetail: step2Body, ShareID: shareID,
	})
	if err == nil {
		t.Fatal("expected a tampered x1-proof to be rejected")
	}
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected a *ProtocolError, got %T: %v", err, err)
	}
	if pe.Kind.Code() != wire.CodeForbidden {
		t.Fatalf("expected a 403-coded rejection, got %d", pe.Kind.Code())
	}
}

func TestEngineUnknownShareIDReturnsNotFound(t *testing.T) {
	e := newTestEngine()
	_, err := e.HandleStep("conn-missing-share", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: []byte(`{}`), ShareID: "does-not-exist",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown share_id")
	}
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected a *ProtocolError, got %T: %v", err, err)
	}
	if pe.Kind != KindStateNotFound {
		t.Fatalf("expected KindStateNotFound, got %s", pe.Kind)
	}
}

func TestEngineStepTwoWithoutStepOneReturnsNotFound(t *testing.T) {
	e := newTestEngine()
	shareID, _ := keygenSecp256k1(t, e, "conn-order", "identity-4")

	_, err := e.HandleStep("conn-order-unstarted", &wire.MPCEnvelope{
		Command: wire.CommandSign, Scope: wire.ScopeSecp256k1, Party: 2, Step: 2,
		MsgDetail: []byte(`{}`), ShareID: shareID,
	})
	if err == nil {
		t.Fatal("expected an error when step 2 arrives with no prior session")
	}
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected a *ProtocolError, got %T: %v", err, err)
	}
	if pe.Kind != KindStateNotFound {
		t.Fatalf("expected KindStateNotFound, got %s", pe.Kind)
	}
}

func TestEngineEvictRemovesSession(t *testing.T) {
	e := newTestEngine()
	p1State, p1Out, err := party1.Step1()
	if err != nil {
		t.Fatalf("party1.Step1 failed: %v", err)
	}
	step1Body, _ := json.Marshal(secp256k1KeygenStep1Body{Commitment: p1Out.Commitment})
	if _, err := e.HandleStep("conn-evict", &wire.MPCEnvelope{
		Command: wire.CommandKeygen, Scope: wire.ScopeSecp256k1, Party: 2, Step: 1,
		MsgDetail: step1Body, IdentityID: "identity-5",
	}); err != nil {
		t.Fatalf("HandleStep(keygen,1) failed: %v", err)
	}
	_ = p1State

	e.Evict("conn-evict")
	if _, ok := e.get("conn-evict"); ok {
		t.Fatal("Evict expected to remove the session")
	}
}
