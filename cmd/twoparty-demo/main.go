// Command twoparty-demo drives three end-to-end scenarios over an
// in-process transport pair, exercising the full stack a real
// WebSocket deployment would use: wire framing, the client multiplexer,
// and the Party-2 session engine, with shares persisted through
// internal/sharestore.FileStore. It is a runnable demonstration, not a
// production entry point.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/mpc-2p/twoparty-mpc/internal/config"
	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/muxer"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	ed25519common "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
	ed25519keygen1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/keygen/party1"
	ed25519rotate1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/rotate/party1"
	ed25519sign1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/sign/party1"
	secp256k1common "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	secp256k1export1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/export/party1"
	secp256k1keygen1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party1"
	secp256k1rotate1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/rotate/party1"
	secp256k1sign1 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/sign/party1"
	"github.com/mpc-2p/twoparty-mpc/internal/session"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
	"github.com/mpc-2p/twoparty-mpc/internal/transport"
	"github.com/mpc-2p/twoparty-mpc/internal/wire"
	"github.com/mpc-2p/twoparty-mpc/internal/zk/encproof"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Printf("running in env=%s idle=%ds heartbeat=%ds", cfg.Env, cfg.WSServerIdle, cfg.WSClientInterval)

	dir, err := os.MkdirTemp("", "twoparty-demo-shares-")
	if err != nil {
		log.Fatalf("failed to create share directory: %v", err)
	}
	defer os.RemoveAll(dir)
	store, err := sharestore.NewFileStore(dir)
	if err != nil {
		log.Fatalf("failed to create share store: %v", err)
	}

	c := newClient(store)
	defer c.close()

	log.Println("=== S1: Keygen secp256k1 -> Export -> Sign -> verify ===")
	runS1(c)

	log.Println("=== S2: Keygen secp256k1 -> Rotate -> Export -> compare ===")
	runS2(c)

	log.Println("=== S3: Keygen Ed25519 -> Sign -> Rotate -> Sign -> compare ===")
	runS3(c)

	log.Println("all scenarios passed")
}

// client bundles the pieces a real Party-1 process would own: the
// transport half facing the server, the request/reply multiplexer
// correlating responses by seq, and the server running on the other end
// of the pair for this demo's purposes.
type client struct {
	conn   *transport.InProcConn
	mux    *muxer.Multiplexer
	engine *session.Engine
	connID session.ConnectionID
	cancel context.CancelFunc
}

func newClient(store sharestore.Store) *client {
	clientConn, serverConn := transport.NewInProcPair(4)
	engine := session.NewEngine(store)
	ctx, cancel := context.WithCancel(context.Background())

	c := &client{
		conn:   clientConn,
		mux:    muxer.New(20 * time.Second),
		engine: engine,
		connID: session.ConnectionID("demo-connection"),
		cancel: cancel,
	}

	go c.readLoop(ctx)
	go runServer(ctx, serverConn, engine, c.connID)
	return c
}

func (c *client) close() {
	c.cancel()
	c.conn.Close()
}

// readLoop pumps inbound frames into the multiplexer, the role the
// spec assigns to the client's "inbound demux" task.
func (c *client) readLoop(ctx context.Context) {
	for {
		frame, err := c.conn.ReadFrame(ctx)
		if err != nil {
			return
		}
		env, err := wire.Unmarshal(frame)
		if err != nil {
			log.Printf("client: dropping malformed frame: %v", err)
			continue
		}
		c.mux.Deliver(env.Seq, env)
	}
}

type writeFrameFunc func([]byte) error

func (f writeFrameFunc) WriteFrame(b []byte) error { return f(b) }

// step sends one MPC envelope and returns the decoded response body,
// failing loudly on any non-200 response code since the demo has no
// caller to propagate an error to.
func (c *client) step(command wire.Command, scope wire.Scope, party, step uint8, identityID, shareID string, msgDetail interface{}) []byte {
	detail, err := json.Marshal(msgDetail)
	if err != nil {
		log.Fatalf("client: failed to marshal step body: %v", err)
	}
	inner := &wire.MPCEnvelope{
		Command:    command,
		Scope:      scope,
		Party:      party,
		Step:       step,
		MsgDetail:  detail,
		IdentityID: identityID,
		ShareID:    shareID,
	}
	body, err := inner.Marshal()
	if err != nil {
		log.Fatalf("client: failed to marshal MPC envelope: %v", err)
	}
	req := &wire.Envelope{
		Action:     wire.ActionRequest,
		ActionCode: wire.RequestCode,
		Body:       body,
	}

	writer := writeFrameFunc(func(frame []byte) error {
		return c.conn.WriteFrame(context.Background(), frame)
	})
	resp, err := c.mux.Send(context.Background(), writer, req)
	if err != nil {
		log.Fatalf("client: request failed: %v", err)
	}
	if resp.ActionCode != wire.CodeOK {
		log.Fatalf("client: server returned %d: %s", resp.ActionCode, resp.ErrorMsg)
	}
	return resp.Body
}

// runServer is the Party-2 side of the demo: a single-connection reactor
// reading requests, dispatching into the session engine, and writing back
// responses, matching §5's "inbound demux / outbound pump" shape scaled
// down to one goroutine since there is exactly one connection here.
func runServer(ctx context.Context, conn *transport.InProcConn, engine *session.Engine, connID session.ConnectionID) {
	for {
		frame, err := conn.ReadFrame(ctx)
		if err != nil {
			return
		}
		req, err := wire.Unmarshal(frame)
		if err != nil {
			continue
		}
		inner, err := wire.UnmarshalMPCEnvelope(req.Body)
		if err != nil {
			writeError(ctx, conn, req.Seq, wire.CodeBadRequest, err.Error())
			continue
		}

		respBody, err := engine.HandleStep(connID, inner)
		if err != nil {
			pe, ok := err.(*session.ProtocolError)
			if !ok {
				writeError(ctx, conn, req.Seq, wire.CodeInternalServerError, err.Error())
				continue
			}
			resp := session.ErrorToEnvelope(req.Seq, pe)
			frameOut, merr := resp.Marshal()
			if merr != nil {
				continue
			}
			_ = conn.WriteFrame(ctx, frameOut)
			continue
		}

		resp := &wire.Envelope{
			Seq:        req.Seq,
			Action:     wire.ActionResponse,
			ActionCode: wire.CodeOK,
			Body:       respBody,
		}
		frameOut, err := resp.Marshal()
		if err != nil {
			continue
		}
		_ = conn.WriteFrame(ctx, frameOut)
	}
}

func writeError(ctx context.Context, conn *transport.InProcConn, seq uint32, code uint32, msg string) {
	resp := &wire.Envelope{Seq: seq, Action: wire.ActionResponse, ActionCode: code, ErrorMsg: msg}
	frame, err := resp.Marshal()
	if err != nil {
		return
	}
	_ = conn.WriteFrame(ctx, frame)
}

// --- hex/DTO codec (client side; the server owns an equivalent but
// unexported codec in internal/session, since in a real deployment the
// two endpoints are separate programs that only agree on wire shape) ---

func encodePoint(p curve.Point) string {
	if p == nil {
		return ""
	}
	return hex.EncodeToString(p.Bytes())
}

func decodePoint(suite curve.Suite, s string) curve.Point {
	b, err := hex.DecodeString(s)
	if err != nil {
		log.Fatalf("client: malformed point hex: %v", err)
	}
	p, err := suite.PointFromBytes(b)
	if err != nil {
		log.Fatalf("client: malformed point encoding: %v", err)
	}
	return p
}

func encodeScalar(s curve.Scalar) string {
	if s == nil {
		return ""
	}
	return hex.EncodeToString(s.Bytes())
}

type proofDTO struct {
	Q string `json:"q"`
	R string `json:"r"`
	S string `json:"s"`
}

func proofToDTO(p *dlog.Proof) *proofDTO {
	return &proofDTO{Q: encodePoint(p.Q), R: encodePoint(p.R), S: encodeScalar(p.S)}
}

func dtoToProof(suite curve.Suite, d *proofDTO) *dlog.Proof {
	return &dlog.Proof{Q: decodePoint(suite, d.Q), R: decodePoint(suite, d.R), S: decodeScalarFrom(suite, d.S)}
}

func decodeScalarFrom(suite curve.Suite, s string) curve.Scalar {
	b, err := hex.DecodeString(s)
	if err != nil {
		log.Fatalf("client: malformed scalar hex: %v", err)
	}
	sc, err := suite.ScalarFromBytes(b)
	if err != nil {
		log.Fatalf("client: malformed scalar encoding: %v", err)
	}
	return sc
}

type witnessDTO struct {
	BQ    []byte    `json:"bq"`
	BR    []byte    `json:"br"`
	Proof *proofDTO `json:"proof"`
}

func witnessToDTO(w *dlog.Witness) *witnessDTO {
	return &witnessDTO{BQ: w.BQ, BR: w.BR, Proof: proofToDTO(w.Proof)}
}

type encProofDTO struct {
	U1 string `json:"u1"`
	U2 string `json:"u2"`
	S1 string `json:"s1"`
	S2 string `json:"s2"`
}

func encProofToDTO(p *encproof.Proof) *encProofDTO {
	return &encProofDTO{U1: encodePoint(p.U1), U2: p.U2.String(), S1: p.S1.String(), S2: p.S2.String()}
}

func mustUnmarshal(body []byte, v interface{}) {
	if err := json.Unmarshal(body, v); err != nil {
		log.Fatalf("client: failed to unmarshal response: %v", err)
	}
}

// --- scenario S1: Keygen secp256k1 -> Export -> Sign -> verify ---

func runS1(c *client) {
	share1, shareID := keygenSecp256k1(c, "demo-identity-s1")

	x := exportSecp256k1(c, share1, shareID)
	log.Printf("S1: exported x = %s", x)

	digest := []byte{1, 2, 3, 4}
	sig := signSecp256k1(c, share1, shareID, digest)
	log.Printf("S1: signature r=%s s=%s v=%d (Step3 already verified internally)", sig.R.Text(16), sig.S.Text(16), sig.V)
}

// --- scenario S2: Keygen secp256k1 -> Rotate -> Export -> compare ---

func runS2(c *client) {
	share1, shareID := keygenSecp256k1(c, "demo-identity-s2")
	xBefore := exportSecp256k1(c, share1, shareID)

	newShare1, newShareID := rotateSecp256k1(c, share1, shareID)
	xAfter := exportSecp256k1(c, newShare1, newShareID)

	if xBefore != xAfter {
		log.Fatalf("S2: rotate changed exported x: before=%s after=%s", xBefore, xAfter)
	}
	log.Printf("S2: x unchanged across rotate: %s", xBefore)
}

// --- scenario S3: Keygen Ed25519 -> Sign -> Rotate -> Sign -> compare ---

func runS3(c *client) {
	share1, shareID := keygenEd25519(c, "demo-identity-s3")

	digest := []byte{1, 2, 3, 4}
	sigBefore := signEd25519(c, share1, shareID, digest)

	newShare1, newShareID := rotateEd25519(c, share1, shareID)
	sigAfter := signEd25519(c, newShare1, newShareID, digest)

	if !bytes.Equal(sigBefore.Bytes(), sigAfter.Bytes()) {
		log.Fatalf("S3: rotate changed the deterministic signature")
	}
	log.Printf("S3: byte-identical signatures before/after rotate (%d bytes)", len(sigBefore.Bytes()))
}

// --- secp256k1 protocol drivers ---

func keygenSecp256k1(c *client, identityID string) (*secp256k1common.Party1Share, string) {
	state, out1, err := secp256k1keygen1.Step1()
	if err != nil {
		log.Fatalf("keygen: step1: %v", err)
	}
	respBody := c.step(wire.CommandKeygen, wire.ScopeSecp256k1, 1, 1, identityID, "", struct {
		Commitment *dlog.Commitment `json:"commitment"`
	}{out1.Commitment})

	var step1Resp struct {
		Proof *proofDTO `json:"proof"`
	}
	mustUnmarshal(respBody, &step1Resp)
	proof := dtoToProof(secp256k1.Suite, step1Resp.Proof)

	share, out2, err := state.Step2(&secp256k1keygen1.Step1In{Proof: proof})
	if err != nil {
		log.Fatalf("keygen: step2: %v", err)
	}
	respBody = c.step(wire.CommandKeygen, wire.ScopeSecp256k1, 1, 2, identityID, "", struct {
		Witness         *witnessDTO               `json:"witness"`
		PaillierN       *big.Int                  `json:"paillier_n"`
		EncryptedX1     *big.Int                  `json:"encrypted_x1"`
		CorrectKeySalt  []byte                    `json:"correct_key_salt"`
		CorrectKeyProof *paillier.CorrectKeyProof `json:"correct_key_proof"`
		EncProof        *encProofDTO              `json:"enc_proof"`
	}{
		Witness:         witnessToDTO(out2.Witness),
		PaillierN:       out2.PaillierN,
		EncryptedX1:     out2.EncryptedX1,
		CorrectKeySalt:  out2.CorrectKeySalt,
		CorrectKeyProof: out2.CorrectKeyProof,
		EncProof:        encProofToDTO(out2.EncProof),
	})

	var step2Resp struct {
		ShareID string `json:"share_id"`
	}
	mustUnmarshal(respBody, &step2Resp)
	log.Printf("keygen/secp256k1: pub_key=%s share_id=%s", encodePoint(share.PubKey), step2Resp.ShareID)
	return share, step2Resp.ShareID
}

func exportSecp256k1(c *client, share *secp256k1common.Party1Share, shareID string) string {
	respBody := c.step(wire.CommandExport, wire.ScopeSecp256k1, 1, 1, "", shareID, struct{}{})
	var step1Resp struct {
		Challenge *big.Int `json:"challenge"`
	}
	mustUnmarshal(respBody, &step1Resp)

	out1, err := secp256k1export1.Step1(share, &secp256k1export1.Step1In{Challenge: step1Resp.Challenge})
	if err != nil {
		log.Fatalf("export: step1: %v", err)
	}
	respBody = c.step(wire.CommandExport, wire.ScopeSecp256k1, 1, 2, "", shareID, struct {
		Proof *proofDTO `json:"proof"`
	}{proofToDTO(out1.Proof)})

	var step2Resp struct {
		EncryptedX2 *big.Int `json:"encrypted_x2"`
	}
	mustUnmarshal(respBody, &step2Resp)

	x, err := secp256k1export1.Step2(share, &secp256k1export1.Step2In{EncryptedX2: step2Resp.EncryptedX2})
	if err != nil {
		log.Fatalf("export: step2: %v", err)
	}
	return x
}

func signSecp256k1(c *client, share *secp256k1common.Party1Share, shareID string, digest []byte) *secp256k1common.Signature {
	state, out1, err := secp256k1sign1.Step1()
	if err != nil {
		log.Fatalf("sign: step1: %v", err)
	}
	respBody := c.step(wire.CommandSign, wire.ScopeSecp256k1, 1, 1, "", shareID, struct {
		Commitment *dlog.Commitment `json:"commitment"`
	}{out1.Commitment})

	var step1Resp struct {
		Proof *proofDTO `json:"proof"`
	}
	mustUnmarshal(respBody, &step1Resp)
	proof := dtoToProof(secp256k1.Suite, step1Resp.Proof)

	out2, err := state.Step2(share, digest, &secp256k1sign1.Step1In{Proof: proof})
	if err != nil {
		log.Fatalf("sign: step2: %v", err)
	}
	respBody = c.step(wire.CommandSign, wire.ScopeSecp256k1, 1, 2, "", shareID, struct {
		Witness *witnessDTO `json:"witness"`
		Digest  []byte      `json:"digest"`
		X1Proof *proofDTO   `json:"x1_proof"`
	}{witnessToDTO(out2.Witness), out2.Digest, proofToDTO(out2.X1Proof)})

	var step2Resp struct {
		C *big.Int `json:"c"`
	}
	mustUnmarshal(respBody, &step2Resp)

	sig, err := state.Step3(share, &secp256k1sign1.Step2In{C: step2Resp.C})
	if err != nil {
		log.Fatalf("sign: step3: %v", err)
	}
	return sig
}

func rotateSecp256k1(c *client, share *secp256k1common.Party1Share, shareID string) (*secp256k1common.Party1Share, string) {
	state, out1, err := secp256k1rotate1.Step1()
	if err != nil {
		log.Fatalf("rotate: step1: %v", err)
	}
	respBody := c.step(wire.CommandRotate, wire.ScopeSecp256k1, 1, 1, "", shareID, struct {
		Commitment *dlog.Commitment `json:"commitment"`
	}{out1.Commitment})

	var step1Resp struct {
		Proof *proofDTO `json:"proof"`
	}
	mustUnmarshal(respBody, &step1Resp)
	proof := dtoToProof(secp256k1.Suite, step1Resp.Proof)

	state2, out2, err := state.Step2(share, &secp256k1rotate1.Step1In{Proof: proof})
	if err != nil {
		log.Fatalf("rotate: step2: %v", err)
	}
	respBody = c.step(wire.CommandRotate, wire.ScopeSecp256k1, 1, 2, "", shareID, struct {
		Witness         *witnessDTO               `json:"witness"`
		Q1New           string                    `json:"q1_new"`
		PaillierN       *big.Int                  `json:"paillier_n"`
		EncryptedX1New  *big.Int                  `json:"encrypted_x1_new"`
		CorrectKeySalt  []byte                    `json:"correct_key_salt"`
		CorrectKeyProof *paillier.CorrectKeyProof `json:"correct_key_proof"`
		EncProof        *encProofDTO              `json:"enc_proof"`
	}{
		Witness:         witnessToDTO(out2.Witness),
		Q1New:           encodePoint(out2.Q1New),
		PaillierN:       out2.PaillierN,
		EncryptedX1New:  out2.EncryptedX1New,
		CorrectKeySalt:  out2.CorrectKeySalt,
		CorrectKeyProof: out2.CorrectKeyProof,
		EncProof:        encProofToDTO(out2.EncProof),
	})

	var step2Resp struct {
		Proof   *proofDTO `json:"proof"`
		ShareID string    `json:"share_id"`
	}
	mustUnmarshal(respBody, &step2Resp)
	newX2Proof := dtoToProof(secp256k1.Suite, step2Resp.Proof)

	newShare, err := state2.Step3(&secp256k1rotate1.Step2In{Proof: newX2Proof})
	if err != nil {
		log.Fatalf("rotate: step3: %v", err)
	}
	return newShare, step2Resp.ShareID
}

// --- Ed25519 protocol drivers ---

func keygenEd25519(c *client, identityID string) (*ed25519common.Share, string) {
	state, out1, err := ed25519keygen1.Step1()
	if err != nil {
		log.Fatalf("ed25519 keygen: step1: %v", err)
	}
	respBody := c.step(wire.CommandKeygen, wire.ScopeEd25519, 1, 1, identityID, "", struct {
		Commitment *dlog.Commitment `json:"commitment"`
	}{out1.Commitment})

	var step1Resp struct {
		Proof *proofDTO `json:"proof"`
	}
	mustUnmarshal(respBody, &step1Resp)
	proof := dtoToProof(ed25519.Suite, step1Resp.Proof)

	state2, out2, err := state.Step2(&ed25519keygen1.Step1In{Proof: proof})
	if err != nil {
		log.Fatalf("ed25519 keygen: step2: %v", err)
	}
	respBody = c.step(wire.CommandKeygen, wire.ScopeEd25519, 1, 2, identityID, "", struct {
		Witness *witnessDTO `json:"witness"`
	}{witnessToDTO(out2.Witness)})

	var step2Resp struct {
		AggQ    string `json:"agg_q"`
		ShareID string `json:"share_id"`
	}
	mustUnmarshal(respBody, &step2Resp)
	aggQ := decodePoint(ed25519.Suite, step2Resp.AggQ)

	share, err := state2.Step3(&ed25519keygen1.Step2In{AggQ: aggQ})
	if err != nil {
		log.Fatalf("ed25519 keygen: step3: %v", err)
	}
	log.Printf("keygen/ed25519: agg_Q=%s share_id=%s", step2Resp.AggQ, step2Resp.ShareID)
	return share, step2Resp.ShareID
}

func signEd25519(c *client, share *ed25519common.Share, shareID string, digest []byte) *ed25519common.Signature {
	state, out1, err := ed25519sign1.Step1(share, digest)
	if err != nil {
		log.Fatalf("ed25519 sign: step1: %v", err)
	}
	respBody := c.step(wire.CommandSign, wire.ScopeEd25519, 1, 1, "", shareID, struct {
		R1     string `json:"r1"`
		Digest []byte `json:"digest"`
	}{encodePoint(out1.R1), digest})

	var step1Resp struct {
		R2 string `json:"r2"`
	}
	mustUnmarshal(respBody, &step1Resp)
	R2 := decodePoint(ed25519.Suite, step1Resp.R2)

	state2, out2, err := state.Step2(share, &ed25519sign1.Step1In{R2: R2})
	if err != nil {
		log.Fatalf("ed25519 sign: step2: %v", err)
	}
	respBody = c.step(wire.CommandSign, wire.ScopeEd25519, 1, 2, "", shareID, struct {
		Digest []byte `json:"digest"`
	}{out2.Digest})

	var step2Resp struct {
		S2 string `json:"s2"`
	}
	mustUnmarshal(respBody, &step2Resp)
	s2 := decodeScalarFrom(ed25519.Suite, step2Resp.S2)

	sig, err := state2.Step3(share, digest, &ed25519sign1.Step2In{S2: s2})
	if err != nil {
		log.Fatalf("ed25519 sign: step3: %v", err)
	}
	return sig
}

func rotateEd25519(c *client, share *ed25519common.Share, shareID string) (*ed25519common.Share, string) {
	state, out1, err := ed25519rotate1.Step1()
	if err != nil {
		log.Fatalf("ed25519 rotate: step1: %v", err)
	}
	respBody := c.step(wire.CommandRotate, wire.ScopeEd25519, 1, 1, "", shareID, struct {
		Commitment *dlog.Commitment `json:"commitment"`
	}{out1.Commitment})

	var step1Resp struct {
		Proof *proofDTO `json:"proof"`
	}
	mustUnmarshal(respBody, &step1Resp)
	proof := dtoToProof(ed25519.Suite, step1Resp.Proof)

	state2, out2, err := state.Step2(share, &ed25519rotate1.Step1In{Proof: proof})
	if err != nil {
		log.Fatalf("ed25519 rotate: step2: %v", err)
	}
	respBody = c.step(wire.CommandRotate, wire.ScopeEd25519, 1, 2, "", shareID, struct {
		Witness *witnessDTO `json:"witness"`
		Q1New   string      `json:"q1_new"`
	}{witnessToDTO(out2.Witness), encodePoint(out2.Q1New)})

	var step2Resp struct {
		AggQCheck string `json:"agg_q_check"`
		ShareID   string `json:"share_id"`
	}
	mustUnmarshal(respBody, &step2Resp)
	aggQCheck := decodePoint(ed25519.Suite, step2Resp.AggQCheck)

	newShare, err := state2.Step3(&ed25519rotate1.Step2In{AggQCheck: aggQCheck})
	if err != nil {
		log.Fatalf("ed25519 rotate: step3: %v", err)
	}
	return newShare, step2Resp.ShareID
}
