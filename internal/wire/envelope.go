// Package wire implements the two-layer JSON message framing of §4.12: an
// outer transport envelope carrying a request/response/notice/ack action
// and a response code, wrapping an inner MPC envelope that names the
// command, scope, party, and protocol step the body belongs to.
package wire

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Action is the outer envelope's request/response/notice/ack discriminant.
type Action byte

const (
	ActionRequest Action = iota + 1
	ActionResponse
	ActionNotice
	ActionAck
)

// RequestCode is the single defined request action_code: "MPC-2-party".
const RequestCode uint32 = 1

// Response codes follow HTTP semantics, per §4.12.
const (
	CodeOK                  uint32 = 200
	CodeBadRequest          uint32 = 400
	CodeUnauthorized        uint32 = 401
	CodeForbidden           uint32 = 403
	CodeNotFound            uint32 = 404
	CodeTooManyRequests     uint32 = 429
	CodeInternalServerError uint32 = 500
	CodeNotImplemented      uint32 = 501
	CodeServiceUnavailable  uint32 = 503
)

// Envelope is the outer transport frame, serialized as UTF-8 JSON and
// carried inside a binary frame.
type Envelope struct {
	Seq        uint32 `json:"seq"`
	Timestamp  uint64 `json:"timestamp"`
	Action     Action `json:"action"`
	ActionCode uint32 `json:"action_code"`
	Body       []byte `json:"body"`
	ErrorMsg   string `json:"error_msg"`
	NoticeID   string `json:"notice_id"`
}

// Marshal serializes the envelope to its wire JSON form.
func (e *Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WithMessage(err, "wire: failed to marshal envelope")
	}
	return b, nil
}

// Unmarshal parses a frame into an Envelope.
func Unmarshal(frame []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(frame, &e); err != nil {
		return nil, errors.WithMessage(err, "wire: failed to unmarshal envelope")
	}
	return &e, nil
}

// Command is the inner envelope's protocol selector.
type Command byte

const (
	CommandKeygen Command = iota + 1
	CommandSign
	CommandRotate
	CommandExport
)

// Scope is the inner envelope's curve selector.
type Scope byte

const (
	ScopeSecp256k1 Scope = iota + 1
	ScopeEd25519
)

// MPCEnvelope is the inner, protocol-specific envelope. MsgDetail is kept
// as json.RawMessage so the outer envelope and the session engine never
// need to know the protocol-specific message shape it wraps.
type MPCEnvelope struct {
	Command    Command         `json:"command"`
	Scope      Scope           `json:"scope"`
	Party      uint8           `json:"party"`
	Step       uint8           `json:"step"`
	MsgDetail  json.RawMessage `json:"msg_detail"`
	IdentityID string          `json:"identity_id"`
	ShareID    string          `json:"share_id"`
}

// Marshal serializes the inner envelope.
func (m *MPCEnvelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WithMessage(err, "wire: failed to marshal MPC envelope")
	}
	return b, nil
}

// UnmarshalMPCEnvelope parses an outer envelope's body into an MPCEnvelope.
func UnmarshalMPCEnvelope(body []byte) (*MPCEnvelope, error) {
	var m MPCEnvelope
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.WithMessage(err, "wire: failed to unmarshal MPC envelope")
	}
	return &m, nil
}
