package session

import (
	"fmt"

	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// Kind is one of the §7 error kinds; every kind is non-fatal to the
// process but terminal to the session that raised it.
type Kind string

const (
	KindMalformedRequest Kind = "malformed_request"
	KindProofFailed      Kind = "proof_failed"
	KindStateNotFound    Kind = "state_not_found"
	KindPersistFailed    Kind = "persist_failed"
	KindVerifyFailed     Kind = "verify_failed"
)

// Code returns the §7 response code for k.
func (k Kind) Code() uint32 {
	switch k {
	case KindMalformedRequest:
		return wire.CodeBadRequest
	case KindProofFailed, KindVerifyFailed:
		return wire.CodeForbidden
	case KindStateNotFound:
		return wire.CodeNotFound
	case KindPersistFailed:
		return wire.CodeInternalServerError
	default:
		return wire.CodeInternalServerError
	}
}

// ProtocolError is the structured failure returned whenever a session
// aborts, per §7: "return a structured error including
// {scope, party, action, step, reason}". Error() never includes secret
// material; Unwrap exposes the root cause for logs without forcing the
// caller through string matching.
type ProtocolError struct {
	Kind   Kind
	Scope  wire.Scope
	Party  uint8
	Action wire.Command
	Step   uint8
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("session: %s (scope=%d action=%d party=%d step=%d): %s",
		e.Kind, e.Scope, e.Action, e.Party, e.Step, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, scope wire.Scope, action wire.Command, party, step uint8, reason string, cause error) *ProtocolError {
	return &ProtocolError{
		Kind:   kind,
		Scope:  scope,
		Party:  party,
		Action: action,
		Step:   step,
		Reason: reason,
		Err:    cause,
	}
}

// ErrorToEnvelope maps a ProtocolError to its §4.12/§7 outer-envelope
// response code and message. It never serializes err.Err, the wrapped
// cause, which may carry more detail than should cross the wire.
func ErrorToEnvelope(seq uint32, err *ProtocolError) *wire.Envelope {
	return &wire.Envelope{
		Seq:        seq,
		Action:     wire.ActionResponse,
		ActionCode: err.Kind.Code(),
		ErrorMsg:   err.Error(),
	}
}
