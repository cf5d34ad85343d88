// Package session implements the Party-2 (server) session engine of
// §4.11: a process-wide table of per-connection sessions, a finite
// command×scope dispatch table, and step-ordering enforcement backed by
// each protocol's own Party-2 state machine.
package session

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// ConnectionID keys the session table by transport connection.
type ConnectionID string

// Session is the per-connection state the engine tracks across steps.
// Ephemeral holds live, unexported crypto state objects (the
// protocol packages' own per-step State types) rather than raw bytes:
// re-serializing that state between steps would defeat the opening/blind
// zeroing discipline those types already implement, so it is kept
// in-process only and never touches the wire.
type Session struct {
	ConnectionID ConnectionID
	IdentityID   string
	ShareID      string
	Ephemeral    map[string]interface{}
	LoadedShare  interface{}
}

func newSession(id ConnectionID) *Session {
	return &Session{ConnectionID: id, Ephemeral: make(map[string]interface{})}
}

// Engine owns the process-wide session table, per §5's "single
// lock-protected map" guidance, plus the pluggable share store Keygen and
// Rotate persist into and every other command loads from.
type Engine struct {
	mu       sync.RWMutex
	sessions map[ConnectionID]*Session
	store    sharestore.Store
}

// NewEngine returns an Engine backed by store.
func NewEngine(store sharestore.Store) *Engine {
	return &Engine{sessions: make(map[ConnectionID]*Session), store: store}
}

// Evict zeroes a connection's ephemeral state (when it has a Zero method)
// and drops the session, per §4.11's "evicted on connection close,
// connection idle, or after the final step of the current protocol".
func (e *Engine) Evict(id ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[id]; ok {
		if z, ok := s.Ephemeral["state"].(interface{ Zero() }); ok {
			z.Zero()
		}
	}
	delete(e.sessions, id)
}

func (e *Engine) get(id ConnectionID) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

func (e *Engine) put(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[s.ConnectionID] = s
}

// dispatchTable is the finite {Keygen,Sign,Rotate}×{secp256k1,ed25519} and
// Export×secp256k1 product from §4.11; anything else is MalformedRequest.
var dispatchTable = map[wire.Command]map[wire.Scope]protocolHandler{
	wire.CommandKeygen: {
		wire.ScopeSecp256k1: secp256k1KeygenHandler{},
		wire.ScopeEd25519:   ed25519KeygenHandler{},
	},
	wire.CommandSign: {
		wire.ScopeSecp256k1: secp256k1SignHandler{},
		wire.ScopeEd25519:   ed25519SignHandler{},
	},
	wire.CommandRotate: {
		wire.ScopeSecp256k1: secp256k1RotateHandler{},
		wire.ScopeEd25519:   ed25519RotateHandler{},
	},
	wire.CommandExport: {
		wire.ScopeSecp256k1: secp256k1ExportHandler{},
	},
}

// protocolHandler adapts one (command, scope) pair's Party-2 state machine
// to the session engine's uniform step-by-step dispatch.
//
// step1 validates the loaded share (nil for Keygen) against body and
// returns the session's new ephemeral state plus the response body.
// stepN (n>1) receives the ephemeral state stashed by the previous step.
// A handler returns (respBody, nextEphemeral, share-to-persist, done, err).
// share-to-persist is non-nil only on the step that completes the
// protocol; done is true on that same step.
type protocolHandler interface {
	requiresShare() bool
	step(stepNum uint8, share *sharestore.SavedShare, ephemeral interface{}, body []byte) (respBody []byte, nextEphemeral interface{}, newShare interface{}, done bool, err error)
}

// HandleStep is the session engine's single entry point, per §4.11: on
// step==1 it validates identity_id (Keygen) or share_id (everything
// else), loads the share, and dispatches into the matching Party-2 step
// function; on step>1 it requires the session and its step-1 ephemeral
// state to exist and enforces in-order steps. On completion (success or
// error) the session's ephemeral state is zeroed and evicted.
func (e *Engine) HandleStep(connID ConnectionID, inner *wire.MPCEnvelope) ([]byte, error) {
	handlers, ok := dispatchTable[inner.Command]
	if !ok {
		return nil, newError(KindMalformedRequest, inner.Scope, inner.Command, inner.Party, inner.Step,
			"unknown command", nil)
	}
	handler, ok := handlers[inner.Scope]
	if !ok {
		return nil, newError(KindMalformedRequest, inner.Scope, inner.Command, inner.Party, inner.Step,
			"command not defined for scope", nil)
	}

	if inner.Step == 1 {
		return e.handleFirstStep(connID, inner, handler)
	}
	return e.handleLaterStep(connID, inner, handler)
}

func (e *Engine) handleFirstStep(connID ConnectionID, inner *wire.MPCEnvelope, handler protocolHandler) ([]byte, error) {
	sess := newSession(connID)

	var savedShare *sharestore.SavedShare
	if handler.requiresShare() {
		if inner.ShareID == "" {
			return nil, newError(KindMalformedRequest, inner.Scope, inner.Command, inner.Party, inner.Step,
				"missing share_id", nil)
		}
		loaded, err := e.store.Load(inner.ShareID)
		if err != nil {
			if errors.Is(err, sharestore.ErrNotFound) {
				return nil, newError(KindStateNotFound, inner.Scope, inner.Command, inner.Party, inner.Step,
					"unknown share_id", err)
			}
			return nil, newError(KindPersistFailed, inner.Scope, inner.Command, inner.Party, inner.Step,
				"failed to load share", err)
		}
		savedShare = loaded
		sess.ShareID = loaded.ShareID
		sess.IdentityID = loaded.IdentityID
	} else {
		if inner.IdentityID == "" {
			return nil, newError(KindMalformedRequest, inner.Scope, inner.Command, inner.Party, inner.Step,
				"missing identity_id", nil)
		}
		sess.IdentityID = inner.IdentityID
	}

	respBody, ephemeral, newShare, done, err := handler.step(1, savedShare, nil, inner.MsgDetail)
	if err != nil {
		return nil, toProtocolError(err, inner)
	}
	if done {
		if err := e.persistIfShare(sess, newShare); err != nil {
			return nil, err
		}
		e.Evict(connID)
		return respBody, nil
	}

	sess.Ephemeral["state"] = ephemeral
	e.put(sess)
	return respBody, nil
}

func (e *Engine) handleLaterStep(connID ConnectionID, inner *wire.MPCEnvelope, handler protocolHandler) ([]byte, error) {
	sess, ok := e.get(connID)
	if !ok {
		return nil, newError(KindStateNotFound, inner.Scope, inner.Command, inner.Party, inner.Step,
			"no session for step>1", nil)
	}
	ephemeral, ok := sess.Ephemeral["state"]
	if !ok {
		return nil, newError(KindStateNotFound, inner.Scope, inner.Command, inner.Party, inner.Step,
			"missing step-1 ephemeral state", nil)
	}

	var savedShare *sharestore.SavedShare
	if handler.requiresShare() {
		loaded, err := e.store.Load(sess.ShareID)
		if err != nil {
			e.Evict(connID)
			return nil, newError(KindPersistFailed, inner.Scope, inner.Command, inner.Party, inner.Step,
				"failed to reload share", err)
		}
		savedShare = loaded
	}

	respBody, nextEphemeral, newShare, done, err := handler.step(inner.Step, savedShare, ephemeral, inner.MsgDetail)
	if err != nil {
		e.Evict(connID)
		return nil, toProtocolError(err, inner)
	}
	if done {
		if err := e.persistIfShare(sess, newShare); err != nil {
			e.Evict(connID)
			return nil, err
		}
		e.Evict(connID)
		return respBody, nil
	}

	sess.Ephemeral["state"] = nextEphemeral
	return respBody, nil
}

func (e *Engine) persistIfShare(sess *Session, newShare interface{}) error {
	if newShare == nil {
		return nil
	}
	saved, ok := newShare.(*sharestore.SavedShare)
	if !ok {
		return newError(KindPersistFailed, 0, 0, 0, 0, "handler produced non-SavedShare result", nil)
	}
	if saved.IdentityID == "" {
		saved.IdentityID = sess.IdentityID
	}
	if err := e.store.Save(saved); err != nil {
		return newError(KindPersistFailed, saved.Scope, 0, saved.Party, 0, "failed to save share", err)
	}
	return nil
}

func toProtocolError(err error, inner *wire.MPCEnvelope) *ProtocolError {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe
	}
	return newError(KindProofFailed, inner.Scope, inner.Command, inner.Party, inner.Step, err.Error(), err)
}
