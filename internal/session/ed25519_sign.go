package session

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/sign/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
)

// ed25519SignHandler adapts ed25519 sign/party2 to the session engine's
// generic step dispatch. Sign never mutates the persisted share.
type ed25519SignHandler struct{}

func (ed25519SignHandler) requiresShare() bool { return true }

type ed25519SignStep1Body struct {
	R1     string `json:"r1"`
	Digest []byte `json:"digest"`
}

type ed25519SignStep1Resp struct {
	R2 string `json:"r2"`
}

type ed25519SignStep2Resp struct {
	S2 string `json:"s2"`
}

func (ed25519SignHandler) step(stepNum uint8, saved *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		share, err := loadEd25519Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var in ed25519SignStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed sign step1 body")
		}
		R1, err := decodePoint(ed25519.Suite, in.R1)
		if err != nil {
			return nil, nil, nil, false, err
		}
		state, out, err := party2.Step1(share, in.Digest, &party2.Step1InFromP1{R1: R1})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(ed25519SignStep1Resp{R2: encodePoint(out.R2)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched sign ephemeral state")
		}
		share, err := loadEd25519Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		out, err := state.Step2(share)
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(ed25519SignStep2Resp{S2: encodeScalar(out.S2)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, nil, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: sign/ed25519 has no step %d", stepNum)
}
