package session

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/rotate/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
)

// ed25519RotateHandler adapts ed25519 rotate/party2 to the session
// engine's generic step dispatch. Completion persists a freshly
// identified SavedShare, mirroring the secp256k1 rotate handler.
type ed25519RotateHandler struct{}

func (ed25519RotateHandler) requiresShare() bool { return true }

type ed25519RotateStep1Body struct {
	Commitment *dlog.Commitment `json:"commitment"`
}

type ed25519RotateStep1Resp struct {
	Proof *proofDTO `json:"proof"`
}

type ed25519RotateStep2Body struct {
	Witness *witnessDTO `json:"witness"`
	Q1New   string      `json:"q1_new"`
}

type ed25519RotateStep2Resp struct {
	AggQCheck string `json:"agg_q_check"`
	ShareID   string `json:"share_id"`
}

func (ed25519RotateHandler) step(stepNum uint8, saved *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		var in ed25519RotateStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed rotate step1 body")
		}
		state, out, err := party2.Step1(&party2.Step1InFromP1{Commitment: in.Commitment})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(ed25519RotateStep1Resp{Proof: proofToDTO(out.Proof)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched rotate ephemeral state")
		}
		share, err := loadEd25519Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var in ed25519RotateStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed rotate step2 body")
		}
		witness, err := dtoToWitness(ed25519.Suite, in.Witness)
		if err != nil {
			return nil, nil, nil, false, err
		}
		q1New, err := decodePoint(ed25519.Suite, in.Q1New)
		if err != nil {
			return nil, nil, nil, false, err
		}
		newShare, out, err := state.Step2(share, &party2.Step2InFromP1{Witness: witness, Q1New: q1New})
		if err != nil {
			return nil, nil, nil, false, err
		}

		shareID := sharestore.NewShareID()
		savedNew := savedShareFromEd25519(newShare, shareID)
		resp, err := json.Marshal(ed25519RotateStep2Resp{AggQCheck: encodePoint(out.AggQCheck), ShareID: shareID})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, savedNew, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: rotate/ed25519 has no step %d", stepNum)
}
