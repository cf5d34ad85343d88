package session

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/sign/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
)

// secp256k1SignHandler adapts secp256k1 sign/party2 to the session
// engine's generic step dispatch. Sign never mutates the persisted share.
type secp256k1SignHandler struct{}

func (secp256k1SignHandler) requiresShare() bool { return true }

type secp256k1SignStep1Body struct {
	Commitment *dlog.Commitment `json:"commitment"`
}

type secp256k1SignStep1Resp struct {
	Proof *proofDTO `json:"proof"`
}

type secp256k1SignStep2Body struct {
	Witness *witnessDTO `json:"witness"`
	Digest  []byte      `json:"digest"`
	X1Proof *proofDTO   `json:"x1_proof"`
}

type secp256k1SignStep2Resp struct {
	C *big.Int `json:"c"`
}

func (secp256k1SignHandler) step(stepNum uint8, saved *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		var in secp256k1SignStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed sign step1 body")
		}
		state, out, err := party2.Step1(&party2.Step1InFromP1{Commitment: in.Commitment})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1SignStep1Resp{Proof: proofToDTO(out.Proof)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched sign ephemeral state")
		}
		share, err := loadSecp256k1Party2Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var in secp256k1SignStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed sign step2 body")
		}
		witness, err := dtoToWitness(secp256k1.Suite, in.Witness)
		if err != nil {
			return nil, nil, nil, false, err
		}
		x1Proof, err := dtoToProof(secp256k1.Suite, in.X1Proof)
		if err != nil {
			return nil, nil, nil, false, err
		}
		out, err := state.Step2(share, in.Digest, &party2.Step2InFromP1{
			Witness: witness,
			Digest:  in.Digest,
			X1Proof: x1Proof,
		})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1SignStep2Resp{C: out.C})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, nil, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: sign/secp256k1 has no step %d", stepNum)
}
