package session

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/export/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
)

// secp256k1ExportHandler adapts secp256k1 export/party2 to the session
// engine's generic step dispatch. Export never mutates the persisted
// share; the only state carried between steps is the random challenge
// Party-2 issued in step 1.
type secp256k1ExportHandler struct{}

func (secp256k1ExportHandler) requiresShare() bool { return true }

type secp256k1ExportStep1Resp struct {
	Challenge *big.Int `json:"challenge"`
}

type secp256k1ExportStep2Body struct {
	Proof *proofDTO `json:"proof"`
}

type secp256k1ExportStep2Resp struct {
	EncryptedX2 *big.Int `json:"encrypted_x2"`
}

func (secp256k1ExportHandler) step(stepNum uint8, saved *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		out, err := party2.Step1()
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1ExportStep1Resp{Challenge: out.Challenge})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, out.Challenge, nil, false, nil

	case 2:
		challenge, ok := ephemeral.(*big.Int)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched export ephemeral state")
		}
		share, err := loadSecp256k1Party2Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var in secp256k1ExportStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed export step2 body")
		}
		proof, err := dtoToProof(secp256k1.Suite, in.Proof)
		if err != nil {
			return nil, nil, nil, false, err
		}
		out, err := party2.Step2(share, challenge, &party2.Step2In{Proof: proof})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1ExportStep2Resp{EncryptedX2: out.EncryptedX2})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, nil, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: export/secp256k1 has no step %d", stepNum)
}
