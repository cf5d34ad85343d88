package session

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/rotate/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
)

// secp256k1RotateHandler adapts secp256k1 rotate/party2 to the session
// engine's generic step dispatch. Completion persists a freshly
// identified SavedShare, per §6's "Party-2 assigns share_id during
// Keygen and Rotate".
type secp256k1RotateHandler struct{}

func (secp256k1RotateHandler) requiresShare() bool { return true }

type secp256k1RotateStep1Body struct {
	Commitment *dlog.Commitment `json:"commitment"`
}

type secp256k1RotateStep1Resp struct {
	Proof *proofDTO `json:"proof"`
}

type secp256k1RotateStep2Body struct {
	Witness         *witnessDTO               `json:"witness"`
	Q1New           string                    `json:"q1_new"`
	PaillierN       *big.Int                  `json:"paillier_n"`
	EncryptedX1New  *big.Int                  `json:"encrypted_x1_new"`
	CorrectKeySalt  []byte                    `json:"correct_key_salt"`
	CorrectKeyProof *paillier.CorrectKeyProof `json:"correct_key_proof"`
	EncProof        *encProofDTO              `json:"enc_proof"`
}

type secp256k1RotateStep2Resp struct {
	Proof   *proofDTO `json:"proof"`
	ShareID string    `json:"share_id"`
}

func (secp256k1RotateHandler) step(stepNum uint8, saved *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		var in secp256k1RotateStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed rotate step1 body")
		}
		state, out, err := party2.Step1(&party2.Step1InFromP1{Commitment: in.Commitment})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1RotateStep1Resp{Proof: proofToDTO(out.Proof)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched rotate ephemeral state")
		}
		share, err := loadSecp256k1Party2Share(saved)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var in secp256k1RotateStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed rotate step2 body")
		}
		witness, err := dtoToWitness(secp256k1.Suite, in.Witness)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var q1New curve.Point
		q1New, err = decodePoint(secp256k1.Suite, in.Q1New)
		if err != nil {
			return nil, nil, nil, false, err
		}
		encProof, err := dtoToEncProof(secp256k1.Suite, in.EncProof)
		if err != nil {
			return nil, nil, nil, false, err
		}
		newShare, out, err := state.Step2(share, &party2.Step2InFromP1{
			Witness:         witness,
			Q1New:           q1New,
			PaillierN:       in.PaillierN,
			EncryptedX1New:  in.EncryptedX1New,
			CorrectKeySalt:  in.CorrectKeySalt,
			CorrectKeyProof: in.CorrectKeyProof,
			EncProof:        encProof,
		})
		if err != nil {
			return nil, nil, nil, false, err
		}

		shareID := sharestore.NewShareID()
		savedNew := savedShareFromSecp256k1Party2(newShare, shareID)
		resp, err := json.Marshal(secp256k1RotateStep2Resp{Proof: proofToDTO(out.Proof), ShareID: shareID})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, savedNew, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: rotate/secp256k1 has no step %d", stepNum)
}
