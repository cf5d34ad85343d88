package session

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/keygen/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
	"github.com/mpc-2p/twoparty-mpc/internal/wire"
	"github.com/mpc-2p/twoparty-mpc/internal/zk/encproof"
)

// secp256k1Party2ShareDTO is the wire/persisted shape of a
// secp256k1/common.Party2Share.
type secp256k1Party2ShareDTO struct {
	X2          string   `json:"x2"`
	Q1          string   `json:"q1"`
	EncryptedX1 *big.Int `json:"encrypted_x1"`
	PaillierN   *big.Int `json:"paillier_n"`
	PubKey      string   `json:"pub_key"`
}

func secp256k1Party2ShareToDTO(s *common.Party2Share) *secp256k1Party2ShareDTO {
	return &secp256k1Party2ShareDTO{
		X2:          encodeScalar(s.X2),
		Q1:          encodePoint(s.Q1),
		EncryptedX1: s.EncryptedX1,
		PaillierN:   s.PaillierEK.Modulus(),
		PubKey:      encodePoint(s.PubKey),
	}
}

func dtoToSecp256k1Party2Share(d *secp256k1Party2ShareDTO) (*common.Party2Share, error) {
	X2, err := decodeScalar(secp256k1.Suite, d.X2)
	if err != nil {
		return nil, err
	}
	Q1, err := decodePoint(secp256k1.Suite, d.Q1)
	if err != nil {
		return nil, err
	}
	PubKey, err := decodePoint(secp256k1.Suite, d.PubKey)
	if err != nil {
		return nil, err
	}
	return &common.Party2Share{
		X2:          X2,
		Q1:          Q1,
		EncryptedX1: d.EncryptedX1,
		PaillierEK:  paillier.NewPublicKey(d.PaillierN),
		PubKey:      PubKey,
	}, nil
}

func savedShareFromSecp256k1Party2(share *common.Party2Share, shareID string) *sharestore.SavedShare {
	detail, _ := json.Marshal(secp256k1Party2ShareToDTO(share))
	return &sharestore.SavedShare{
		ShareID:         shareID,
		Scope:           wire.ScopeSecp256k1,
		Party:           2,
		UncompressedPub: share.PubKey.BytesUncompressed(),
		ShareDetail:     detail,
	}
}

func loadSecp256k1Party2Share(saved *sharestore.SavedShare) (*common.Party2Share, error) {
	var dto secp256k1Party2ShareDTO
	if err := json.Unmarshal(saved.ShareDetail, &dto); err != nil {
		return nil, errors.WithMessage(err, "session: failed to unmarshal secp256k1 share detail")
	}
	return dtoToSecp256k1Party2Share(&dto)
}

// secp256k1KeygenHandler adapts secp256k1 keygen/party2 to the session
// engine's generic step dispatch.
type secp256k1KeygenHandler struct{}

func (secp256k1KeygenHandler) requiresShare() bool { return false }

type secp256k1KeygenStep1Body struct {
	Commitment *dlog.Commitment `json:"commitment"`
}

type secp256k1KeygenStep1Resp struct {
	Proof *proofDTO `json:"proof"`
}

type secp256k1KeygenStep2Body struct {
	Witness         *witnessDTO            `json:"witness"`
	PaillierN       *big.Int               `json:"paillier_n"`
	EncryptedX1     *big.Int               `json:"encrypted_x1"`
	CorrectKeySalt  []byte                 `json:"correct_key_salt"`
	CorrectKeyProof *paillier.CorrectKeyProof `json:"correct_key_proof"`
	EncProof        *encProofDTO           `json:"enc_proof"`
}

func (secp256k1KeygenHandler) step(stepNum uint8, _ *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		var in secp256k1KeygenStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed keygen step1 body")
		}
		state, out, err := party2.Step1(&party2.Step1InFromP1{Commitment: in.Commitment})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(secp256k1KeygenStep1Resp{Proof: proofToDTO(out.Proof)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched keygen ephemeral state")
		}
		var in secp256k1KeygenStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed keygen step2 body")
		}
		witness, err := dtoToWitness(secp256k1.Suite, in.Witness)
		if err != nil {
			return nil, nil, nil, false, err
		}
		var encProof *encproof.Proof
		if in.EncProof != nil {
			encProof, err = dtoToEncProof(secp256k1.Suite, in.EncProof)
			if err != nil {
				return nil, nil, nil, false, err
			}
		}
		share, err := state.Step2(&party2.Step2InFromP1{
			Witness:         witness,
			PaillierN:       in.PaillierN,
			EncryptedX1:     in.EncryptedX1,
			CorrectKeySalt:  in.CorrectKeySalt,
			CorrectKeyProof: in.CorrectKeyProof,
			EncProof:        encProof,
		})
		if err != nil {
			return nil, nil, nil, false, err
		}

		shareID := sharestore.NewShareID()
		saved := savedShareFromSecp256k1Party2(share, shareID)
		resp, err := json.Marshal(struct {
			ShareID string `json:"share_id"`
		}{ShareID: shareID})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, saved, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: keygen/secp256k1 has no step %d", stepNum)
}
