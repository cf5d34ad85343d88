package session

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/ed25519"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/common"
	party2 "github.com/mpc-2p/twoparty-mpc/internal/protocol/ed25519/keygen/party2"
	"github.com/mpc-2p/twoparty-mpc/internal/sharestore"
	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// ed25519ShareDTO is the wire/persisted shape of an ed25519/common.Share.
type ed25519ShareDTO struct {
	Prefix    string `json:"prefix"`
	X         string `json:"x"`
	AggHashQ  string `json:"agg_hash_q"`
	AggQ      string `json:"agg_q"`
	AggQMinus string `json:"agg_q_minus"`
}

func ed25519ShareToDTO(s *common.Share) *ed25519ShareDTO {
	return &ed25519ShareDTO{
		Prefix:    hex.EncodeToString(s.Prefix[:]),
		X:         encodeScalar(s.X),
		AggHashQ:  encodeScalar(s.AggHashQ),
		AggQ:      encodePoint(s.AggQ),
		AggQMinus: encodePoint(s.AggQMinus),
	}
}

func dtoToEd25519Share(d *ed25519ShareDTO) (*common.Share, error) {
	prefixBytes, err := hex.DecodeString(d.Prefix)
	if err != nil || len(prefixBytes) != 32 {
		return nil, errors.New("session: malformed ed25519 share prefix")
	}
	x, err := decodeScalar(ed25519.Suite, d.X)
	if err != nil {
		return nil, err
	}
	aggHashQ, err := decodeScalar(ed25519.Suite, d.AggHashQ)
	if err != nil {
		return nil, err
	}
	aggQ, err := decodePoint(ed25519.Suite, d.AggQ)
	if err != nil {
		return nil, err
	}
	aggQMinus, err := decodePoint(ed25519.Suite, d.AggQMinus)
	if err != nil {
		return nil, err
	}
	share := &common.Share{X: x, AggHashQ: aggHashQ, AggQ: aggQ, AggQMinus: aggQMinus}
	copy(share.Prefix[:], prefixBytes)
	return share, nil
}

func savedShareFromEd25519(share *common.Share, shareID string) *sharestore.SavedShare {
	detail, _ := json.Marshal(ed25519ShareToDTO(share))
	return &sharestore.SavedShare{
		ShareID:         shareID,
		Scope:           wire.ScopeEd25519,
		Party:           2,
		UncompressedPub: share.AggQ.Bytes(),
		ShareDetail:     detail,
	}
}

func loadEd25519Share(saved *sharestore.SavedShare) (*common.Share, error) {
	var dto ed25519ShareDTO
	if err := json.Unmarshal(saved.ShareDetail, &dto); err != nil {
		return nil, errors.WithMessage(err, "session: failed to unmarshal ed25519 share detail")
	}
	return dtoToEd25519Share(&dto)
}

// ed25519KeygenHandler adapts ed25519 keygen/party2 to the session
// engine's generic step dispatch.
type ed25519KeygenHandler struct{}

func (ed25519KeygenHandler) requiresShare() bool { return false }

type ed25519KeygenStep1Body struct {
	Commitment *dlog.Commitment `json:"commitment"`
}

type ed25519KeygenStep1Resp struct {
	Proof *proofDTO `json:"proof"`
}

type ed25519KeygenStep2Body struct {
	Witness *witnessDTO `json:"witness"`
}

type ed25519KeygenStep2Resp struct {
	AggQ    string `json:"agg_q"`
	ShareID string `json:"share_id"`
}

func (ed25519KeygenHandler) step(stepNum uint8, _ *sharestore.SavedShare, ephemeral interface{}, body []byte) ([]byte, interface{}, interface{}, bool, error) {
	switch stepNum {
	case 1:
		var in ed25519KeygenStep1Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed keygen step1 body")
		}
		state, out, err := party2.Step1(&party2.Step1InFromP1{Commitment: in.Commitment})
		if err != nil {
			return nil, nil, nil, false, err
		}
		resp, err := json.Marshal(ed25519KeygenStep1Resp{Proof: proofToDTO(out.Proof)})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, state, nil, false, nil

	case 2:
		state, ok := ephemeral.(*party2.State)
		if !ok {
			return nil, nil, nil, false, errors.New("session: mismatched keygen ephemeral state")
		}
		var in ed25519KeygenStep2Body
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, nil, nil, false, errors.WithMessage(err, "session: malformed keygen step2 body")
		}
		witness, err := dtoToWitness(ed25519.Suite, in.Witness)
		if err != nil {
			return nil, nil, nil, false, err
		}
		share, out, err := state.Step2(&party2.Step2InFromP1{Witness: witness})
		if err != nil {
			return nil, nil, nil, false, err
		}

		shareID := sharestore.NewShareID()
		saved := savedShareFromEd25519(share, shareID)
		resp, err := json.Marshal(ed25519KeygenStep2Resp{AggQ: encodePoint(out.AggQ), ShareID: shareID})
		if err != nil {
			return nil, nil, nil, false, err
		}
		return resp, nil, saved, true, nil
	}
	return nil, nil, nil, false, errors.Errorf("session: keygen/ed25519 has no step %d", stepNum)
}
