package session

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/zk/encproof"
)

// encodePoint/decodePoint and encodeScalar/decodeScalar bridge the
// curve.Point/curve.Scalar interfaces (backed by unexported concrete
// types that encoding/json cannot unmarshal into) and the hex strings
// carried inside each step's wire DTO, per §4.12's "msg_detail is the
// protocol-specific message, itself JSON-serialized".
func encodePoint(p curve.Point) string {
	if p == nil {
		return ""
	}
	return hex.EncodeToString(p.Bytes())
}

func decodePoint(suite curve.Suite, s string) (curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithMessage(err, "session: malformed point hex")
	}
	p, err := suite.PointFromBytes(b)
	if err != nil {
		return nil, errors.WithMessage(err, "session: malformed point encoding")
	}
	return p, nil
}

func encodeScalar(s curve.Scalar) string {
	if s == nil {
		return ""
	}
	return hex.EncodeToString(s.Bytes())
}

func decodeScalar(suite curve.Suite, s string) (curve.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithMessage(err, "session: malformed scalar hex")
	}
	sc, err := suite.ScalarFromBytes(b)
	if err != nil {
		return nil, errors.WithMessage(err, "session: malformed scalar encoding")
	}
	return sc, nil
}

// proofDTO is the wire shape of a dlog.Proof.
type proofDTO struct {
	Q string `json:"q"`
	R string `json:"r"`
	S string `json:"s"`
}

func proofToDTO(p *dlog.Proof) *proofDTO {
	if p == nil {
		return nil
	}
	return &proofDTO{Q: encodePoint(p.Q), R: encodePoint(p.R), S: encodeScalar(p.S)}
}

func dtoToProof(suite curve.Suite, d *proofDTO) (*dlog.Proof, error) {
	if d == nil {
		return nil, errors.New("session: missing proof")
	}
	Q, err := decodePoint(suite, d.Q)
	if err != nil {
		return nil, err
	}
	R, err := decodePoint(suite, d.R)
	if err != nil {
		return nil, err
	}
	S, err := decodeScalar(suite, d.S)
	if err != nil {
		return nil, err
	}
	return &dlog.Proof{Q: Q, R: R, S: S}, nil
}

// witnessDTO is the wire shape of a dlog.Witness.
type witnessDTO struct {
	BQ    []byte    `json:"bq"`
	BR    []byte    `json:"br"`
	Proof *proofDTO `json:"proof"`
}

func witnessToDTO(w *dlog.Witness) *witnessDTO {
	if w == nil {
		return nil
	}
	return &witnessDTO{BQ: w.BQ, BR: w.BR, Proof: proofToDTO(w.Proof)}
}

func dtoToWitness(suite curve.Suite, d *witnessDTO) (*dlog.Witness, error) {
	if d == nil {
		return nil, errors.New("session: missing witness")
	}
	proof, err := dtoToProof(suite, d.Proof)
	if err != nil {
		return nil, err
	}
	return &dlog.Witness{BQ: d.BQ, BR: d.BR, Proof: proof}, nil
}

// encProofDTO is the wire shape of an encproof.Proof (ECDSA-only).
type encProofDTO struct {
	U1 string `json:"u1"`
	U2 string `json:"u2"`
	S1 string `json:"s1"`
	S2 string `json:"s2"`
}

func encProofToDTO(p *encproof.Proof) *encProofDTO {
	if p == nil {
		return nil
	}
	return &encProofDTO{
		U1: encodePoint(p.U1),
		U2: p.U2.String(),
		S1: p.S1.String(),
		S2: p.S2.String(),
	}
}

func dtoToEncProof(suite curve.Suite, d *encProofDTO) (*encproof.Proof, error) {
	if d == nil {
		return nil, errors.New("session: missing correct-encryption proof")
	}
	U1, err := decodePoint(suite, d.U1)
	if err != nil {
		return nil, err
	}
	u2, ok := newBigInt(d.U2)
	if !ok {
		return nil, errors.New("session: malformed u2")
	}
	s1, ok := newBigInt(d.S1)
	if !ok {
		return nil, errors.New("session: malformed s1")
	}
	s2, ok := newBigInt(d.S2)
	if !ok {
		return nil, errors.New("session: malformed s2")
	}
	return &encproof.Proof{U1: U1, U2: u2, S1: s1, S2: s2}, nil
}
