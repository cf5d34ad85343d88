// Package common holds the types shared across the Ed25519 keygen, sign,
// and rotate protocol packages: the single Share record both parties hold
// (differing only in which half of the additive split they carry) and the
// EdDSA signature/verification helpers Sign needs.
package common

import (
	"github.com/mpc-2p/twoparty-mpc/internal/curve"
)

// Share is the per-party record from §3: "{prefix[32], x (scalar),
// agg_hash_Q (scalar), agg_Q (point), agg_Q_minus = -agg_Q}". Both parties
// hold an instance of this type; X is their own half of the additive
// split, while AggHashQ, AggQ, and AggQMinus are identical on both sides
// and never change across Rotate.
type Share struct {
	Prefix     [32]byte
	X          curve.Scalar
	AggHashQ   curve.Scalar
	AggQ       curve.Point
	AggQMinus  curve.Point
}

func (s *Share) Zero() {
	if s == nil {
		return
	}
	s.X = nil
}
