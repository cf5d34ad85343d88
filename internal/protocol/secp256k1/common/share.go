// Package common holds the types shared across the secp256k1 keygen,
// sign, rotate, and export protocol packages: the two parties' share
// records and the ECDSA signature/verification helpers that §4.5/§4.7
// need in more than one place.
package common

import (
	"math/big"

	"github.com/mpc-2p/twoparty-mpc/internal/curve"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
)

// Party1Share is the long-lived secret state Party-1 keeps after Keygen,
// per §3: "{private:{x1, r_encrypting_x1, paillier_dk}, public:{paillier_ek,
// pub_key}}".
type Party1Share struct {
	X1            curve.Scalar
	REncryptingX1 *big.Int
	PaillierDK    *paillier.PrivateKey
	PaillierEK    *paillier.PublicKey
	PubKey        curve.Point
}

// Zero drops references to the ephemeral secret material. Scalars and
// big.Ints are immutable value wrappers in this module, so zeroing a share
// means dropping the only reference to them.
func (s *Party1Share) Zero() {
	if s == nil {
		return
	}
	s.X1 = nil
	s.REncryptingX1 = nil
	s.PaillierDK = nil
}

// Party2Share is the long-lived secret state Party-2 keeps after Keygen,
// per §3: "{private:{x2}, public:{encrypted_x1, paillier_ek, pub_key}}".
// Q1 is additionally retained (not named in §3's share record, but
// required by Sign/Rotate to verify a fresh x1-proof against the same
// public point established at Keygen).
type Party2Share struct {
	X2          curve.Scalar
	Q1          curve.Point
	EncryptedX1 *big.Int
	PaillierEK  *paillier.PublicKey
	PubKey      curve.Point
}

func (s *Party2Share) Zero() {
	if s == nil {
		return
	}
	s.X2 = nil
}
