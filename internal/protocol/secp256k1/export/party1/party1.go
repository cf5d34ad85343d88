// Package party1 implements the initiator role of secp256k1 Export, §4.7:
// respond to Party-2's random challenge with a challenge-bound proof of
// x1, then decrypt Party-2's encrypted x2 and recompose the full scalar.
package party1

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
)

// Step1In carries Party-2's random challenge.
type Step1In struct {
	Challenge *big.Int
}

// Step1Out carries Party-1's challenge-bound proof of x1.
type Step1Out struct {
	Proof *dlog.Proof
}

// Step1 proves knowledge of x1 bound to Party-2's challenge, preventing
// replay of a cached transcript from exfiltrating x2.
func Step1(share *common.Party1Share, in *Step1In) (*Step1Out, error) {
	if in == nil || in.Challenge == nil {
		return nil, errors.New("export/party1: missing challenge")
	}
	Q1 := secp256k1.Suite.BasePoint().ScalarMult(share.X1)
	proof, err := dlog.Prove(secp256k1.Suite, share.X1, Q1, in.Challenge)
	if err != nil {
		return nil, errors.WithMessage(err, "export/party1: failed to prove x1")
	}
	return &Step1Out{Proof: proof}, nil
}

// Step2In carries Party-2's encrypted x2 under Party-1's Paillier key.
type Step2In struct {
	EncryptedX2 *big.Int
}

// Step2 decrypts x2, checks the recomposed key against pub_key, and
// returns x = x1*x2 mod q as a hex string.
func Step2(share *common.Party1Share, in *Step2In) (string, error) {
	if in == nil || in.EncryptedX2 == nil {
		return "", errors.New("export/party1: missing encrypted x2")
	}
	n2Bits := share.PaillierDK.ModulusSquared().BitLen()
	x2Big, err := share.PaillierDK.Decrypt(paillier.BigIntToNat(in.EncryptedX2, n2Bits))
	if err != nil {
		return "", errors.WithMessage(err, "export/party1: failed to decrypt x2")
	}
	x2 := secp256k1.ScalarFromBigInt(x2Big)

	Q2 := secp256k1.Suite.BasePoint().ScalarMult(x2)
	check := Q2.ScalarMult(share.X1)
	if !check.Equal(share.PubKey) {
		return "", errors.New("export/party1: recomposed pub_key mismatch")
	}

	x := share.X1.Mul(x2)
	return hexEncode(x.BigInt()), nil
}

func hexEncode(x *big.Int) string {
	return x.Text(16)
}
