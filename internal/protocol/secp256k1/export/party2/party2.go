// Package party2 implements the responder role of secp256k1 Export, §4.7:
// issue a random challenge, verify Party-1's challenge-bound proof of x1,
// and return x2 encrypted under Party-1's Paillier key.
package party2

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/curve/dlog"
	"github.com/mpc-2p/twoparty-mpc/internal/curve/secp256k1"
	"github.com/mpc-2p/twoparty-mpc/internal/paillier"
	"github.com/mpc-2p/twoparty-mpc/internal/protocol/secp256k1/common"
)

// ChallengeBits is the width of the random challenge Party-2 issues, per
// §4.7's "random 2048-bit challenge".
const ChallengeBits = 2048

// Step1Out carries Party-2's challenge to Party-1.
type Step1Out struct {
	Challenge *big.Int
}

// Step1 samples a fresh random challenge.
func Step1() (*Step1Out, error) {
	max := new(big.Int).Lsh(big.NewInt(1), ChallengeBits)
	challenge, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, errors.WithMessage(err, "export/party2: failed to sample challenge")
	}
	return &Step1Out{Challenge: challenge}, nil
}

// Step2In carries Party-1's challenge-bound proof of x1.
type Step2In struct {
	Proof *dlog.Proof
}

// Step2Out carries x2 encrypted under Party-1's Paillier key.
type Step2Out struct {
	EncryptedX2 *big.Int
}

// Step2 verifies Party-1's proof is bound to the issued challenge and
// against the share's known Q1, then encrypts x2 for Party-1 to recover.
func Step2(share *common.Party2Share, challenge *big.Int, in *Step2In) (*Step2Out, error) {
	if in == nil || in.Proof == nil {
		return nil, errors.New("export/party2: missing x1 proof")
	}
	if in.Proof.Q == nil || !in.Proof.Q.Equal(share.Q1) {
		return nil, errors.New("export/party2: x1 proof is against the wrong public point")
	}
	if !in.Proof.Verify(secp256k1.Suite, challenge) {
		return nil, errors.New("export/party2: x1 proof failed")
	}

	cNat, _, err := share.PaillierEK.Encrypt(share.X2.BigInt())
	if err != nil {
		return nil, errors.WithMessage(err, "export/party2: failed to encrypt x2")
	}
	return &Step2Out{EncryptedX2: paillier.NatToBigInt(cNat)}, nil
}
