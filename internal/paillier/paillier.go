// Package paillier implements the additively homomorphic Paillier
// cryptosystem (component B, §4.2) used to carry Party-1's share x1
// through the ECDSA partial-signature computation in Sign (§4.5) and the
// new share refresh in Rotate (§4.6).
//
// Modulus/ciphertext values are exposed as github.com/cronokirby/saferith
// Nats (the library TheSDEs-mpc-lib-go's Paillier and affine-product ZK
// code builds on). The modular arithmetic itself (key generation,
// encryption, decryption, Add, ScalarMul) is computed with math/big, whose
// exponentiation is not constant-time.
package paillier

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

// MinBits is the minimum accepted Paillier modulus bit length, per §4.2:
// "Party-2 REJECTS if bitlength(n) < 2047."
const MinBits = 2047

var one = big.NewInt(1)

// PublicKey is a Paillier public key (N).
type PublicKey struct {
	N  *saferith.Nat
	N2 *saferith.Nat

	nBig  *big.Int
	n2Big *big.Int
}

// PrivateKey is a Paillier private key, retaining the safe-prime factors
// (not just lambda/mu) so the correct-key NIZK below can be constructed
// against them.
type PrivateKey struct {
	PublicKey
	Lambda *saferith.Nat
	Mu     *saferith.Nat

	p, q           *big.Int
	lambdaBig      *big.Int
	muBig          *big.Int
}

// NewPublicKey wraps a raw modulus N as a PublicKey, for the receiving side
// of a key exchange that only ever sees N on the wire.
func NewPublicKey(n *big.Int) *PublicKey {
	return newPublicKey(n)
}

func newPublicKey(n *big.Int) *PublicKey {
	n2 := new(big.Int).Mul(n, n)
	return &PublicKey{
		N:     new(saferith.Nat).SetBig(n, n.BitLen()),
		N2:    new(saferith.Nat).SetBig(n2, n2.BitLen()),
		nBig:  n,
		n2Big: n2,
	}
}

// NBitLen returns the bit length of the modulus N.
func (pk *PublicKey) NBitLen() int {
	return pk.nBig.BitLen()
}

// Modulus returns N as a math/big.Int, for callers (such as the
// correct-encryption ZK) that need to do modular arithmetic against it
// directly rather than through the Encrypt/Decrypt/Add/ScalarMul API.
func (pk *PublicKey) Modulus() *big.Int {
	return new(big.Int).Set(pk.nBig)
}

// ModulusSquared returns N^2 as a math/big.Int.
func (pk *PublicKey) ModulusSquared() *big.Int {
	return new(big.Int).Set(pk.n2Big)
}

// NatToBigInt converts a ciphertext/plaintext Nat to a math/big.Int.
func NatToBigInt(n *saferith.Nat) *big.Int {
	return natToBig(n)
}

// BigIntToNat converts a math/big.Int into a Nat sized to fit bitLen bits.
func BigIntToNat(b *big.Int, bitLen int) *saferith.Nat {
	return bigToNat(b, bitLen)
}

// GenerateKey generates a Paillier key pair whose modulus has at least
// bits of entropy, built from two safe primes (p = 2p'+1, q = 2q'+1) so
// that the correct-key proof below has something to prove.
func GenerateKey(bits int) (*PrivateKey, error) {
	if bits < MinBits {
		return nil, errors.Errorf("paillier: bits must be at least %d, got %d", MinBits, bits)
	}
	half := (bits + 1) / 2

	p, err := safePrime(half)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier: failed to generate safe prime p")
	}
	q, err := safePrime(half)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier: failed to generate safe prime q")
	}
	for p.Cmp(q) == 0 {
		q, err = safePrime(half)
		if err != nil {
			return nil, err
		}
	}

	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Mul(pMinus1, qMinus1)
	lambda.Div(lambda, gcd)

	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("paillier: failed to invert lambda mod n")
	}

	pub := newPublicKey(n)
	return &PrivateKey{
		PublicKey: *pub,
		Lambda:    new(saferith.Nat).SetBig(lambda, lambda.BitLen()),
		Mu:        new(saferith.Nat).SetBig(mu, mu.BitLen()),
		p:         p,
		q:         q,
		lambdaBig: lambda,
		muBig:     mu,
	}, nil
}

// generateUnsafeKeyForTesting builds an undersized-modulus key (S6: "Sign
// with a Paillier key of 2000 bits (forged)") to exercise the bit-length
// rejection path. It is unexported because no real session may construct
// one.
func generateUnsafeKeyForTesting(bits int) (*PrivateKey, error) {
	half := bits / 2
	p, err := rand.Prime(rand.Reader, half)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(rand.Reader, half)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Mul(pMinus1, qMinus1)
	lambda.Div(lambda, gcd)
	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("paillier: failed to invert lambda mod n")
	}
	pub := newPublicKey(n)
	return &PrivateKey{
		PublicKey: *pub,
		Lambda:    new(saferith.Nat).SetBig(lambda, lambda.BitLen()),
		Mu:        new(saferith.Nat).SetBig(mu, mu.BitLen()),
		p:         p, q: q, lambdaBig: lambda, muBig: mu,
	}, nil
}

func safePrime(bits int) (*big.Int, error) {
	for {
		q, err := rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, err
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, one)
		if p.ProbablyPrime(20) {
			return p, nil
		}
	}
}

// sampleUnit samples r uniformly from [1, N).
func sampleUnit(n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() != 0 {
			return r, nil
		}
	}
}

// EncryptWithChosenRandomness encrypts m under randomness r:
// c = (1+n)^m * r^n mod n^2, per §4.2.
func (pk *PublicKey) EncryptWithChosenRandomness(m, r *big.Int) (*saferith.Nat, error) {
	if m.Sign() < 0 || m.Cmp(pk.nBig) >= 0 {
		return nil, errors.New("paillier: message out of range [0, n)")
	}
	gm := new(big.Int).Mul(pk.nBig, m)
	gm.Add(gm, one)
	rn := new(big.Int).Exp(r, pk.nBig, pk.n2Big)
	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, pk.n2Big)
	return bigToNat(c, pk.n2Big.BitLen()), nil
}

// Encrypt encrypts m with fresh randomness, returning the ciphertext and
// the randomness used (needed by the correct-encryption ZK in §4.3).
func (pk *PublicKey) Encrypt(m *big.Int) (*saferith.Nat, *big.Int, error) {
	r, err := sampleUnit(pk.nBig)
	if err != nil {
		return nil, nil, err
	}
	c, err := pk.EncryptWithChosenRandomness(m, r)
	if err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

// Decrypt recovers the plaintext m = L(c^lambda mod n^2) * mu mod n.
func (sk *PrivateKey) Decrypt(c *saferith.Nat) (*big.Int, error) {
	cb := natToBig(c)
	if cb.Sign() < 0 || cb.Cmp(sk.n2Big) >= 0 {
		return nil, errors.New("paillier: ciphertext out of range [0, n^2)")
	}
	u := new(big.Int).Exp(cb, sk.lambdaBig, sk.n2Big)
	l := new(big.Int).Sub(u, one)
	l.Div(l, sk.nBig)
	m := new(big.Int).Mul(l, sk.muBig)
	m.Mod(m, sk.nBig)
	return m, nil
}

// Add performs homomorphic ciphertext addition: Dec(Add(c1,c2)) = m1+m2.
func (pk *PublicKey) Add(c1, c2 *saferith.Nat) *saferith.Nat {
	r := new(big.Int).Mul(natToBig(c1), natToBig(c2))
	r.Mod(r, pk.n2Big)
	return bigToNat(r, pk.n2Big.BitLen())
}

// ScalarMul performs homomorphic scalar multiplication: Dec(ScalarMul(c,k)) = k*m.
func (pk *PublicKey) ScalarMul(c *saferith.Nat, k *big.Int) *saferith.Nat {
	r := new(big.Int).Exp(natToBig(c), k, pk.n2Big)
	return bigToNat(r, pk.n2Big.BitLen())
}

func natToBig(n *saferith.Nat) *big.Int {
	return n.Big()
}

func bigToNat(b *big.Int, bitLen int) *saferith.Nat {
	if bitLen < b.BitLen() {
		bitLen = b.BitLen()
	}
	return new(saferith.Nat).SetBig(b, bitLen)
}
