package merkle

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/keccak256"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

const (
	// HasherPoseidon identifies the circomlib compatible Poseidon hasher
	HasherPoseidon = "poseidon"
	// HasherKeccak256 identifies the keccak256 hasher
	HasherKeccak256 = "keccak256"
)

// Hasher is the two-to-one compression function used to combine a pair of children into their parent.
// Implementations must be deterministic and return a value inside the field.
type Hasher interface {
	Hash2(left, right *big.Int) *big.Int
}

// HasherFunc adapts a plain function to the Hasher interface
type HasherFunc func(left, right *big.Int) *big.Int

// Hash2 calls f(left, right)
func (f HasherFunc) Hash2(left, right *big.Int) *big.Int {
	return f(left, right)
}

// PoseidonHasher hashes with Poseidon over BN254, matching circomlib
type PoseidonHasher struct{}

// Hash2 returns poseidon([left, right])
func (PoseidonHasher) Hash2(left, right *big.Int) *big.Int {
	h, err := poseidon.Hash([]*big.Int{NewElement(left), NewElement(right)})
	if err != nil {
		// inputs are reduced and the arity is fixed, so poseidon cannot reject them
		panic(fmt.Sprintf("poseidon hash failed: %v", err))
	}
	return h
}

// Keccak256Hasher hashes the concatenation of both children as 32 byte words with keccak256
type Keccak256Hasher struct{}

// Hash2 returns keccak256(left || right) reduced into the field
func (Keccak256Hasher) Hash2(left, right *big.Int) *big.Int {
	var l, r [ElementSize]byte
	NewElement(left).FillBytes(l[:])
	NewElement(right).FillBytes(r[:])
	return ElementFromBytes(keccak256.Hash(l[:], r[:]))
}

// DefaultHasher is used when no hasher is provided to New
var DefaultHasher Hasher = PoseidonHasher{}

// Hash2 combines two children with the default hasher
func Hash2(left, right *big.Int) *big.Int {
	return DefaultHasher.Hash2(left, right)
}

// HasherByName returns the hasher registered under name
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", HasherPoseidon:
		return PoseidonHasher{}, nil
	case HasherKeccak256:
		return Keccak256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}
