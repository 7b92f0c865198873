package merkle

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/keccak256"
)

// zeroElementSeed is hashed to derive the default value of an absent leaf
const zeroElementSeed = "Welcome To Mystiko's Magic World!"

// CalcDefaultZeroElement returns keccak256(seed) reduced into the field
func CalcDefaultZeroElement() *big.Int {
	return ElementFromBytes(keccak256.Hash([]byte(zeroElementSeed)))
}

// CalcZeros returns the empty subtree value of every level, from the leaves (index 0)
// up to the root (index levels)
func CalcZeros(hasher Hasher, firstZero *big.Int, levels uint8) []*big.Int {
	zeros := make([]*big.Int, 0, int(levels)+1)
	zeros = append(zeros, new(big.Int).Set(firstZero))
	for i := 1; i <= int(levels); i++ {
		zeros = append(zeros, hasher.Hash2(zeros[i-1], zeros[i-1]))
	}
	return zeros
}
