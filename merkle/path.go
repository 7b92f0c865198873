package merkle

import (
	"fmt"
	"math/big"
)

// Path is the authentication path of a leaf. Elements[i] is the sibling at level i
// and Indices[i] is 0 when the node on the path is a left child, 1 when it is a right child.
type Path struct {
	Elements []*big.Int
	Indices  []uint8
}

// Path returns the authentication path of the leaf at index.
// index may be equal to Len, giving the path of the next leaf to be inserted.
func (t *Tree) Path(index uint64) (*Path, error) {
	if index > t.Len() {
		return nil, fmt.Errorf("%w: index %d, %d leaves", ErrIndexOutOfBounds, index, t.Len())
	}
	p := &Path{
		Elements: make([]*big.Int, t.maxLevels),
		Indices:  make([]uint8, t.maxLevels),
	}
	current := index
	for level := 0; level < int(t.maxLevels); level++ {
		p.Indices[level] = uint8(current % 2)
		p.Elements[level] = new(big.Int).Set(t.nodeOrZero(level, current^1))
		current >>= 1
	}
	return p, nil
}

// ComputeRoot folds leaf with the siblings of the path
func (p *Path) ComputeRoot(hasher Hasher, leaf *big.Int) *big.Int {
	node := NewElement(leaf)
	for level, sibling := range p.Elements {
		if p.Indices[level] == 0 {
			node = hasher.Hash2(node, sibling)
		} else {
			node = hasher.Hash2(sibling, node)
		}
	}
	return node
}

// VerifyPath reports whether leaf and path reconstruct root
func VerifyPath(hasher Hasher, root, leaf *big.Int, p *Path) bool {
	if p == nil || len(p.Elements) != len(p.Indices) {
		return false
	}
	return p.ComputeRoot(hasher, leaf).Cmp(NewElement(root)) == 0
}
