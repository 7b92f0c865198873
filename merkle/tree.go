package merkle

import (
	"fmt"
	"math/big"
	"slices"
)

// NotFound is returned by IndexOf when no leaf matches
const NotFound int64 = -1

// Comparator reports whether candidate matches the searched element
type Comparator func(element, candidate *big.Int) bool

// Tree is a fixed depth Merkle accumulator over field elements.
// layers[0] holds the leaves in insertion order and layers[i] the parents of layers[i-1].
// Missing right children are padded with the empty subtree value of their level.
// A Tree is not safe for concurrent use.
type Tree struct {
	maxLevels   uint8
	capacity    uint64
	hasher      Hasher
	zeroElement *big.Int
	zeros       []*big.Int
	layers      [][]*big.Int
	leafIndex   map[string][]uint64
}

// New builds a tree containing initial and computes every level from scratch
func New(initial []*big.Int, opts ...Option) (*Tree, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxLevels == 0 || o.MaxLevels > MaxSupportedLevels {
		return nil, fmt.Errorf("%w: %d, expected 1..%d", ErrInvalidLevels, o.MaxLevels, MaxSupportedLevels)
	}
	capacity := uint64(1) << o.MaxLevels
	if uint64(len(initial)) > capacity {
		return nil, fmt.Errorf("%w: %d leaves for a capacity of %d", ErrCapacityExceeded, len(initial), capacity)
	}
	if o.ZeroElement == nil {
		o.ZeroElement = CalcDefaultZeroElement()
	}

	t := &Tree{
		maxLevels:   o.MaxLevels,
		capacity:    capacity,
		hasher:      o.Hasher,
		zeroElement: o.ZeroElement,
		zeros:       CalcZeros(o.Hasher, o.ZeroElement, o.MaxLevels),
		layers:      make([][]*big.Int, int(o.MaxLevels)+1),
	}
	leafCap := len(initial)
	if o.CapacityHint > leafCap && uint64(o.CapacityHint) <= capacity {
		leafCap = o.CapacityHint
	}
	t.layers[0] = make([]*big.Int, 0, leafCap)
	for _, e := range initial {
		t.layers[0] = append(t.layers[0], NewElement(e))
	}
	if o.LeafIndex {
		t.leafIndex = make(map[string][]uint64, len(initial))
		for i, e := range t.layers[0] {
			t.indexAdd(e, uint64(i))
		}
	}
	t.rebuild()
	return t, nil
}

// MaxLevels returns the depth of the tree
func (t *Tree) MaxLevels() uint8 {
	return t.maxLevels
}

// Capacity returns the maximum number of leaves
func (t *Tree) Capacity() uint64 {
	return t.capacity
}

// Len returns the number of leaves
func (t *Tree) Len() uint64 {
	return uint64(len(t.layers[0]))
}

// ZeroElement returns the value of an absent leaf
func (t *Tree) ZeroElement() *big.Int {
	return new(big.Int).Set(t.zeroElement)
}

// Zeros returns the empty subtree value of every level, leaves first
func (t *Tree) Zeros() []*big.Int {
	return copyElements(t.zeros)
}

// Root returns the current root
func (t *Tree) Root() *big.Int {
	top := t.layers[t.maxLevels]
	if len(top) > 0 {
		return new(big.Int).Set(top[0])
	}
	return new(big.Int).Set(t.zeros[t.maxLevels])
}

// Insert appends a leaf and recomputes its ancestors
func (t *Tree) Insert(element *big.Int) error {
	if t.Len() >= t.capacity {
		return fmt.Errorf("%w: capacity %d", ErrTreeFull, t.capacity)
	}
	return t.Update(t.Len(), element)
}

// BulkInsert appends elements in order. The resulting tree is the same as
// inserting them one by one, but only nodes whose pair gets completed are
// hashed for all but the last element.
func (t *Tree) BulkInsert(elements []*big.Int) error {
	if len(elements) == 0 {
		return nil
	}
	if t.Len()+uint64(len(elements)) > t.capacity {
		return fmt.Errorf("%w: %d leaves plus %d new ones exceed capacity %d",
			ErrTreeFull, t.Len(), len(elements), t.capacity)
	}
	for _, e := range elements[:len(elements)-1] {
		leaf := NewElement(e)
		index := t.Len()
		t.layers[0] = append(t.layers[0], leaf)
		t.indexAdd(leaf, index)
		level := 0
		for index%2 == 1 {
			level++
			index >>= 1
			t.setNode(level, index, t.hasher.Hash2(
				t.layers[level-1][index*2],
				t.layers[level-1][index*2+1],
			))
		}
	}
	return t.Insert(elements[len(elements)-1])
}

// Update sets the leaf at index and recomputes its ancestors up to the root.
// index may be equal to Len, in which case the leaf is appended.
func (t *Tree) Update(index uint64, element *big.Int) error {
	if index > t.Len() || index >= t.capacity {
		return fmt.Errorf("%w: insert index %d, %d leaves, capacity %d",
			ErrIndexOutOfBounds, index, t.Len(), t.capacity)
	}
	leaf := NewElement(element)
	if index < t.Len() {
		t.indexRemove(t.layers[0][index], index)
	}
	t.setNode(0, index, leaf)
	t.indexAdd(leaf, index)

	current := index
	for level := 1; level <= int(t.maxLevels); level++ {
		current >>= 1
		t.setNode(level, current, t.hasher.Hash2(
			t.layers[level-1][current*2],
			t.nodeOrZero(level-1, current*2+1),
		))
	}
	return nil
}

// Leaf returns a copy of the leaf at index
func (t *Tree) Leaf(index uint64) (*big.Int, error) {
	if index >= t.Len() {
		return nil, fmt.Errorf("%w: leaf %d, %d leaves", ErrIndexOutOfBounds, index, t.Len())
	}
	return new(big.Int).Set(t.layers[0][index]), nil
}

// Elements returns a copy of the leaves in insertion order
func (t *Tree) Elements() []*big.Int {
	return copyElements(t.layers[0])
}

// IndexOf returns the position of the first leaf matching element, or NotFound.
// Without comparator leaves are compared by value. The scan is O(n) unless the
// tree was built WithLeafIndex and no comparator is given.
func (t *Tree) IndexOf(element *big.Int, cmp Comparator) int64 {
	if cmp == nil && t.leafIndex != nil {
		positions := t.leafIndex[indexKey(NewElement(element))]
		if len(positions) == 0 {
			return NotFound
		}
		return int64(positions[0])
	}
	if cmp == nil {
		target := NewElement(element)
		cmp = func(_, candidate *big.Int) bool {
			return target.Cmp(candidate) == 0
		}
	}
	for i, leaf := range t.layers[0] {
		if cmp(element, leaf) {
			return int64(i)
		}
	}
	return NotFound
}

// rebuild recomputes every level above the leaves
func (t *Tree) rebuild() {
	for level := 1; level <= int(t.maxLevels); level++ {
		below := t.layers[level-1]
		n := (len(below) + 1) / 2
		t.layers[level] = make([]*big.Int, n)
		for i := 0; i < n; i++ {
			t.layers[level][i] = t.hasher.Hash2(
				below[i*2],
				t.nodeOrZero(level-1, uint64(i*2+1)),
			)
		}
	}
}

// setNode writes a node, growing the level by one when index equals its length
func (t *Tree) setNode(level int, index uint64, value *big.Int) {
	if index == uint64(len(t.layers[level])) {
		t.layers[level] = append(t.layers[level], value)
		return
	}
	t.layers[level][index] = value
}

func (t *Tree) nodeOrZero(level int, index uint64) *big.Int {
	if index < uint64(len(t.layers[level])) {
		return t.layers[level][index]
	}
	return t.zeros[level]
}

func (t *Tree) indexAdd(leaf *big.Int, index uint64) {
	if t.leafIndex == nil {
		return
	}
	key := indexKey(leaf)
	positions := t.leafIndex[key]
	pos, _ := slices.BinarySearch(positions, index)
	t.leafIndex[key] = slices.Insert(positions, pos, index)
}

func (t *Tree) indexRemove(leaf *big.Int, index uint64) {
	if t.leafIndex == nil {
		return
	}
	key := indexKey(leaf)
	positions := t.leafIndex[key]
	pos, found := slices.BinarySearch(positions, index)
	if !found {
		return
	}
	positions = slices.Delete(positions, pos, pos+1)
	if len(positions) == 0 {
		delete(t.leafIndex, key)
		return
	}
	t.leafIndex[key] = positions
}

func indexKey(e *big.Int) string {
	return e.Text(16)
}

func copyElements(in []*big.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, e := range in {
		out[i] = new(big.Int).Set(e)
	}
	return out
}
