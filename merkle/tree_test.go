package merkle

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	leaf1Hex = "0x12d7aafbf3d4c1852ad3634d69607fc9ea8028f2d5724fcf3b917e71fd2dbff6"
	leaf2Hex = "0x062c3655c709b4b58142b9b270f5a5b06b8df8921cbbb261a7729eae759e7ec3"
	leaf3Hex = "0x02d18bd99c2ce3d70411809537b64bfbbac5f51a7b7e2eeb8d84346162f9c707"
)

func mustHex(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ElementFromHex(s)
	require.NoError(t, err)
	return v
}

func mustDec(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ElementFromDecimal(s)
	require.NoError(t, err)
	return v
}

func testLeaves(n int) []*big.Int {
	leaves := make([]*big.Int, n)
	for i := range leaves {
		leaves[i] = big.NewInt(int64(i*7 + 3))
	}
	return leaves
}

func TestNewEmptyTree(t *testing.T) {
	tree, err := New(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxLevels, tree.MaxLevels())
	require.Equal(t, uint64(1)<<20, tree.Capacity())
	require.Equal(t,
		mustDec(t, "17749238747541177922260023106539184144732198174810064796938596694265936155259"),
		tree.Root())
	require.Empty(t, tree.Elements())

	for levels := uint8(1); levels <= 8; levels++ {
		tree, err := New(nil, WithMaxLevels(levels), WithHasher(Keccak256Hasher{}))
		require.NoError(t, err)
		zeros := tree.Zeros()
		require.Len(t, zeros, int(levels)+1)
		require.Equal(t, zeros[levels], tree.Root())
	}
}

func TestNewWithOptions(t *testing.T) {
	tree, err := New(nil, WithMaxLevels(1), WithZeroElement(big.NewInt(0)))
	require.NoError(t, err)
	require.Equal(t, Hash2(big.NewInt(0), big.NewInt(0)), tree.Root())
	require.Zero(t, tree.ZeroElement().Sign())

	_, err = New(nil, WithMaxLevels(0))
	require.ErrorIs(t, err, ErrInvalidLevels)
	_, err = New(nil, WithMaxLevels(33))
	require.ErrorIs(t, err, ErrInvalidLevels)

	_, err = New(testLeaves(5), WithMaxLevels(2))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	tree, err = New(testLeaves(4), WithMaxLevels(2))
	require.NoError(t, err)
	require.Equal(t, uint64(4), tree.Len())
}

func TestNewWithInitialElements(t *testing.T) {
	e1 := mustHex(t, leaf1Hex)
	e2 := mustHex(t, leaf2Hex)
	tree, err := New([]*big.Int{e1, e2})
	require.NoError(t, err)
	require.Equal(t,
		mustDec(t, "21205178834650720622262399337497375208854240907281368468056255721030220387133"),
		tree.Root())
	require.Equal(t, []*big.Int{e1, e2}, tree.Elements())
	require.Equal(t, int64(0), tree.IndexOf(e1, nil))
	require.Equal(t, int64(1), tree.IndexOf(e2, func(a, b *big.Int) bool { return a.Cmp(b) == 0 }))
	require.Equal(t, NotFound, tree.IndexOf(big.NewInt(42), nil))
}

func TestNewCopiesInput(t *testing.T) {
	initial := testLeaves(3)
	tree, err := New(initial, WithMaxLevels(4))
	require.NoError(t, err)
	root := tree.Root()

	initial[0].SetInt64(999)
	require.Equal(t, root, tree.Root())

	elements := tree.Elements()
	elements[1].SetInt64(999)
	require.Equal(t, big.NewInt(10), tree.Elements()[1])
}

func TestInsert(t *testing.T) {
	tree, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(mustHex(t, leaf1Hex)))
	require.NoError(t, tree.Insert(mustHex(t, leaf2Hex)))
	require.Equal(t,
		mustDec(t, "21205178834650720622262399337497375208854240907281368468056255721030220387133"),
		tree.Root())
}

func TestInsertFull(t *testing.T) {
	tree, err := New(nil, WithMaxLevels(2))
	require.NoError(t, err)
	for _, leaf := range testLeaves(4) {
		require.NoError(t, tree.Insert(leaf))
	}
	root := tree.Root()
	err = tree.Insert(big.NewInt(1))
	require.ErrorIs(t, err, ErrTreeFull)
	require.Equal(t, root, tree.Root())
	require.Equal(t, uint64(4), tree.Len())
}

func TestBulkInsert(t *testing.T) {
	tree, err := New(nil)
	require.NoError(t, err)
	err = tree.BulkInsert([]*big.Int{
		mustHex(t, leaf1Hex),
		mustHex(t, leaf2Hex),
		mustHex(t, leaf3Hex),
	})
	require.NoError(t, err)
	require.Equal(t,
		mustDec(t, "10254041194642220426314275741279894727412053938657566062675343387806484605596"),
		tree.Root())

	require.NoError(t, tree.BulkInsert(nil))
	require.Equal(t, uint64(3), tree.Len())
}

func TestBulkInsertMatchesInsert(t *testing.T) {
	hashers := map[string]Hasher{
		HasherPoseidon:  PoseidonHasher{},
		HasherKeccak256: Keccak256Hasher{},
	}
	for name, hasher := range hashers {
		for _, tc := range []struct{ existing, added int }{
			{0, 1}, {0, 2}, {0, 7}, {1, 1}, {1, 6}, {3, 5}, {5, 11}, {8, 8}, {0, 16},
		} {
			t.Run(fmt.Sprintf("%s existing %d added %d", name, tc.existing, tc.added), func(t *testing.T) {
				leaves := testLeaves(tc.existing + tc.added)
				one, err := New(leaves[:tc.existing], WithMaxLevels(4), WithHasher(hasher))
				require.NoError(t, err)
				bulk, err := New(leaves[:tc.existing], WithMaxLevels(4), WithHasher(hasher))
				require.NoError(t, err)
				rebuilt, err := New(leaves, WithMaxLevels(4), WithHasher(hasher))
				require.NoError(t, err)

				for _, leaf := range leaves[tc.existing:] {
					require.NoError(t, one.Insert(leaf))
				}
				require.NoError(t, bulk.BulkInsert(leaves[tc.existing:]))

				require.Equal(t, one.Root(), bulk.Root())
				require.Equal(t, rebuilt.Root(), bulk.Root())
				require.Equal(t, rebuilt.layers, bulk.layers)
				require.Equal(t, one.layers, bulk.layers)
			})
		}
	}
}

func TestBulkInsertFull(t *testing.T) {
	tree, err := New(testLeaves(3), WithMaxLevels(2))
	require.NoError(t, err)
	root := tree.Root()
	err = tree.BulkInsert(testLeaves(2))
	require.ErrorIs(t, err, ErrTreeFull)
	require.Equal(t, uint64(3), tree.Len())
	require.Equal(t, root, tree.Root())
	require.NoError(t, tree.BulkInsert(testLeaves(1)))
	require.Equal(t, uint64(4), tree.Len())
}

func TestUpdate(t *testing.T) {
	tree, err := New([]*big.Int{mustHex(t, leaf1Hex)})
	require.NoError(t, err)
	before := tree.Root()
	require.NoError(t, tree.Update(0, mustHex(t, leaf3Hex)))
	require.Equal(t,
		mustDec(t, "5919354211942147568484662594760486300826527524526112436647850872711338828514"),
		tree.Root())
	require.NotEqual(t, before, tree.Root())
	require.Equal(t, mustHex(t, leaf3Hex), tree.Elements()[0])

	// same value keeps the root
	root := tree.Root()
	require.NoError(t, tree.Update(0, mustHex(t, leaf3Hex)))
	require.Equal(t, root, tree.Root())
}

func TestUpdateAppendsAtLen(t *testing.T) {
	leaves := testLeaves(6)
	appended, err := New(leaves[:5], WithMaxLevels(3))
	require.NoError(t, err)
	require.NoError(t, appended.Update(5, leaves[5]))

	expected, err := New(leaves, WithMaxLevels(3))
	require.NoError(t, err)
	require.Equal(t, expected.Root(), appended.Root())
	require.Equal(t, expected.layers, appended.layers)
}

func TestUpdateMatchesRebuild(t *testing.T) {
	leaves := testLeaves(11)
	tree, err := New(leaves, WithMaxLevels(4))
	require.NoError(t, err)
	for i := range leaves {
		leaves[i] = big.NewInt(int64(1000 + i))
		require.NoError(t, tree.Update(uint64(i), leaves[i]))

		expected, err := New(leaves, WithMaxLevels(4))
		require.NoError(t, err)
		require.Equal(t, expected.layers, tree.layers, "after updating index %d", i)
	}
}

func TestUpdateOutOfBounds(t *testing.T) {
	tree, err := New(testLeaves(2), WithMaxLevels(2))
	require.NoError(t, err)
	root := tree.Root()
	require.ErrorIs(t, tree.Update(3, big.NewInt(1)), ErrIndexOutOfBounds)
	require.Equal(t, root, tree.Root())

	full, err := New(testLeaves(4), WithMaxLevels(2))
	require.NoError(t, err)
	require.ErrorIs(t, full.Update(4, big.NewInt(1)), ErrIndexOutOfBounds)
}

func TestLeaf(t *testing.T) {
	tree, err := New(testLeaves(3), WithMaxLevels(2))
	require.NoError(t, err)
	leaf, err := tree.Leaf(2)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(17), leaf)

	leaf.SetInt64(0)
	leaf, err = tree.Leaf(2)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(17), leaf)

	_, err = tree.Leaf(3)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestLayerInvariants(t *testing.T) {
	tree, err := New(nil, WithMaxLevels(5), WithHasher(Keccak256Hasher{}))
	require.NoError(t, err)
	require.NoError(t, tree.BulkInsert(testLeaves(13)))
	require.NoError(t, tree.Insert(big.NewInt(77)))
	require.NoError(t, tree.Update(4, big.NewInt(78)))

	for level := 1; level <= int(tree.maxLevels); level++ {
		below := tree.layers[level-1]
		require.Len(t, tree.layers[level], (len(below)+1)/2, "level %d", level)
		for j, node := range tree.layers[level] {
			right := tree.zeros[level-1]
			if 2*j+1 < len(below) {
				right = below[2*j+1]
			}
			require.Equal(t, tree.hasher.Hash2(below[2*j], right), node, "level %d node %d", level, j)
		}
	}
	require.Equal(t, tree.layers[tree.maxLevels][0], tree.Root())
}

func TestIndexOf(t *testing.T) {
	leaves := []*big.Int{big.NewInt(5), big.NewInt(6), big.NewInt(5), big.NewInt(7)}
	for _, opts := range [][]Option{
		{WithMaxLevels(3)},
		{WithMaxLevels(3), WithLeafIndex()},
	} {
		tree, err := New(leaves, opts...)
		require.NoError(t, err)
		require.Equal(t, int64(0), tree.IndexOf(big.NewInt(5), nil))
		require.Equal(t, int64(3), tree.IndexOf(big.NewInt(7), nil))
		require.Equal(t, NotFound, tree.IndexOf(big.NewInt(8), nil))

		greater := func(element, candidate *big.Int) bool { return candidate.Cmp(element) > 0 }
		require.Equal(t, int64(1), tree.IndexOf(big.NewInt(5), greater))

		require.NoError(t, tree.Update(0, big.NewInt(8)))
		require.Equal(t, int64(2), tree.IndexOf(big.NewInt(5), nil))
		require.Equal(t, int64(0), tree.IndexOf(big.NewInt(8), nil))

		require.NoError(t, tree.BulkInsert([]*big.Int{big.NewInt(9), big.NewInt(9)}))
		require.Equal(t, int64(4), tree.IndexOf(big.NewInt(9), nil))

		// values are compared once reduced into the field
		require.Equal(t, int64(1), tree.IndexOf(new(big.Int).Add(FieldModulus, big.NewInt(6)), nil))
	}
}

func TestCapacityHint(t *testing.T) {
	tree, err := New(nil, WithMaxLevels(4), WithCapacityHint(16))
	require.NoError(t, err)
	require.Equal(t, 16, cap(tree.layers[0]))

	tree, err = New(nil, WithMaxLevels(2), WithCapacityHint(1<<10))
	require.NoError(t, err)
	require.Equal(t, 0, cap(tree.layers[0]))
}
