package main

import (
	"bytes"
	"flag"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mystikonetwork/commitment-tree/config"
	"github.com/mystikonetwork/commitment-tree/merkle"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const twoLeavesRoot = "21205178834650720622262399337497375208854240907281368468056255721030220387133"

func newTestContext(t *testing.T, leaves string, index uint64) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	leavesFile := filepath.Join(t.TempDir(), "leaves.txt")
	require.NoError(t, os.WriteFile(leavesFile, []byte(leaves), 0600))

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String(config.FlagLeaves, leavesFile, "")
	set.Uint64(config.FlagIndex, index, "")
	out := &bytes.Buffer{}
	app := cli.NewApp()
	app.Writer = out
	return cli.NewContext(app, set, nil), out
}

func TestReadLeaves(t *testing.T) {
	leaves, err := readLeaves(strings.NewReader("# leaves\n0x10\n\n  17 \n"))
	require.NoError(t, err)
	require.Equal(t, []*big.Int{big.NewInt(16), big.NewInt(17)}, leaves)

	_, err = readLeaves(strings.NewReader("1\nzz\n"))
	require.ErrorContains(t, err, "line 2")
}

func TestRootCmd(t *testing.T) {
	ctx, out := newTestContext(t, `
0x12d7aafbf3d4c1852ad3634d69607fc9ea8028f2d5724fcf3b917e71fd2dbff6
0x062c3655c709b4b58142b9b270f5a5b06b8df8921cbbb261a7729eae759e7ec3
`, 0)
	require.NoError(t, rootCmd(ctx))
	root, ok := new(big.Int).SetString(twoLeavesRoot, 10)
	require.True(t, ok)
	expected, err := merkle.ElementToFixedHex(root)
	require.NoError(t, err)
	require.Equal(t, expected+"\n", out.String())
}

func TestPathCmd(t *testing.T) {
	ctx, out := newTestContext(t, "1\n2\n3\n", 1)
	require.NoError(t, pathCmd(ctx))
	require.Contains(t, out.String(), `"pathIndices"`)
	require.Contains(t, out.String(), `"leaf": "0x0000000000000000000000000000000000000000000000000000000000000002"`)

	ctx, _ = newTestContext(t, "1\n", 5)
	require.ErrorIs(t, pathCmd(ctx), merkle.ErrIndexOutOfBounds)
}
