package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/mystikonetwork/commitment-tree/commitmentsync"
	"github.com/mystikonetwork/commitment-tree/config"
	"github.com/mystikonetwork/commitment-tree/merkle"
	"github.com/mystikonetwork/commitment-tree/rpc/types"
	"github.com/urfave/cli/v2"
)

func rootCmd(cliCtx *cli.Context) error {
	tree, err := treeFromFlags(cliCtx)
	if err != nil {
		return err
	}
	root, err := merkle.ElementToFixedHex(tree.Root())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cliCtx.App.Writer, "%s\n", root)
	return err
}

func pathCmd(cliCtx *cli.Context) error {
	tree, err := treeFromFlags(cliCtx)
	if err != nil {
		return err
	}
	proof, err := offlineProof(tree, cliCtx.Uint64(config.FlagIndex))
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cliCtx.App.Writer, string(b))
	return err
}

func treeFromFlags(cliCtx *cli.Context) (*merkle.Tree, error) {
	cfg, err := loadOptionalConfig(cliCtx)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Tree.Options()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(cliCtx.String(config.FlagLeaves))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	leaves, err := readLeaves(f)
	if err != nil {
		return nil, err
	}
	return merkle.New(leaves, opts...)
}

func offlineProof(tree *merkle.Tree, index uint64) (*types.Proof, error) {
	path, err := tree.Path(index)
	if err != nil {
		return nil, err
	}
	proof := &commitmentsync.Proof{
		Root:  tree.Root(),
		Index: index,
		Path:  path,
	}
	if index < tree.Len() {
		if proof.Leaf, err = tree.Leaf(index); err != nil {
			return nil, err
		}
	}
	return types.NewProof(proof)
}

// readLeaves parses one element per line. Empty lines and lines starting with # are skipped
func readLeaves(r io.Reader) ([]*big.Int, error) {
	leaves := []*big.Int{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		e, err := merkle.ParseElement(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		leaves = append(leaves, e)
	}
	return leaves, scanner.Err()
}
