package main

import (
	"os"

	commitmenttree "github.com/mystikonetwork/commitment-tree"
	"github.com/urfave/cli/v2"
)

func versionCmd(*cli.Context) error {
	commitmenttree.PrintVersion(os.Stdout)
	return nil
}
