package main

import (
	"os"

	commitmenttree "github.com/mystikonetwork/commitment-tree"
	"github.com/mystikonetwork/commitment-tree/common"
	"github.com/mystikonetwork/commitment-tree/config"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/urfave/cli/v2"
)

const appName = "commitment-tree"

const (
	// FlagSchema is the flag to print the JSON schema of the config
	FlagSchema = "schema"
	// FlagEffective is the flag to print the effective config after rendering the files
	FlagEffective = "effective"
)

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: true,
	}
	optionalConfigFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s), only the [Tree] section is used",
		Required: false,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value:    cli.NewStringSlice(common.COMMITMENT_SYNC, common.RPC),
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: " + config.SaveConfigFileName + ")",
		Required: false,
	}
	leavesFlag = cli.StringFlag{
		Name:     config.FlagLeaves,
		Aliases:  []string{"l"},
		Usage:    "File with one leaf per line, hex (0x prefixed) or decimal",
		Required: true,
	}
	indexFlag = cli.Uint64Flag{
		Name:     config.FlagIndex,
		Aliases:  []string{"i"},
		Usage:    "Index of the leaf",
		Required: true,
	}
	schemaFlag = cli.BoolFlag{
		Name:  FlagSchema,
		Usage: "Print the JSON schema of the configuration instead of the defaults",
	}
	effectiveFlag = cli.BoolFlag{
		Name:  FlagEffective,
		Usage: "Print the configuration resulting from the defaults and the files given with --cfg",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = commitmenttree.Version
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the commitment tree service",
			Action:  start,
			Flags:   []cli.Flag{&configFileFlag, &componentsFlag, &saveConfigFlag},
		},
		{
			Name:    "config",
			Aliases: []string{},
			Usage:   "Print the default configuration",
			Action:  configCmd,
			Flags:   []cli.Flag{&optionalConfigFileFlag, &schemaFlag, &effectiveFlag},
		},
		{
			Name:    "root",
			Aliases: []string{},
			Usage:   "Build a tree from a file of leaves and print its root",
			Action:  rootCmd,
			Flags:   []cli.Flag{&optionalConfigFileFlag, &leavesFlag},
		},
		{
			Name:    "path",
			Aliases: []string{},
			Usage:   "Build a tree from a file of leaves and print the authentication path of a leaf as JSON",
			Action:  pathCmd,
			Flags:   []cli.Flag{&optionalConfigFileFlag, &leavesFlag, &indexFlag},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
