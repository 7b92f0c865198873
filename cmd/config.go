package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mystikonetwork/commitment-tree/config"
	"github.com/urfave/cli/v2"
)

func configCmd(cliCtx *cli.Context) error {
	w := cliCtx.App.Writer
	switch {
	case cliCtx.Bool(FlagSchema):
		return printConfigSchema(w)
	case cliCtx.Bool(FlagEffective):
		cfg, err := loadOptionalConfig(cliCtx)
		if err != nil {
			return err
		}
		s, err := config.SaveConfigToString(*cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	}

	// String buffer to concatenate all the default config vars
	defaultConfig := strings.Builder{}
	defaultConfig.WriteString(config.DefaultMandatoryVars)
	defaultConfig.WriteString(config.DefaultVars)
	defaultConfig.WriteString(config.DefaultValues)
	_, err := io.WriteString(w, defaultConfig.String())
	return err
}

func printConfigSchema(w io.Writer) error {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
		Namer:                     qualifiedTypeName,
	}
	schema := r.Reflect(&config.Config{})
	schema.Title = "Config of " + appName
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding the config schema: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// qualifiedTypeName prefixes named types with their package, every section is a Config
func qualifiedTypeName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return path.Base(t.PkgPath()) + "." + t.Name()
}

// loadOptionalConfig loads the files given with --cfg on top of the defaults, or only the defaults
func loadOptionalConfig(cliCtx *cli.Context) (*config.Config, error) {
	if len(cliCtx.StringSlice(config.FlagCfg)) == 0 {
		return config.LoadFile(nil, "")
	}
	return config.Load(cliCtx)
}
