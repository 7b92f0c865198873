package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
	// rawMark flags a var written without quotes, its value is emitted unquoted
	rawMark = "@raw@"
)

var (
	ErrCycleVars                 = errors.New("cycle vars")
	ErrMissingVars               = errors.New("missing vars")
	ErrUnsupportedConfigFileType = errors.New("unsupported config file type")

	unquotedVarRe = regexp.MustCompile(`=\s*\{\{([^}]+)\}\}`)
	rawValueRe    = regexp.MustCompile(`"(?:` + rawMark + `)+([^"]*)"`)
)

type FileData struct {
	Name    string
	Content string
}

// ConfigRender merges config files, later files win, and resolves the {{Var}} indirections.
// A var is looked up first in the environment as <prefix>_<Var> and then in the merged config
type ConfigRender struct {
	FilesData []FileData
	// LookupEnvFunc resolves environment variables, typically os.LookupEnv
	LookupEnvFunc func(key string) (string, bool)
	EnvPrefix     string
}

func NewConfigRender(filesData []FileData, envPrefix string) *ConfigRender {
	return &ConfigRender{
		FilesData:     filesData,
		LookupEnvFunc: os.LookupEnv,
		EnvPrefix:     envPrefix,
	}
}

// Render returns the merged TOML with every var resolved
func (c *ConfigRender) Render() (string, error) {
	merged, err := c.Merge()
	if err != nil {
		return "", fmt.Errorf("fail to merge files. Err: %w", err)
	}
	return c.ResolveVars(merged)
}

// Merge loads every file on top of the previous ones. Unquoted vars are quoted so the result is valid TOML
func (c *ConfigRender) Merge() (string, error) {
	k := koanf.New(".")
	for _, data := range c.FilesData {
		content := quoteVars(data.Content)
		if err := k.Load(rawbytes.Provider([]byte(content)), toml.Parser()); err != nil {
			log.Errorf("error loading file %s. Err:%v", data.Name, err)
			return "", fmt.Errorf("fail to load %s as toml. Err: %w", data.Name, err)
		}
	}
	marshaled, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("fail to marshal to toml. Err: %w", err)
	}
	return string(marshaled), nil
}

// ResolveVars replaces the vars of data until none is left. Every pass must resolve at least
// one level of indirection, so if vars remain after as many passes as keys there is a cycle
func (c *ConfigRender) ResolveVars(data string) (string, error) {
	current := data
	for pass := 0; ; pass++ {
		values, err := definedValues(current)
		if err != nil {
			return data, err
		}
		vars := GetVars(current)
		if len(vars) == 0 {
			return rawValueRe.ReplaceAllString(current, "$1"), nil
		}
		if missing := c.missingVars(vars, values); len(missing) > 0 {
			return data, fmt.Errorf("missing vars: %v. Err: %w", missing, ErrMissingVars)
		}
		if pass > len(values) {
			return data, fmt.Errorf("not resolved cycle vars: %v. Err: %w", vars, ErrCycleVars)
		}
		tpl, err := fasttemplate.NewTemplate(current, startTag, endTag)
		if err != nil {
			return data, fmt.Errorf("fail to load template. Err: %w", err)
		}
		current = tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
			v, _ := c.lookup(tag, values)
			return w.Write([]byte(strings.ReplaceAll(v, rawMark, "")))
		})
	}
}

func (c *ConfigRender) lookup(tag string, values map[string]interface{}) (string, bool) {
	if c.LookupEnvFunc != nil {
		if v, ok := c.LookupEnvFunc(c.envKey(tag)); ok {
			return v, true
		}
	}
	if v, ok := values[tag]; ok {
		return fmt.Sprintf("%v", v), true
	}
	return startTag + tag + endTag, false
}

func (c *ConfigRender) missingVars(vars []string, values map[string]interface{}) []string {
	missing := []string{}
	for _, v := range vars {
		if _, ok := c.lookup(v, values); !ok {
			missing = append(missing, v)
		}
	}
	return missing
}

func (c *ConfigRender) envKey(key string) string {
	return c.EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_")
}

// GetVars returns the distinct vars used in data, sorted
func GetVars(data string) []string {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return []string{}
	}
	found := map[string]struct{}{}
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		found[tag] = struct{}{}
		return 0, nil
	})
	vars := make([]string, 0, len(found))
	for v := range found {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

func definedValues(data string) (map[string]interface{}, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(data)), toml.Parser()); err != nil {
		return nil, fmt.Errorf("error parsing rendered config. Err: %w", err)
	}
	return k.All(), nil
}

func quoteVars(data string) string {
	return unquotedVarRe.ReplaceAllString(data, `= "`+rawMark+`{{${1}}}"`)
}

func convertFileToToml(fileData string, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(fileData)), json.Parser()); err != nil {
			return fileData, fmt.Errorf("error loading json file. Err: %w", err)
		}
		tomlData, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return fileData, fmt.Errorf("error converting json to toml. Err: %w", err)
		}
		return string(tomlData), nil
	case "yml", "yaml", "ini":
		return fileData, fmt.Errorf("cant convert from %s to TOML. Err: %w", fileType, ErrUnsupportedConfigFileType)
	default:
		log.Warnf("filetype %s unknown, assuming is a TOML file", fileType)
		return fileData, nil
	}
}
