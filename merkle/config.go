package merkle

import "fmt"

// Config describes a tree in configuration files
type Config struct {
	// MaxLevels is the depth of the tree, it holds 2^MaxLevels leaves
	MaxLevels uint8 `mapstructure:"MaxLevels"`
	// ZeroElement overrides the value of absent leaves (hex with 0x prefix or decimal).
	// Empty means keccak256 of the default seed
	ZeroElement string `mapstructure:"ZeroElement"`
	// Hasher is the compression function, "poseidon" or "keccak256"
	Hasher string `mapstructure:"Hasher" jsonschema:"enum=poseidon,enum=keccak256"`
}

// Options converts the config into construction options
func (c Config) Options() ([]Option, error) {
	opts := []Option{}
	if c.MaxLevels != 0 {
		opts = append(opts, WithMaxLevels(c.MaxLevels))
	}
	if c.ZeroElement != "" {
		zero, err := ParseElement(c.ZeroElement)
		if err != nil {
			return nil, fmt.Errorf("invalid ZeroElement: %w", err)
		}
		opts = append(opts, WithZeroElement(zero))
	}
	hasher, err := HasherByName(c.Hasher)
	if err != nil {
		return nil, err
	}
	return append(opts, WithHasher(hasher)), nil
}
