package merkle

import "math/big"

const (
	// DefaultMaxLevels is the depth used when WithMaxLevels is not given
	DefaultMaxLevels uint8 = 20
	// MaxSupportedLevels keeps the capacity representable as a uint64 leaf count
	MaxSupportedLevels uint8 = 32
)

// Options holds the construction parameters of a Tree
type Options struct {
	MaxLevels    uint8
	ZeroElement  *big.Int
	Hasher       Hasher
	LeafIndex    bool
	CapacityHint int
}

// Option configures a Tree on construction
type Option func(*Options)

// WithMaxLevels sets the depth of the tree. The tree holds 2^levels leaves.
// levels must be in 1..MaxSupportedLevels, New rejects 0 with ErrInvalidLevels.
func WithMaxLevels(levels uint8) Option {
	return func(o *Options) {
		o.MaxLevels = levels
	}
}

// WithZeroElement overrides the value used for absent leaves
func WithZeroElement(zero *big.Int) Option {
	return func(o *Options) {
		if zero != nil {
			o.ZeroElement = NewElement(zero)
		}
	}
}

// WithHasher sets the compression function
func WithHasher(h Hasher) Option {
	return func(o *Options) {
		if h != nil {
			o.Hasher = h
		}
	}
}

// WithLeafIndex keeps a value to position index so IndexOf without comparator is O(1)
func WithLeafIndex() Option {
	return func(o *Options) {
		o.LeafIndex = true
	}
}

// WithCapacityHint reserves room for n leaves in the leaf layer
func WithCapacityHint(n int) Option {
	return func(o *Options) {
		o.CapacityHint = n
	}
}

func defaultOptions() Options {
	return Options{
		MaxLevels: DefaultMaxLevels,
		Hasher:    DefaultHasher,
	}
}
