package merkle

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/iden3/go-iden3-crypto/constants"
)

// ElementSize is the length in bytes of a field element encoded as a fixed big-endian word
const ElementSize = 32

// FieldModulus is the BN254 scalar field prime. Every leaf and node value is reduced by it.
var FieldModulus = new(big.Int).Set(constants.Q)

// NewElement returns a copy of v reduced into the field
func NewElement(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, FieldModulus)
}

// ElementFromBytes interprets b as a big-endian integer and reduces it into the field
func ElementFromBytes(b []byte) *big.Int {
	return NewElement(new(big.Int).SetBytes(b))
}

// ElementFromHex parses a hex string, with or without 0x prefix, into a field element
func ElementFromHex(s string) (*big.Int, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if raw == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex field element %q", s)
	}
	return NewElement(v), nil
}

// ElementFromDecimal parses a base 10 string into a field element
func ElementFromDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal field element %q", s)
	}
	return NewElement(v), nil
}

// ParseElement accepts either a 0x prefixed hex string or a decimal string
func ParseElement(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ElementFromHex(s)
	}
	return ElementFromDecimal(s)
}

// ElementToFixedBytes encodes e as a 32 byte big-endian word
func ElementToFixedBytes(e *big.Int) ([ElementSize]byte, error) {
	var out [ElementSize]byte
	if e.Sign() < 0 {
		return out, fmt.Errorf("negative field element %s", e.String())
	}
	if e.BitLen() > ElementSize*8 {
		return out, fmt.Errorf("field element %s exceeds %d bytes", e.String(), ElementSize)
	}
	e.FillBytes(out[:])
	return out, nil
}

// ElementToFixedHex encodes e as a 0x prefixed, zero padded 64 char hex string
func ElementToFixedHex(e *big.Int) (string, error) {
	b, err := ElementToFixedBytes(e)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%x", b[:]), nil
}
