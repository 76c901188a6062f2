package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Units is a memory size in allocation units. It accepts a non-negative
// integer or one with a k, m or g suffix (powers of 1024): "100", "4k", "1m".
// Sizes that do not fit in an int are rejected.
type Units int

// ParseUnits converts s to Units.
func ParseUnits(s string) (Units, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mul := 1
	switch s[len(s)-1] {
	case 'k':
		mul = 1024
	case 'm':
		mul = 1024 * 1024
	case 'g':
		mul = 1024 * 1024 * 1024
	}
	digits := s
	if mul != 1 {
		digits = s[:len(s)-1]
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("size %q out of range", s)
		}
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size %q must not be negative", s)
	}
	if n > math.MaxInt/mul {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return Units(n * mul), nil
}

// Decode implements envconfig.Decoder.
func (u *Units) Decode(value string) error {
	n, err := ParseUnits(value)
	if err != nil {
		return err
	}
	*u = n
	return nil
}

// UnmarshalYAML accepts both integer and suffixed string scalars.
func (u *Units) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	if err := u.Decode(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// Set implements pflag.Value so the same syntax works on the command line.
func (u *Units) Set(value string) error { return u.Decode(value) }

// Type implements pflag.Value.
func (u *Units) Type() string { return "units" }

func (u Units) String() string { return strconv.Itoa(int(u)) }
