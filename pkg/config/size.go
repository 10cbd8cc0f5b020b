package config

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// ByteSize is a uint64 value that supports unmarshalling from both
// human-friendly string representations ("2 GB") and numeric
// representations, grounded on the teacher's pkg/configuration.ByteSize.
type ByteSize uint64

// UnmarshalText implements encoding.TextUnmarshaler so ByteSize fields load
// directly from YAML.
func (s *ByteSize) UnmarshalText(textBytes []byte) error {
	value, err := humanize.ParseBytes(string(textBytes))
	if err != nil {
		return err
	}
	*s = ByteSize(value)
	return nil
}

// MarshalText implements encoding.TextMarshaler, rendering the size as an
// exact decimal byte count so that it loads back unchanged.
func (s ByteSize) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(s), 10)), nil
}
