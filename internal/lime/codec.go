package lime

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes p as msgpack, the format the remote driver reads on stdin.
func Encode(w io.Writer, p *ParameterSet) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode parameter set: %w", err)
	}
	return nil
}

// Decode reads a msgpack encoded parameter set.
func Decode(r io.Reader) (*ParameterSet, error) {
	var p ParameterSet
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode parameter set: %w", err)
	}
	return &p, nil
}
