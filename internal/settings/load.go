package settings

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML mapping of setting name to value and applies it onto Defaults.
// A missing file yields Defaults.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Snapshot{}, err
	}
	defer f.Close()

	snap, err := Decode(f, Defaults())
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Decode applies the YAML settings mapping read from r onto base.
func Decode(r io.Reader, base Snapshot) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return Snapshot{}, fmt.Errorf("decode settings: %w", err)
	}
	return Apply(base, values)
}
