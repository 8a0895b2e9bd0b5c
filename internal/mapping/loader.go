package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultVersion is assumed when a file omits its version.
const DefaultVersion = "1"

// LoadFile loads and parses a YAML column configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read column config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse column config YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = DefaultVersion
	}

	for i := range f.Columns {
		c := &f.Columns[i]
		if c.Key && c.KeyScope == "" {
			c.KeyScope = ScopeAny
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal column config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write column config %s: %w", path, err)
	}

	return nil
}
