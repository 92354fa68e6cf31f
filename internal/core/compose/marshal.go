package compose

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Marshal writes the descriptor as YAML with two-space indentation.
func Marshal(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse reads a descriptor back from YAML.
func Parse(data []byte) (*Descriptor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &ConformanceError{Message: err.Error(), Err: ErrInvalidYAML}
	}
	return &d, nil
}
