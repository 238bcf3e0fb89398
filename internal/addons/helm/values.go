package helm

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Values holds chart values as a nested map, the shape the Helm SDK expects.
type Values map[string]any

// Merge combines value maps with later maps winning on key conflicts. The
// merge is shallow: a top-level key from a later map replaces the whole
// subtree from an earlier one, which is how operator overrides are meant to
// behave.
func Merge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// ToYAML renders the values as YAML, mainly for debug logging of what a
// release was installed with.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}

	return buf.Bytes(), nil
}
