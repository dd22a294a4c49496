package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON serializes the types as a map of attribute keys to type strings.
func (t AttributeTypes) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	raw, err := t.names()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the types from a map of attribute keys to type strings.
func (t *AttributeTypes) UnmarshalJSON(data []byte) error {
	if t == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return t.assign(raw)
}

// MarshalYAML serializes the types as a mapping of keys to type strings.
func (t AttributeTypes) MarshalYAML() (any, error) {
	if t == nil {
		return nil, nil
	}
	return t.names()
}

// UnmarshalYAML deserializes the types from a mapping of keys to type strings.
func (t *AttributeTypes) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("attribute types: %w", err)
	}
	return t.assign(raw)
}

func (t AttributeTypes) names() (map[string]string, error) {
	raw := make(map[string]string, len(t))
	for key, typ := range t {
		if typ == nil {
			return nil, fmt.Errorf("attribute %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}

func (t *AttributeTypes) assign(raw map[string]string) error {
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
