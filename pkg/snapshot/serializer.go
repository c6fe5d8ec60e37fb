package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Serializer defines how a snapshot record is turned into bytes and back.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Ext is the file extension associated with the format, including the dot.
	Ext() string
}

// DefaultSerializers returns the supported formats keyed by name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": JSONSerializer{},
		"yaml": YAMLSerializer{},
		"yml":  YAMLSerializer{},
	}
}

// SerializerFor resolves a format name ("json", "yaml") to its serializer.
func SerializerFor(format string) (Serializer, error) {
	if format == "" {
		return JSONSerializer{}, nil
	}
	s, ok := DefaultSerializers()[format]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot format: %s", format)
	}
	return s, nil
}

// --- JSON Serializer ---

// JSONSerializer writes indented JSON, the shape browsers kept in local storage.
type JSONSerializer struct{}

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func (JSONSerializer) Ext() string { return ".json" }

// --- YAML Serializer ---

type YAMLSerializer struct{}

func (YAMLSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLSerializer) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	return nil
}

func (YAMLSerializer) Ext() string { return ".yaml" }
