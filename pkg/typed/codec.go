package typed

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec converts typed values to and from the raw bytes kept by a store.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name is the format name, also used as the file extension by the fs adapter.
	Name() string
}

// JSONCodec is the default codec. It matches the persisted layout of the
// browser build (plain JSON arrays).
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return "json" }

// YAMLCodec stores records as YAML documents, handy for hand-edited vaults.
type YAMLCodec struct{}

func (YAMLCodec) Marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (YAMLCodec) Name() string                       { return "yaml" }

// CodecFor returns the codec registered under name ("json", "yaml" or "yml").
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}
