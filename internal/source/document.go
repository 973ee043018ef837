package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one structured document, held as JSON whatever its file format.
type Document struct {
	Raw json.RawMessage
}

// Decode unmarshals the document into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Raw, v)
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON accepts exactly one JSON value.
func ParseJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse json: empty document")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse json: trailing data after document")
	}
	return &Document{Raw: raw}, nil
}

// ParseYAML accepts exactly one YAML document and re-encodes it as JSON.
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse yaml: empty document")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse yaml: more than one document")
	}

	raw, err := json.Marshal(jsonCompatible(v))
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return &Document{Raw: raw}, nil
}

// jsonCompatible rewrites map[any]any (non-string YAML keys) into
// map[string]any so encoding/json accepts it.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}
