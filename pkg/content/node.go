// SPDX-License-Identifier: MPL-2.0

package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNodeNotObject is returned when a node document is not a JSON object.
var ErrNodeNotObject = errors.New("node document is not a JSON object")

const (
	// PackageDescriptorFile is the root node file inside an inner archive.
	PackageDescriptorFile = "package.json"
	// NodesDir is the folder holding one JSON file per child node.
	NodesDir = "nodes/"
)

// NodeExport is the exported form of a single node. Configuration is kept raw
// so that rewriting one field never reorders or drops the others.
type NodeExport struct {
	Key                string          `json:"key"`
	ParentNodeKey      string          `json:"parentNodeKey"`
	Name               string          `json:"name"`
	Type               NodeType        `json:"type"`
	Configuration      json.RawMessage `json:"configuration,omitempty"`
	SchemaVersion      int             `json:"schemaVersion"`
	SpaceID            string          `json:"spaceId"`
	InvalidContent     bool            `json:"invalidContent,omitempty"`
	SerializedDocument string          `json:"serializedDocument,omitempty"`
}

// ParseNode decodes a node JSON file.
func ParseNode(data []byte) (*NodeExport, error) {
	var n NodeExport
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}
	return &n, nil
}

// SetNodeField replaces (or adds) one top-level field of a node JSON document.
// The other field values are carried over as raw JSON, compacted but not
// HTML-escaped; top-level keys come out in sorted order.
func SetNodeField(data []byte, field string, value any) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decoding node: %w", ErrNodeNotObject)
	}
	raw, err := encodeRaw(value)
	if err != nil {
		return nil, fmt.Errorf("encoding node field %s: %w", field, err)
	}
	fields[field] = raw
	out, err := encodeRaw(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding node: %w", err)
	}
	return out, nil
}

// encodeRaw marshals v without HTML escaping and without the trailing newline
// json.Encoder appends.
func encodeRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
