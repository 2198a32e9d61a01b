// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

const (
	serializedDocumentField = "serializedDocument"
	variablesKey            = "variables"
	metadataKey             = "metadata"
	keyKey                  = "key"
)

// RewriteDescriptor writes the appName of every fixed CONNECTION variable of
// vm into the matching variable definition of the package root's serialized
// document. Entries other than package.json, and descriptors without a
// serialized document, are left untouched.
func RewriteDescriptor(inner []byte, vm content.VariableManifest) ([]byte, error) {
	appNames := make(map[string]any)
	for _, v := range vm.Variables {
		if !v.Type.IsConnection() {
			continue
		}
		if appName, ok := v.Metadata[appNameField]; ok && appName != nil {
			appNames[v.Key] = appName
		}
	}
	if len(appNames) == 0 {
		return inner, nil
	}

	return archive.MapEntries(inner, func(e archive.Entry) (archive.Entry, bool, error) {
		if e.Name != content.PackageDescriptorFile {
			return e, true, nil
		}
		node, err := content.ParseNode(e.Data)
		if err != nil {
			return e, false, err
		}
		if node.SerializedDocument == "" {
			return e, true, nil
		}

		doc, changed, err := rewriteSerializedDocument(node.SerializedDocument, appNames)
		if err != nil {
			return e, false, fmt.Errorf("rewriting %s of %s: %w", serializedDocumentField, vm.Ref(), err)
		}
		if !changed {
			return e, true, nil
		}
		e.Data, err = content.SetNodeField(e.Data, serializedDocumentField, doc)
		return e, true, err
	})
}

func rewriteSerializedDocument(doc string, appNames map[string]any) (string, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		return "", false, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, false, nil
	}

	vars := mappingValue(root.Content[0], variablesKey)
	if vars == nil || vars.Kind != yaml.SequenceNode {
		return doc, false, nil
	}

	changed := false
	for _, item := range vars.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		keyNode := mappingValue(item, keyKey)
		if keyNode == nil {
			continue
		}
		appName, ok := appNames[keyNode.Value]
		if !ok {
			continue
		}

		var valueNode yaml.Node
		if err := valueNode.Encode(appName); err != nil {
			return "", false, err
		}
		metadata := mappingValue(item, metadataKey)
		if metadata == nil || metadata.Kind != yaml.MappingNode {
			metadata = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			setMappingValue(item, metadataKey, metadata)
		}
		if existing := mappingValue(metadata, appNameField); existing != nil && existing.Value == valueNode.Value {
			continue
		}
		setMappingValue(metadata, appNameField, &valueNode)
		changed = true
	}
	if !changed {
		return doc, false, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return "", false, err
	}
	if err := enc.Close(); err != nil {
		return "", false, err
	}
	return buf.String(), true, nil
}

// mappingValue returns the value node stored under key in a YAML mapping.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}
