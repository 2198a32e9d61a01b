// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"bytes"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

const sampleDocument = `kind: PACKAGE
metadata:
  key: key-1
variables:
  - key: conn
    type: CONNECTION
    metadata:
      appName: stale
  - key: text
    type: PLAIN_TEXT
  - key: conn-2
    type: CONNECTION
`

type serializedDoc struct {
	Variables []struct {
		Key      string         `yaml:"key"`
		Metadata map[string]any `yaml:"metadata"`
	} `yaml:"variables"`
}

func descriptorArchive(t *testing.T, doc string) []byte {
	t.Helper()
	descriptor, err := json.Marshal(map[string]any{
		"key":                "key-1",
		"type":               "PACKAGE",
		"spaceId":            "space-1",
		"serializedDocument": doc,
	})
	if err != nil {
		t.Fatal(err)
	}
	inner, err := archive.WriteEntries([]archive.Entry{
		{Name: content.PackageDescriptorFile, Data: descriptor},
		{Name: "nodes/view.json", Data: []byte(`{"key":"view","type":"VIEW"}`)},
	})
	if err != nil {
		t.Fatalf("WriteEntries() failed: %v", err)
	}
	return inner
}

func readDescriptor(t *testing.T, inner []byte) *content.NodeExport {
	t.Helper()
	entries, err := archive.ReadEntries(inner)
	if err != nil {
		t.Fatalf("ReadEntries() failed: %v", err)
	}
	for _, e := range entries {
		if e.Name == content.PackageDescriptorFile {
			node, parseErr := content.ParseNode(e.Data)
			if parseErr != nil {
				t.Fatalf("ParseNode() failed: %v", parseErr)
			}
			return node
		}
	}
	t.Fatal("package.json not found")
	return nil
}

func TestRewriteDescriptor(t *testing.T) {
	t.Parallel()

	vm := content.VariableManifest{
		PackageKey: "key-1",
		Version:    "1.0.0",
		Variables: []content.VariableExport{
			{Key: "conn", Type: content.VariableTypeConnection, Metadata: map[string]any{"appName": "sap"}},
			{Key: "conn-2", Type: content.VariableTypeConnection, Metadata: map[string]any{"appName": "salesforce"}},
			{Key: "text", Type: content.VariableTypePlainText, Metadata: map[string]any{"appName": "ignored"}},
		},
	}

	out, err := RewriteDescriptor(descriptorArchive(t, sampleDocument), vm)
	if err != nil {
		t.Fatalf("RewriteDescriptor() failed: %v", err)
	}

	node := readDescriptor(t, out)
	if node.SpaceID != "space-1" || node.Type != content.NodeTypePackage {
		t.Errorf("other descriptor fields changed: %+v", node)
	}

	var doc serializedDoc
	if err := yaml.Unmarshal([]byte(node.SerializedDocument), &doc); err != nil {
		t.Fatalf("serialized document is not valid YAML: %v", err)
	}
	got := make(map[string]any)
	for _, v := range doc.Variables {
		got[v.Key] = v.Metadata["appName"]
	}
	if got["conn"] != "sap" || got["conn-2"] != "salesforce" {
		t.Errorf("connection metadata not rewritten: %v", got)
	}
	if got["text"] != nil {
		t.Errorf("non-connection variable gained metadata: %v", got["text"])
	}
}

func TestRewriteDescriptor_NoConnectionsIsNoop(t *testing.T) {
	t.Parallel()

	inner := descriptorArchive(t, sampleDocument)
	vm := content.VariableManifest{Variables: []content.VariableExport{
		{Key: "conn", Type: content.VariableTypeConnection, Value: nil},
	}}
	out, err := RewriteDescriptor(inner, vm)
	if err != nil {
		t.Fatalf("RewriteDescriptor() failed: %v", err)
	}
	if !bytes.Equal(out, inner) {
		t.Error("archive was rewritten although no connection carried an appName")
	}
}

func TestRewriteDescriptor_Idempotent(t *testing.T) {
	t.Parallel()

	vm := content.VariableManifest{Variables: []content.VariableExport{
		{Key: "conn", Type: content.VariableTypeConnection, Metadata: map[string]any{"appName": "sap"}},
	}}
	once, err := RewriteDescriptor(descriptorArchive(t, sampleDocument), vm)
	if err != nil {
		t.Fatalf("RewriteDescriptor() failed: %v", err)
	}
	twice, err := RewriteDescriptor(once, vm)
	if err != nil {
		t.Fatalf("RewriteDescriptor() failed: %v", err)
	}
	if readDescriptor(t, once).SerializedDocument != readDescriptor(t, twice).SerializedDocument {
		t.Error("second rewrite changed the serialized document")
	}
}

func TestRewriteDescriptor_WithoutSerializedDocument(t *testing.T) {
	t.Parallel()

	vm := content.VariableManifest{Variables: []content.VariableExport{
		{Key: "conn", Type: content.VariableTypeConnection, Metadata: map[string]any{"appName": "sap"}},
	}}
	out, err := RewriteDescriptor(descriptorArchive(t, ""), vm)
	if err != nil {
		t.Fatalf("RewriteDescriptor() failed: %v", err)
	}
	if doc := readDescriptor(t, out).SerializedDocument; doc != "" {
		t.Errorf("serialized document = %q, want empty", doc)
	}
}
