// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

func TestRemapSpace(t *testing.T) {
	t.Parallel()

	inner, err := archive.WriteEntries([]archive.Entry{
		{Name: content.PackageDescriptorFile, Data: []byte(`{"key":"p","type":"PACKAGE","spaceId":"old-space","serializedDocument":"space: old-space"}`)},
		{Name: "nodes/view.json", Data: []byte(`{"key":"view","type":"VIEW","spaceId":"old-space"}`)},
		{Name: "assets/readme.txt", Data: []byte(`old-space`)},
	})
	if err != nil {
		t.Fatalf("WriteEntries() failed: %v", err)
	}

	out, err := RemapSpace(inner, "new-space")
	if err != nil {
		t.Fatalf("RemapSpace() failed: %v", err)
	}
	entries, err := archive.ReadEntries(out)
	if err != nil {
		t.Fatalf("ReadEntries() failed: %v", err)
	}
	for _, e := range entries {
		switch e.Name {
		case "assets/readme.txt":
			if string(e.Data) != "old-space" {
				t.Errorf("%s outside nodes/ was rewritten: %s", e.Name, e.Data)
			}
		default:
			if strings.Contains(string(e.Data), "old-space") {
				t.Errorf("%s still references the old space: %s", e.Name, e.Data)
			}
			if !strings.Contains(string(e.Data), "new-space") {
				t.Errorf("%s does not reference the new space: %s", e.Name, e.Data)
			}
		}
	}
}

func TestRemapSpace_SetsEveryNode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor string
		node       string
	}{
		{
			name:       "descriptor without space",
			descriptor: `{"key":"p","type":"PACKAGE"}`,
			node:       `{"key":"view","type":"VIEW","spaceId":"old-space"}`,
		},
		{
			name:       "node in another space",
			descriptor: `{"key":"p","type":"PACKAGE","spaceId":"old-space"}`,
			node:       `{"key":"view","type":"VIEW","spaceId":"other-space"}`,
		},
		{
			name:       "node without space",
			descriptor: `{"key":"p","type":"PACKAGE","spaceId":"old-space"}`,
			node:       `{"key":"view","type":"VIEW"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inner, err := archive.WriteEntries([]archive.Entry{
				{Name: content.PackageDescriptorFile, Data: []byte(tt.descriptor)},
				{Name: "nodes/view.json", Data: []byte(tt.node)},
			})
			if err != nil {
				t.Fatalf("WriteEntries() failed: %v", err)
			}

			out, err := RemapSpace(inner, "new-space")
			if err != nil {
				t.Fatalf("RemapSpace() failed: %v", err)
			}
			entries, err := archive.ReadEntries(out)
			if err != nil {
				t.Fatalf("ReadEntries() failed: %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("got %d entries, want 2", len(entries))
			}
			for _, e := range entries {
				node, err := content.ParseNode(e.Data)
				if err != nil {
					t.Fatalf("ParseNode(%s) failed: %v", e.Name, err)
				}
				if node.SpaceID != "new-space" {
					t.Errorf("%s spaceId = %q, want %q", e.Name, node.SpaceID, "new-space")
				}
			}
		})
	}
}

func TestRemapSpace_MalformedNode(t *testing.T) {
	t.Parallel()

	inner, err := archive.WriteEntries([]archive.Entry{
		{Name: content.PackageDescriptorFile, Data: []byte(`{"key":"p"}`)},
		{Name: "nodes/broken.json", Data: []byte(`not json`)},
	})
	if err != nil {
		t.Fatalf("WriteEntries() failed: %v", err)
	}
	if _, err := RemapSpace(inner, "new-space"); err == nil {
		t.Fatal("RemapSpace() should fail on a malformed node")
	}
}

func TestRemapSpace_EmptyTargetIsNoop(t *testing.T) {
	t.Parallel()

	inner, err := archive.WriteEntries([]archive.Entry{
		{Name: content.PackageDescriptorFile, Data: []byte(`{"key":"p","spaceId":"same"}`)},
	})
	if err != nil {
		t.Fatalf("WriteEntries() failed: %v", err)
	}
	out, err := RemapSpace(inner, "")
	if err != nil {
		t.Fatalf("RemapSpace() failed: %v", err)
	}
	if !bytes.Equal(out, inner) {
		t.Error("RemapSpace() rewrote the archive for an empty target")
	}
}
