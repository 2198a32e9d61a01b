// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

// MustJSON marshals v or fails the test.
func MustJSON(t testing.TB, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return data
}

// PackageArchive builds an inner package archive from a descriptor and child
// nodes. Each node is stored under nodes/<key>.json.
func PackageArchive(t testing.TB, descriptor map[string]any, nodes ...map[string]any) []byte {
	t.Helper()
	entries := []archive.Entry{{Name: content.PackageDescriptorFile, Data: MustJSON(t, descriptor)}}
	for _, n := range nodes {
		entries = append(entries, archive.Entry{
			Name: fmt.Sprintf("%s%s.json", content.NodesDir, n["key"]),
			Data: MustJSON(t, n),
		})
	}
	data, err := archive.WriteEntries(entries)
	if err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	return data
}

// OuterArchive composes a into outer archive bytes or fails the test.
func OuterArchive(t testing.TB, a *archive.Archive) []byte {
	t.Helper()
	data, err := archive.Compose(a)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return data
}
