// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/invowk/pkgport/pkg/content"
)

func sortedEntries(t *testing.T, data []byte) []Entry {
	t.Helper()
	entries, err := ReadEntries(data)
	if err != nil {
		t.Fatalf("ReadEntries() failed: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func TestExtractTree_Layout(t *testing.T) {
	t.Parallel()

	data, err := Compose(sampleArchive(t))
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}

	dir := t.TempDir()
	if err := ExtractTree(data, dir); err != nil {
		t.Fatalf("ExtractTree() failed: %v", err)
	}

	for _, rel := range []string{
		ManifestFile,
		VariablesFile,
		StudioFile,
		filepath.Join("key-1_1.0.0", "package.json"),
		filepath.Join("key-1_1.0.0", "nodes", "view-1.json"),
		filepath.Join("key_with_underscores_1_1.0.6", "package.json"),
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("expected %s in extracted tree: %v", rel, err)
		}
	}
}

func TestPackTree_RoundTrip(t *testing.T) {
	t.Parallel()

	in := sampleArchive(t)
	data, err := Compose(in)
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}

	dir := t.TempDir()
	if err := ExtractTree(data, dir); err != nil {
		t.Fatalf("ExtractTree() failed: %v", err)
	}
	// Version-control metadata must never end up in the archive.
	if err := os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	packed, err := PackTree(dir, nil)
	if err != nil {
		t.Fatalf("PackTree() failed: %v", err)
	}
	out, err := Decompose(packed)
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}

	if !reflect.DeepEqual(out.Manifest, in.Manifest) {
		t.Errorf("manifest mismatch after tree round trip")
	}
	if !reflect.DeepEqual(out.Variables, in.Variables) {
		t.Errorf("variables mismatch after tree round trip")
	}
	if !reflect.DeepEqual(out.Studio, in.Studio) {
		t.Errorf("studio mismatch after tree round trip")
	}
	if len(out.Packages) != len(in.Packages) {
		t.Fatalf("got %d packages, want %d", len(out.Packages), len(in.Packages))
	}
	for _, want := range in.Packages {
		got, ok := findPackage(out, want.Ref)
		if !ok {
			t.Errorf("package %s missing after round trip", want.Ref)
			continue
		}
		if !reflect.DeepEqual(sortedEntries(t, got.Data), sortedEntries(t, want.Data)) {
			t.Errorf("package %s contents differ after round trip", want.Ref)
		}
	}
}

func TestPackTree_IgnorePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for rel, body := range map[string]string{
		ManifestFile:                        "[]",
		"README.md":                         "notes",
		"pkg_1.0.0/package.json":            `{"key":"pkg"}`,
		"pkg_1.0.0/nodes/a.json":            `{"key":"a"}`,
		"pkg_1.0.0/nodes/scratch/tmp.json":  `{}`,
		"pkg_1.0.0/nodes/scratch/more.json": `{}`,
	} {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	packed, err := PackTree(dir, []string{"**/scratch"})
	if err != nil {
		t.Fatalf("PackTree() failed: %v", err)
	}
	out, err := Decompose(packed)
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}
	if len(out.Packages) != 1 {
		t.Fatalf("got %d packages, want 1", len(out.Packages))
	}

	var names []string
	for _, e := range sortedEntries(t, out.Packages[0].Data) {
		names = append(names, e.Name)
	}
	want := []string{"nodes/a.json", "package.json"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("packed entries = %v, want %v", names, want)
	}
}

func TestPackTree_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := PackTree(t.TempDir(), []string{"[unclosed"}); err == nil {
		t.Fatal("expected error for invalid ignore pattern")
	}
}

func findPackage(a *Archive, ref content.PackageVersion) (*Package, bool) {
	for i := range a.Packages {
		if a.Packages[i].Ref == ref {
			return &a.Packages[i], true
		}
	}
	return nil, false
}
