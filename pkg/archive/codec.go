// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/pkgport/pkg/content"
)

const (
	// ManifestFile is the archive index.
	ManifestFile = "manifest.json"
	// VariablesFile is the optional variable manifest sidecar.
	VariablesFile = "variables.json"
	// StudioFile is the optional studio manifest sidecar.
	StudioFile = "studio.json"
)

// ErrMissingManifest is returned when an outer archive has no manifest.json.
var ErrMissingManifest = errors.New("archive has no " + ManifestFile)

type (
	// Package is one inner archive together with its decoded identity.
	Package struct {
		Ref  content.PackageVersion
		Data []byte
	}

	// Archive is the decoded form of an outer batch archive. Variables and
	// Studio are nil when the corresponding sidecar is absent.
	Archive struct {
		Manifest  []content.PackageManifestEntry
		Variables []content.VariableManifest
		Studio    []content.StudioPackageManifest
		Packages  []Package
	}
)

// Compose encodes an archive. manifest.json is always written; the variable
// and studio sidecars only when they hold at least one manifest. Inner
// archives are stored verbatim under their <key>_<version>.zip names.
func Compose(a *Archive) ([]byte, error) {
	manifest := a.Manifest
	if manifest == nil {
		manifest = []content.PackageManifestEntry{}
	}
	manifestData, err := encodeJSON(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ManifestFile, err)
	}
	entries := []Entry{{Name: ManifestFile, Data: manifestData}}

	if len(a.Variables) > 0 {
		data, encErr := encodeJSON(a.Variables)
		if encErr != nil {
			return nil, fmt.Errorf("encoding %s: %w", VariablesFile, encErr)
		}
		entries = append(entries, Entry{Name: VariablesFile, Data: data})
	}

	if len(a.Studio) > 0 {
		data, encErr := encodeJSON(a.Studio)
		if encErr != nil {
			return nil, fmt.Errorf("encoding %s: %w", StudioFile, encErr)
		}
		entries = append(entries, Entry{Name: StudioFile, Data: data})
	}

	for _, p := range a.Packages {
		entries = append(entries, Entry{Name: InnerArchiveName(p.Ref), Data: p.Data})
	}

	return WriteEntries(entries)
}

// Decompose decodes an outer archive. Missing sidecars yield nil slices.
// Inner archives are expected at the archive root; nested paths and files
// other than the known sidecars are ignored.
func Decompose(data []byte) (*Archive, error) {
	entries, err := ReadEntries(data)
	if err != nil {
		return nil, err
	}

	a := &Archive{}
	hasManifest := false
	for _, e := range entries {
		switch {
		case e.Name == ManifestFile:
			if err := json.Unmarshal(e.Data, &a.Manifest); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", ManifestFile, err)
			}
			hasManifest = true
		case e.Name == VariablesFile:
			if err := json.Unmarshal(e.Data, &a.Variables); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", VariablesFile, err)
			}
		case e.Name == StudioFile:
			if err := json.Unmarshal(e.Data, &a.Studio); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", StudioFile, err)
			}
		case strings.HasSuffix(e.Name, InnerArchiveSuffix) && !strings.Contains(e.Name, "/"):
			ref, parseErr := ParseInnerArchiveName(e.Name)
			if parseErr != nil {
				return nil, parseErr
			}
			a.Packages = append(a.Packages, Package{Ref: ref, Data: e.Data})
		}
	}

	if !hasManifest {
		return nil, ErrMissingManifest
	}
	return a, nil
}

// VariablesFor returns the variable manifest of ref, if present.
func (a *Archive) VariablesFor(ref content.PackageVersion) (content.VariableManifest, bool) {
	for _, vm := range a.Variables {
		if vm.Ref() == ref {
			return vm, true
		}
	}
	return content.VariableManifest{}, false
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
