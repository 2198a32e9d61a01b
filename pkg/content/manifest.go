// SPDX-License-Identifier: MPL-2.0

package content

type (
	// DependencyEntry is one dependency of a package version as recorded in
	// the archive manifest.
	DependencyEntry struct {
		Key        string `json:"key"`
		Version    string `json:"version"`
		ExternalID string `json:"externalId,omitempty"`
		Draft      bool   `json:"draft,omitempty"`
	}

	// PackageManifestEntry describes one exported package. The keys of
	// DependenciesByVersion are exactly the versions whose variables travel
	// with the archive.
	PackageManifestEntry struct {
		PackageKey            string                       `json:"packageKey"`
		Flavor                Flavor                       `json:"flavor"`
		ActiveVersion         string                       `json:"activeVersion"`
		DependenciesByVersion map[string][]DependencyEntry `json:"dependenciesByVersion"`
	}

	// VariableExport is one variable definition together with its assigned value.
	VariableExport struct {
		Key      string         `json:"key"`
		Value    any            `json:"value"`
		Type     VariableType   `json:"type"`
		Metadata map[string]any `json:"metadata"`
	}

	// VariableManifest holds the variables of one package version.
	VariableManifest struct {
		PackageKey string           `json:"packageKey"`
		Version    string           `json:"version"`
		Variables  []VariableExport `json:"variables"`
	}

	// VariableAssignment is a value bound to a variable, either at design time
	// or at runtime for a deployed package.
	VariableAssignment struct {
		Key   string       `json:"key"`
		Value any          `json:"value"`
		Type  VariableType `json:"type"`
	}

	// SpaceRef names the space a studio package belongs to. ID is empty when
	// the archive should resolve or create the space by name on import.
	SpaceRef struct {
		ID            string `json:"id,omitempty"`
		Name          string `json:"name"`
		IconReference string `json:"iconReference"`
	}

	// StudioPackageManifest carries the studio-only metadata of one package.
	StudioPackageManifest struct {
		PackageKey                 string               `json:"packageKey"`
		Space                      SpaceRef             `json:"space"`
		RuntimeVariableAssignments []VariableAssignment `json:"runtimeVariableAssignments"`
	}
)

// Ref returns the package/version identity of the manifest.
func (m VariableManifest) Ref() PackageVersion {
	return PackageVersion{PackageKey: m.PackageKey, Version: m.Version}
}

// StudioKeys returns the keys of all manifest entries with the studio flavor,
// in manifest order.
func StudioKeys(entries []PackageManifestEntry) []string {
	var keys []string
	for _, e := range entries {
		if e.Flavor.IsStudio() {
			keys = append(keys, e.PackageKey)
		}
	}
	return keys
}

// FlavorsByKey indexes manifest entries by package key.
func FlavorsByKey(entries []PackageManifestEntry) map[string]Flavor {
	flavors := make(map[string]Flavor, len(entries))
	for _, e := range entries {
		flavors[e.PackageKey] = e.Flavor
	}
	return flavors
}
