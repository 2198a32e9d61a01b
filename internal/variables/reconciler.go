// SPDX-License-Identifier: MPL-2.0

// Package variables derives which package versions need their variables
// exported, fetches them in one batch and rewrites connection variable
// metadata with the live application names.
package variables

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/invowk/pkgport/pkg/content"
)

// appNameField is the field shared by connection values and their metadata.
const appNameField = "appName"

type (
	// Source exports the variables of a set of package versions in one call.
	Source interface {
		ExportVariables(ctx context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error)
	}

	// Reconciler fetches and fixes variable manifests for an export.
	Reconciler struct {
		source Source
	}
)

// NewReconciler creates a Reconciler backed by source.
func NewReconciler(source Source) *Reconciler {
	return &Reconciler{source: source}
}

// DeriveRequestPairs emits one (packageKey, version) pair per version key of
// every manifest entry's dependency map. Versions of one entry are ordered by
// semver; entries keep manifest order. Duplicates across entries are kept and
// left for the platform to collapse.
func DeriveRequestPairs(entries []content.PackageManifestEntry) []content.PackageVersion {
	var pairs []content.PackageVersion
	for _, e := range entries {
		versions := slices.Collect(maps.Keys(e.DependenciesByVersion))
		content.SortVersions(versions)
		for _, v := range versions {
			pairs = append(pairs, content.PackageVersion{PackageKey: e.PackageKey, Version: v})
		}
	}
	return pairs
}

// FetchAndFix exports the variables of pairs with a single remote call and
// applies FixConnectionVariables to the result. No call is made for an empty
// pair list.
func (r *Reconciler) FetchAndFix(ctx context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	slog.Debug("exporting variables", "pairs", len(pairs))
	manifests, err := r.source.ExportVariables(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("exporting variables for %d package versions: %w", len(pairs), err)
	}
	return FixConnectionVariables(manifests), nil
}

// FixConnectionVariables copies value.appName into metadata.appName for every
// CONNECTION variable whose value carries a non-null appName. Other variables,
// and connection variables with a null value or no appName, are returned
// unchanged. The input is not modified and reapplying the fix is a no-op.
func FixConnectionVariables(manifests []content.VariableManifest) []content.VariableManifest {
	if manifests == nil {
		return nil
	}
	fixed := make([]content.VariableManifest, len(manifests))
	for i, vm := range manifests {
		fixed[i] = vm
		if vm.Variables == nil {
			continue
		}
		fixed[i].Variables = make([]content.VariableExport, len(vm.Variables))
		for j, v := range vm.Variables {
			fixed[i].Variables[j] = fixVariable(v)
		}
	}
	return fixed
}

func fixVariable(v content.VariableExport) content.VariableExport {
	if !v.Type.IsConnection() {
		return v
	}
	appName, ok := ConnectionAppName(v.Value)
	if !ok {
		return v
	}
	metadata := make(map[string]any, len(v.Metadata)+1)
	maps.Copy(metadata, v.Metadata)
	metadata[appNameField] = appName
	v.Metadata = metadata
	return v
}

// ConnectionAppName returns the appName carried by a connection value.
func ConnectionAppName(value any) (any, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	appName, ok := obj[appNameField]
	if !ok || appName == nil {
		return nil, false
	}
	return appName, true
}
