// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/invowk/pkgport/pkg/content"
)

// dataModelIDField is the object field holding the id when a data model
// assignment value is not a plain string.
const dataModelIDField = "dataModelId"

// Enrich attaches the owning space id to every package that carries a data
// model variable assignment. With withDependencies it also attaches the
// resolved data model descriptors by looking the assigned ids up in the
// platform's data model catalog. The input slice is not modified.
func (r *Resolver) Enrich(ctx context.Context, packages []content.PackageSummary, withDependencies bool) ([]content.PackageSummary, error) {
	assigned, err := r.remote.ListPackagesWithVariableAssignments(ctx, content.VariableTypeDataModel)
	if err != nil {
		return nil, fmt.Errorf("listing data model assignments: %w", err)
	}
	byKey := make(map[string]content.PackageWithAssignments, len(assigned))
	for _, p := range assigned {
		byKey[p.Key] = p
	}

	var catalog map[string]content.DataModelRef
	if withDependencies {
		pools, poolErr := r.remote.ListDataPools(ctx)
		if poolErr != nil {
			return nil, fmt.Errorf("listing data pools: %w", poolErr)
		}
		catalog = indexDataModels(pools)
	}

	enriched := slices.Clone(packages)
	for i := range enriched {
		wa, ok := byKey[enriched[i].Key]
		if !ok {
			continue
		}
		enriched[i].SpaceID = wa.SpaceID
		if withDependencies {
			enriched[i].Datamodels = resolveDataModels(wa.VariableAssignments, catalog)
		}
	}

	slog.Debug("enriched packages", "packages", len(packages), "withDataModelAssignments", len(byKey))
	return enriched, nil
}

func indexDataModels(pools []content.DataPool) map[string]content.DataModelRef {
	catalog := make(map[string]content.DataModelRef)
	for _, pool := range pools {
		for _, dm := range pool.DataModels {
			catalog[dm.ID] = content.DataModelRef{Name: dm.Name, PoolID: pool.ID, DataModelID: dm.ID}
		}
	}
	return catalog
}

func resolveDataModels(assignments []content.VariableAssignment, catalog map[string]content.DataModelRef) []content.DataModelRef {
	var refs []content.DataModelRef
	seen := make(map[string]bool)
	for _, a := range assignments {
		if a.Type != content.VariableTypeDataModel {
			continue
		}
		id := dataModelID(a.Value)
		if id == "" || seen[id] {
			continue
		}
		ref, ok := catalog[id]
		if !ok {
			continue
		}
		seen[id] = true
		refs = append(refs, ref)
	}
	return refs
}

func dataModelID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if id, ok := v[dataModelIDField].(string); ok {
			return id
		}
	}
	return ""
}
