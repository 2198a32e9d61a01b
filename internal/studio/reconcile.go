// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"context"
	"log/slog"

	"github.com/invowk/pkgport/pkg/content"
)

// Reconcile applies resolved studio manifests after an import. Packages that
// already existed before the import are moved into their resolved space.
// Runtime variable assignments are replayed for every manifest that carries
// at least one. The first failure aborts; earlier moves are not rolled back.
func (r *Resolver) Reconcile(ctx context.Context, manifests []content.StudioPackageManifest, existingKeys map[string]bool) error {
	for _, m := range manifests {
		if existingKeys[m.PackageKey] && m.Space.ID != "" {
			slog.Debug("moving package", "packageKey", m.PackageKey, "spaceId", m.Space.ID)
			if err := r.remote.MovePackage(ctx, m.PackageKey, m.Space.ID); err != nil {
				return err
			}
		}
		if len(m.RuntimeVariableAssignments) == 0 {
			continue
		}
		slog.Debug("assigning runtime variables", "packageKey", m.PackageKey, "count", len(m.RuntimeVariableAssignments))
		if err := r.remote.SetRuntimeVariables(ctx, m.PackageKey, m.RuntimeVariableAssignments); err != nil {
			return err
		}
	}
	return nil
}
