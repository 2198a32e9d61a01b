// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/invowk/pkgport/pkg/content"
)

// SpaceCatalog is the space list of the target platform, loaded once per
// import and extended in place when a space is created. It is not safe for
// concurrent use.
type SpaceCatalog struct {
	spaces []content.Space
}

// NewSpaceCatalog creates a catalog from a known space list.
func NewSpaceCatalog(spaces []content.Space) *SpaceCatalog {
	return &SpaceCatalog{spaces: slices.Clone(spaces)}
}

// LoadCatalog fetches the live space catalog.
func (r *Resolver) LoadCatalog(ctx context.Context) (*SpaceCatalog, error) {
	spaces, err := r.remote.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading space catalog: %w", err)
	}
	return NewSpaceCatalog(spaces), nil
}

// ByID returns the space with the given id.
func (c *SpaceCatalog) ByID(id string) (content.Space, bool) {
	i := slices.IndexFunc(c.spaces, func(s content.Space) bool { return s.ID == id })
	if i < 0 {
		return content.Space{}, false
	}
	return c.spaces[i], true
}

// ByName returns the first space with the given name.
func (c *SpaceCatalog) ByName(name string) (content.Space, bool) {
	i := slices.IndexFunc(c.spaces, func(s content.Space) bool { return s.Name == name })
	if i < 0 {
		return content.Space{}, false
	}
	return c.spaces[i], true
}

func (c *SpaceCatalog) add(space content.Space) {
	c.spaces = append(c.spaces, space)
}

// ResolveSpaceID settles the target space of m and stores its id in
// m.Space.ID. An explicit id must exist in the catalog; otherwise a space
// with the same name is reused; otherwise one is created and appended to the
// catalog.
func (r *Resolver) ResolveSpaceID(ctx context.Context, catalog *SpaceCatalog, m *content.StudioPackageManifest) (string, error) {
	if m.Space.ID != "" {
		if _, ok := catalog.ByID(m.Space.ID); !ok {
			return "", fmt.Errorf("package %s, space %s: %w", m.PackageKey, m.Space.ID, ErrSpaceNotFound)
		}
		return m.Space.ID, nil
	}

	if space, ok := catalog.ByName(m.Space.Name); ok {
		slog.Debug("reusing space", "packageKey", m.PackageKey, "space", space.Name, "spaceId", space.ID)
		m.Space.ID = space.ID
		return space.ID, nil
	}

	created, err := r.remote.CreateSpace(ctx, m.Space.Name, m.Space.IconReference)
	if err != nil {
		return "", fmt.Errorf("package %s: %w", m.PackageKey, err)
	}
	slog.Info("created space", "packageKey", m.PackageKey, "space", created.Name, "spaceId", created.ID)
	catalog.add(*created)
	m.Space.ID = created.ID
	return created.ID, nil
}

// ResolveSpaces resolves the space of every manifest in order.
func (r *Resolver) ResolveSpaces(ctx context.Context, catalog *SpaceCatalog, manifests []content.StudioPackageManifest) error {
	for i := range manifests {
		if _, err := r.ResolveSpaceID(ctx, catalog, &manifests[i]); err != nil {
			return err
		}
	}
	return nil
}
