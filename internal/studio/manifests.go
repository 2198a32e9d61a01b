// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/invowk/pkgport/pkg/content"
)

// spaceCacheSize bounds the per-call space-by-id cache.
const spaceCacheSize = 128

// spaceLookup fetches spaces by id at most once per call.
type spaceLookup struct {
	source ExportSource
	cache  *lru.Cache[string, content.Space]
	group  singleflight.Group
}

func newSpaceLookup(source ExportSource) (*spaceLookup, error) {
	cache, err := lru.New[string, content.Space](spaceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating space cache: %w", err)
	}
	return &spaceLookup{source: source, cache: cache}, nil
}

func (l *spaceLookup) get(ctx context.Context, id string) (content.Space, error) {
	if space, ok := l.cache.Get(id); ok {
		return space, nil
	}
	v, err, _ := l.group.Do(id, func() (any, error) {
		space, getErr := l.source.GetSpace(ctx, id)
		if getErr != nil {
			return content.Space{}, getErr
		}
		l.cache.Add(id, *space)
		return *space, nil
	})
	if err != nil {
		return content.Space{}, err
	}
	return v.(content.Space), nil
}

// BuildStudioManifests fetches, for every key, the owning space of the
// package node and its runtime variable assignments in viewer mode. Keys are
// processed concurrently, bounded by the resolver's concurrency limit; the
// first failure cancels the remaining lookups. The exported space carries
// its name and icon but no id, so that importing resolves it by name.
func (r *Resolver) BuildStudioManifests(ctx context.Context, keys []string) ([]content.StudioPackageManifest, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	spaces, err := newSpaceLookup(r.remote)
	if err != nil {
		return nil, err
	}

	slog.Debug("building studio manifests", "packages", len(keys), "concurrency", r.concurrency)

	manifests := make([]content.StudioPackageManifest, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			m, buildErr := r.buildStudioManifest(gctx, spaces, key)
			if buildErr != nil {
				return buildErr
			}
			manifests[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return manifests, nil
}

func (r *Resolver) buildStudioManifest(ctx context.Context, spaces *spaceLookup, key string) (content.StudioPackageManifest, error) {
	node, err := r.remote.GetPackageNode(ctx, key)
	if err != nil {
		return content.StudioPackageManifest{}, err
	}
	space, err := spaces.get(ctx, node.SpaceID)
	if err != nil {
		return content.StudioPackageManifest{}, fmt.Errorf("resolving space of %s: %w", key, err)
	}
	assignments, err := r.remote.GetRuntimeVariables(ctx, key, content.AppModeViewer)
	if err != nil {
		return content.StudioPackageManifest{}, err
	}
	if assignments == nil {
		assignments = []content.VariableAssignment{}
	}

	return content.StudioPackageManifest{
		PackageKey:                 key,
		Space:                      content.SpaceRef{Name: space.Name, IconReference: space.IconReference},
		RuntimeVariableAssignments: assignments,
	}, nil
}
