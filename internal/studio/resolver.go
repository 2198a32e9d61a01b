// SPDX-License-Identifier: MPL-2.0

// Package studio resolves the metadata that travels with studio packages:
// owning space, attached data models and runtime variable assignments. On
// export it builds studio manifests; on import it resolves or creates the
// target spaces and replays the runtime variables.
package studio

import (
	"context"
	"errors"

	"github.com/invowk/pkgport/pkg/content"
)

// DefaultConcurrency bounds the number of in-flight remote calls when no
// explicit limit is configured.
const DefaultConcurrency = 8

// ErrSpaceNotFound is returned when a studio manifest names a space id that
// is not part of the live space catalog.
var ErrSpaceNotFound = errors.New("Provided space ID does not exist.") //nolint:staticcheck // message is part of the CLI contract

type (
	// ExportSource is the read side of the platform used while exporting.
	ExportSource interface {
		ListPackagesWithVariableAssignments(ctx context.Context, varType content.VariableType) ([]content.PackageWithAssignments, error)
		ListDataPools(ctx context.Context) ([]content.DataPool, error)
		GetPackageNode(ctx context.Context, packageKey string) (*content.PackageNode, error)
		GetSpace(ctx context.Context, id string) (*content.Space, error)
		GetRuntimeVariables(ctx context.Context, packageKey string, mode content.AppMode) ([]content.VariableAssignment, error)
	}

	// ImportTarget is the write side of the platform used while importing.
	ImportTarget interface {
		ListSpaces(ctx context.Context) ([]content.Space, error)
		CreateSpace(ctx context.Context, name, iconReference string) (*content.Space, error)
		MovePackage(ctx context.Context, packageKey, spaceID string) error
		SetRuntimeVariables(ctx context.Context, packageKey string, assignments []content.VariableAssignment) error
	}

	// Remote is the full platform surface the resolver needs.
	Remote interface {
		ExportSource
		ImportTarget
	}

	// Resolver resolves studio metadata against one platform.
	Resolver struct {
		remote      Remote
		concurrency int
	}

	// Option configures a Resolver during construction.
	Option func(*Resolver)
)

// WithConcurrency bounds the number of concurrent remote calls. Values below
// one fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewResolver creates a Resolver backed by remote.
func NewResolver(remote Remote, opts ...Option) *Resolver {
	r := &Resolver{remote: remote, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
