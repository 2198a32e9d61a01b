// SPDX-License-Identifier: MPL-2.0

// Package batch orchestrates batch exports and imports of content packages.
//
// An export downloads one outer archive, reconciles its variables, attaches
// studio metadata, filters each inner archive and writes the result to a
// file, an extracted tree or a git branch. An import reads an archive from
// one of those sources, remaps studio spaces, submits it and replays the
// studio metadata. Every step runs to completion before the next starts and
// the first failure aborts the whole batch.
package batch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/invowk/pkgport/internal/gitsync"
	"github.com/invowk/pkgport/internal/issue"
	"github.com/invowk/pkgport/internal/platform"
	"github.com/invowk/pkgport/internal/studio"
	"github.com/invowk/pkgport/pkg/content"
)

type (
	// Remote is the platform surface used by both flows.
	Remote interface {
		studio.Remote
		ListPackages(ctx context.Context) ([]content.PackageSummary, error)
		ExportPackages(ctx context.Context, keys []string, withDependencies bool) ([]byte, error)
		ExportPackagesByVersion(ctx context.Context, pairs []content.PackageVersion, withDependencies bool) ([]byte, error)
		ExportVariables(ctx context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error)
		ImportPackages(ctx context.Context, archiveData []byte, variables []content.VariableManifest, overwrite bool) ([]content.ImportReport, error)
	}

	// GitSyncer moves extracted trees to and from remote branches.
	GitSyncer interface {
		Pull(ctx context.Context, branch, dest string) error
		Publish(ctx context.Context, branch, message string, write func(dir string) error) (*gitsync.PublishResult, error)
	}

	// Clock supplies the timestamps used in output file names.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// Option configures an Exporter or Importer.
	Option func(*options)

	options struct {
		concurrency int
		git         GitSyncer
		clock       Clock
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithConcurrency bounds concurrent studio lookups.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithGit enables --gitBranch sources and destinations.
func WithGit(g GitSyncer) Option {
	return func(o *options) { o.git = g }
}

// WithClock overrides the clock used for output file names.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	o := options{concurrency: studio.DefaultConcurrency, clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RemoteError wraps a platform failure in an actionable error whose issue id
// names the likely cause.
func RemoteError(err error, operation, resource string) error {
	return remoteError(err, operation, resource)
}

func remoteError(err error, operation, resource string) error {
	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource)

	var statusErr *platform.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, studio.ErrSpaceNotFound):
		ec = ec.WithIssue(issue.SpaceNotFoundId).
			WithSuggestion("Remove space.id from studio.json to resolve the space by name")
	case errors.Is(err, platform.ErrNotFound):
		ec = ec.WithIssue(issue.PackageNotFoundId).
			WithSuggestion("Run 'pkgport package list' to see the available package keys")
	case errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		ec = ec.WithIssue(issue.AuthenticationFailedId).
			WithSuggestion("Check the token in the environment variable named by platform.token_env")
	case errors.As(err, &netErr):
		ec = ec.WithIssue(issue.PlatformUnreachableId).
			WithSuggestion("Check platform.url and your network connection")
	}

	return ec.Wrap(err).BuildError()
}

func archiveError(err error, resource string) error {
	return issue.NewErrorContext().
		WithOperation("read archive").
		WithResource(resource).
		WithIssue(issue.InvalidArchiveId).
		WithSuggestion("Use an archive produced by 'pkgport package export'").
		Wrap(err).
		BuildError()
}

func gitError(err error, operation, branch string) error {
	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(branch).
		WithIssue(issue.GitSyncFailedId)
	if errors.Is(err, gitsync.ErrBranchNotFound) {
		ec = ec.WithSuggestion("Check the branch name; export to it first with 'pkgport package export --gitBranch'")
	} else {
		ec = ec.WithSuggestion("Check git.repository and the token in the environment variable named by git.token_env")
	}
	return ec.Wrap(err).BuildError()
}

func writeError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("write output").
		WithResource(path).
		WithIssue(issue.WriteOutputFailedId).
		WithSuggestion("Check that batch.output_dir exists and is writable").
		Wrap(err).
		BuildError()
}
