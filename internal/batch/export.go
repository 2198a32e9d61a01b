// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/pkgport/internal/assetfilter"
	"github.com/invowk/pkgport/internal/studio"
	"github.com/invowk/pkgport/internal/variables"
	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

type (
	// Exporter runs the export flow against one platform.
	Exporter struct {
		remote     Remote
		reconciler *variables.Reconciler
		resolver   *studio.Resolver
		opts       options
	}

	// ExportResult describes where an export went.
	ExportResult struct {
		// Path is the written zip file or extracted tree. Empty for branch output.
		Path string
		// Branch is the pushed branch. Empty for file output.
		Branch string
		// Commit is the branch head after the push.
		Commit string
		// PackageCount is the number of manifest entries in the archive.
		PackageCount int
		// ArchiveCount is the number of inner archives (package versions).
		ArchiveCount int
	}
)

// NewExporter creates an Exporter.
func NewExporter(remote Remote, opts ...Option) *Exporter {
	o := buildOptions(opts)
	return &Exporter{
		remote:     remote,
		reconciler: variables.NewReconciler(remote),
		resolver:   studio.NewResolver(remote, studio.WithConcurrency(o.concurrency)),
		opts:       o,
	}
}

// Export validates req and runs the export flow.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if err := req.Validate(e.opts.git != nil); err != nil {
		return nil, err
	}

	a, err := e.download(ctx, req)
	if err != nil {
		return nil, err
	}
	if !req.WithDependencies && len(a.Manifest) != req.RequestedCount() {
		slog.Warn("manifest size differs from request", "requested", req.RequestedCount(), "manifest", len(a.Manifest))
	}

	pairs := variables.DeriveRequestPairs(a.Manifest)
	slog.Debug("fetching variables", "pairs", len(pairs))
	a.Variables, err = e.reconciler.FetchAndFix(ctx, pairs)
	if err != nil {
		return nil, remoteError(err, "export variables", "")
	}

	studioKeys := content.StudioKeys(a.Manifest)
	slog.Debug("building studio manifests", "count", len(studioKeys))
	a.Studio, err = e.resolver.BuildStudioManifests(ctx, studioKeys)
	if err != nil {
		return nil, remoteError(err, "resolve studio metadata", strings.Join(studioKeys, ","))
	}

	if err := transformPackages(a); err != nil {
		return nil, err
	}

	data, err := archive.Compose(a)
	if err != nil {
		return nil, archiveError(err, "export")
	}

	result := &ExportResult{PackageCount: len(a.Manifest), ArchiveCount: len(a.Packages)}
	stamp := timestamp(e.opts.clock)
	switch {
	case req.GitBranch != "":
		message := fmt.Sprintf("Export %d packages (%s)", len(a.Manifest), stamp)
		published, pubErr := e.opts.git.Publish(ctx, req.GitBranch, message, func(dir string) error {
			return archive.ExtractTree(data, dir)
		})
		if pubErr != nil {
			return nil, gitError(pubErr, "push export", req.GitBranch)
		}
		result.Branch = req.GitBranch
		result.Commit = published.Commit
	case req.Unzip:
		dir := filepath.Join(outputDir(req.OutputDir), "export_"+stamp)
		if err := createOutputDir(dir); err != nil {
			return nil, writeError(err, dir)
		}
		if err := archive.ExtractTree(data, dir); err != nil {
			return nil, writeError(err, dir)
		}
		result.Path = dir
	default:
		path := filepath.Join(outputDir(req.OutputDir), "export_"+stamp+archive.InnerArchiveSuffix)
		if err := writeOutput(path, data); err != nil {
			return nil, writeError(err, path)
		}
		result.Path = path
	}

	slog.Info("export finished", "packages", result.PackageCount, "archives", result.ArchiveCount)
	return result, nil
}

func (e *Exporter) download(ctx context.Context, req ExportRequest) (*archive.Archive, error) {
	var (
		data     []byte
		err      error
		resource string
	)
	if len(req.PackageKeys) > 0 {
		resource = strings.Join(req.PackageKeys, ",")
		slog.Info("exporting packages", "count", len(req.PackageKeys), "withDependencies", req.WithDependencies)
		data, err = e.remote.ExportPackages(ctx, req.PackageKeys, req.WithDependencies)
	} else {
		pairs, pairErr := req.Pairs()
		if pairErr != nil {
			return nil, pairErr
		}
		resource = strings.Join(req.KeysByVersion, ",")
		slog.Info("exporting package versions", "count", len(pairs), "withDependencies", req.WithDependencies)
		data, err = e.remote.ExportPackagesByVersion(ctx, pairs, req.WithDependencies)
	}
	if err != nil {
		return nil, remoteError(err, "export packages", resource)
	}

	a, err := archive.Decompose(data)
	if err != nil {
		return nil, archiveError(err, "platform export")
	}
	return a, nil
}

// transformPackages filters scenario nodes out of studio packages and copies
// connection app names into every package descriptor.
func transformPackages(a *archive.Archive) error {
	flavors := content.FlavorsByKey(a.Manifest)
	for i := range a.Packages {
		p := &a.Packages[i]

		if flavors[p.Ref.PackageKey].IsStudio() {
			before, err := assetfilter.CountNodes(p.Data)
			if err != nil {
				return archiveError(err, archive.InnerArchiveName(p.Ref))
			}
			stripped, err := assetfilter.StripScenarioNodes(p.Data)
			if err != nil {
				return archiveError(err, archive.InnerArchiveName(p.Ref))
			}
			p.Data = stripped
			if n := before[content.NodeTypeScenario]; n > 0 {
				slog.Debug("removed scenario nodes", "package", p.Ref.String(), "count", n)
			}
		}

		if vm, ok := a.VariablesFor(p.Ref); ok {
			rewritten, err := variables.RewriteDescriptor(p.Data, vm)
			if err != nil {
				return archiveError(err, archive.InnerArchiveName(p.Ref))
			}
			p.Data = rewritten
		}
	}
	return nil
}

func outputDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func timestamp(c Clock) string {
	return c.Now().UTC().Format("20060102-150405")
}

// createOutputDir creates dir, refusing to reuse an existing one.
func createOutputDir(dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.Mkdir(dir, 0o755)
}

// writeOutput writes data to path, refusing to replace an existing file.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, writeErr := f.Write(data)
	return errors.Join(writeErr, f.Close())
}
