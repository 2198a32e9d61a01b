// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/invowk/pkgport/internal/studio"
	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

type (
	// Importer runs the import flow against one platform.
	Importer struct {
		remote   Remote
		resolver *studio.Resolver
		opts     options
	}

	// ImportResult describes a finished import.
	ImportResult struct {
		// ReportPath is the written JSON report.
		ReportPath string
		// Reports lists the imported versions per package, sorted by key.
		Reports []content.ImportReport
	}
)

// NewImporter creates an Importer.
func NewImporter(remote Remote, opts ...Option) *Importer {
	o := buildOptions(opts)
	return &Importer{
		remote:   remote,
		resolver: studio.NewResolver(remote, studio.WithConcurrency(o.concurrency)),
		opts:     o,
	}
}

// Import validates req and runs the import flow.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if err := req.Validate(im.opts.git != nil); err != nil {
		return nil, err
	}

	data, source, err := im.readSource(ctx, req)
	if err != nil {
		return nil, err
	}

	a, err := archive.Decompose(data)
	if err != nil {
		return nil, archiveError(err, source)
	}
	slog.Info("importing packages", "source", source, "packages", len(a.Manifest), "archives", len(a.Packages))

	var existingKeys map[string]bool
	if len(a.Studio) > 0 {
		existingKeys, err = im.existingPackageKeys(ctx)
		if err != nil {
			return nil, err
		}
		if err := im.resolveSpaces(ctx, a); err != nil {
			return nil, err
		}
	}

	payload, err := archive.Compose(&archive.Archive{Manifest: a.Manifest, Packages: a.Packages})
	if err != nil {
		return nil, archiveError(err, source)
	}
	reports, err := im.remote.ImportPackages(ctx, payload, a.Variables, req.Overwrite)
	if err != nil {
		return nil, remoteError(err, "import packages", source)
	}

	if err := im.resolver.Reconcile(ctx, a.Studio, existingKeys); err != nil {
		return nil, remoteError(err, "reconcile studio metadata", "")
	}

	slices.SortFunc(reports, func(x, y content.ImportReport) int {
		return cmp.Compare(x.PackageKey, y.PackageKey)
	})
	if reports == nil {
		reports = []content.ImportReport{}
	}
	path := filepath.Join(outputDir(req.OutputDir), "import_report_"+timestamp(im.opts.clock)+".json")
	if err := writeReport(path, reports); err != nil {
		return nil, writeError(err, path)
	}

	slog.Info("import finished", "packages", len(reports), "report", path)
	return &ImportResult{ReportPath: path, Reports: reports}, nil
}

// readSource returns the archive bytes and a label naming where they came from.
func (im *Importer) readSource(ctx context.Context, req ImportRequest) ([]byte, string, error) {
	switch {
	case req.File != "":
		data, err := os.ReadFile(req.File)
		if err != nil {
			return nil, "", archiveError(err, req.File)
		}
		return data, req.File, nil

	case req.Directory != "":
		data, err := archive.PackTree(req.Directory, req.Ignore)
		if err != nil {
			return nil, "", archiveError(err, req.Directory)
		}
		return data, req.Directory, nil

	default:
		tmp, err := os.MkdirTemp("", "pkgport-import-*")
		if err != nil {
			return nil, "", writeError(err, os.TempDir())
		}
		defer func() { _ = os.RemoveAll(tmp) }() // Best-effort cleanup of temp dir

		tree := filepath.Join(tmp, "tree")
		if err := im.opts.git.Pull(ctx, req.GitBranch, tree); err != nil {
			return nil, "", gitError(err, "pull branch", req.GitBranch)
		}
		data, err := archive.PackTree(tree, req.Ignore)
		if err != nil {
			return nil, "", archiveError(err, req.GitBranch)
		}
		return data, "branch " + req.GitBranch, nil
	}
}

func (im *Importer) existingPackageKeys(ctx context.Context) (map[string]bool, error) {
	packages, err := im.remote.ListPackages(ctx)
	if err != nil {
		return nil, remoteError(err, "list packages", "")
	}
	keys := make(map[string]bool, len(packages))
	for _, p := range packages {
		keys[p.Key] = true
	}
	return keys, nil
}

// resolveSpaces resolves the target space of every studio manifest in place
// and rewrites the matching inner archives to reference it.
func (im *Importer) resolveSpaces(ctx context.Context, a *archive.Archive) error {
	catalog, err := im.resolver.LoadCatalog(ctx)
	if err != nil {
		return remoteError(err, "load space catalog", "")
	}
	if err := im.resolver.ResolveSpaces(ctx, catalog, a.Studio); err != nil {
		return remoteError(err, "resolve space", "")
	}

	spaceByKey := make(map[string]string, len(a.Studio))
	for _, m := range a.Studio {
		spaceByKey[m.PackageKey] = m.Space.ID
	}
	for i := range a.Packages {
		p := &a.Packages[i]
		spaceID, ok := spaceByKey[p.Ref.PackageKey]
		if !ok {
			continue
		}
		remapped, err := studio.RemapSpace(p.Data, spaceID)
		if err != nil {
			return archiveError(err, archive.InnerArchiveName(p.Ref))
		}
		p.Data = remapped
	}
	return nil
}

func writeReport(path string, reports []content.ImportReport) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(path, append(data, '\n'))
}
