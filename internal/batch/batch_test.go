// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/invowk/pkgport/internal/gitsync"
	"github.com/invowk/pkgport/internal/issue"
	"github.com/invowk/pkgport/internal/testutil"
	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

// fixedStamp is the timestamp produced by testutil.NewFakeClock(time.Time{}).
const fixedStamp = "20200101-000000"

type fakeRemote struct {
	mu sync.Mutex

	exportArchive []byte
	exportErr     error
	exportedKeys  []string
	exportedPairs []content.PackageVersion
	withDeps      bool

	variables     []content.VariableManifest
	variablePairs []content.PackageVersion

	nodes   map[string]*content.PackageNode
	spaces  []content.Space
	runtime map[string][]content.VariableAssignment

	packages []content.PackageSummary

	importReports     []content.ImportReport
	importErr         error
	importedArchive   []byte
	importedVariables []content.VariableManifest
	importOverwrite   bool
	importCalls       int

	createdSpaces []content.Space
	moves         map[string]string
	setVariables  map[string][]content.VariableAssignment
	listCalls     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		nodes:        map[string]*content.PackageNode{},
		runtime:      map[string][]content.VariableAssignment{},
		moves:        map[string]string{},
		setVariables: map[string][]content.VariableAssignment{},
	}
}

func (f *fakeRemote) ListPackages(context.Context) ([]content.PackageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.packages, nil
}

func (f *fakeRemote) ExportPackages(_ context.Context, keys []string, withDependencies bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportedKeys = keys
	f.withDeps = withDependencies
	return f.exportArchive, f.exportErr
}

func (f *fakeRemote) ExportPackagesByVersion(_ context.Context, pairs []content.PackageVersion, withDependencies bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportedPairs = pairs
	f.withDeps = withDependencies
	return f.exportArchive, f.exportErr
}

func (f *fakeRemote) ExportVariables(_ context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variablePairs = pairs
	return f.variables, nil
}

func (f *fakeRemote) ImportPackages(_ context.Context, archiveData []byte, variables []content.VariableManifest, overwrite bool) ([]content.ImportReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importCalls++
	f.importedArchive = archiveData
	f.importedVariables = variables
	f.importOverwrite = overwrite
	return f.importReports, f.importErr
}

func (f *fakeRemote) ListPackagesWithVariableAssignments(context.Context, content.VariableType) ([]content.PackageWithAssignments, error) {
	return nil, nil
}

func (f *fakeRemote) ListDataPools(context.Context) ([]content.DataPool, error) {
	return nil, nil
}

func (f *fakeRemote) GetPackageNode(_ context.Context, packageKey string) (*content.PackageNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.nodes[packageKey]
	if !ok {
		return nil, fmt.Errorf("no node for %s", packageKey)
	}
	return node, nil
}

func (f *fakeRemote) GetSpace(_ context.Context, id string) (*content.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.spaces {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("no space %s", id)
}

func (f *fakeRemote) GetRuntimeVariables(_ context.Context, packageKey string, _ content.AppMode) ([]content.VariableAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runtime[packageKey], nil
}

func (f *fakeRemote) ListSpaces(context.Context) ([]content.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spaces, nil
}

func (f *fakeRemote) CreateSpace(_ context.Context, name, iconReference string) (*content.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	space := content.Space{ID: fmt.Sprintf("created-%d", len(f.createdSpaces)+1), Name: name, IconReference: iconReference}
	f.createdSpaces = append(f.createdSpaces, space)
	f.spaces = append(f.spaces, space)
	return &space, nil
}

func (f *fakeRemote) MovePackage(_ context.Context, packageKey, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves[packageKey] = spaceID
	return nil
}

func (f *fakeRemote) SetRuntimeVariables(_ context.Context, packageKey string, assignments []content.VariableAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setVariables[packageKey] = assignments
	return nil
}

// fakeGit extracts pulled archives from memory and publishes into dir.
type fakeGit struct {
	dir      string
	pullTree []byte // outer archive extracted on Pull
	pullErr  error
	message  string
	branch   string
}

func (g *fakeGit) Pull(_ context.Context, branch, dest string) error {
	g.branch = branch
	if g.pullErr != nil {
		return g.pullErr
	}
	if err := archive.ExtractTree(g.pullTree, dest); err != nil {
		return err
	}
	// Pulled trees carry the repository metadata.
	return os.MkdirAll(filepath.Join(dest, ".git", "objects"), 0o755)
}

func (g *fakeGit) Publish(_ context.Context, branch, message string, write func(dir string) error) (*gitsync.PublishResult, error) {
	if err := write(g.dir); err != nil {
		return nil, err
	}
	g.message, g.branch = message, branch
	return &gitsync.PublishResult{Commit: "abc123", Created: true, Changed: true}, nil
}

func fakeClock() Clock {
	return testutil.NewFakeClock(time.Time{})
}

func innerEntries(t *testing.T, a *archive.Archive, ref content.PackageVersion) map[string][]byte {
	t.Helper()
	i := slices.IndexFunc(a.Packages, func(p archive.Package) bool { return p.Ref == ref })
	if i < 0 {
		t.Fatalf("archive has no %s", ref)
	}
	entries, err := archive.ReadEntries(a.Packages[i].Data)
	if err != nil {
		t.Fatalf("ReadEntries(%s): %v", ref, err)
	}
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Data
	}
	return out
}

func requireIssue(t *testing.T, err error, want issue.Id) *issue.ActionableError {
	t.Helper()
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error %v (%T) is not an ActionableError", err, err)
	}
	if ae.IssueID != want {
		t.Errorf("IssueID = %d, want %d", ae.IssueID, want)
	}
	return ae
}
