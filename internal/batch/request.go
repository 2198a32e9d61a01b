// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/pkgport/pkg/content"
)

// ErrInvalidRequest is wrapped by every request validation error. Callers map
// it to a usage error without contacting the platform.
var ErrInvalidRequest = errors.New("invalid request")

type (
	// ExportRequest selects the packages to export and where the archive goes.
	ExportRequest struct {
		// PackageKeys exports the active version of each key.
		PackageKeys []string
		// KeysByVersion exports explicit "<packageKey>_<version>" pairs.
		KeysByVersion []string
		// WithDependencies includes dependency packages in the export.
		WithDependencies bool
		// GitBranch pushes the extracted archive to this branch instead of
		// writing a file.
		GitBranch string
		// Unzip writes the extracted tree instead of a zip file.
		Unzip bool
		// OutputDir receives the archive or tree.
		OutputDir string
	}

	// ImportRequest selects the archive to import.
	ImportRequest struct {
		// File is a zip archive on disk.
		File string
		// Directory is an extracted tree, zipped on the fly.
		Directory string
		// GitBranch pulls the extracted tree from this branch.
		GitBranch string
		// Overwrite replaces existing package versions on the platform.
		Overwrite bool
		// OutputDir receives the import report.
		OutputDir string
		// Ignore lists extra glob patterns skipped when packing a tree.
		Ignore []string
	}
)

// Validate reports option combinations the export flow cannot serve.
func (r ExportRequest) Validate(gitConfigured bool) error {
	hasKeys := len(r.PackageKeys) > 0
	hasPairs := len(r.KeysByVersion) > 0
	switch {
	case hasKeys && hasPairs:
		return invalidRequest("--packageKeys and --keysByVersion are mutually exclusive")
	case !hasKeys && !hasPairs:
		return invalidRequest("one of --packageKeys or --keysByVersion is required")
	}

	for _, key := range r.PackageKeys {
		if strings.TrimSpace(key) == "" {
			return invalidRequest("--packageKeys must not contain empty keys")
		}
	}
	if _, err := r.Pairs(); err != nil {
		return err
	}

	if r.GitBranch != "" {
		if !gitConfigured {
			return invalidRequest("--gitBranch requires a git profile; set git.repository in the configuration")
		}
		if r.Unzip {
			return invalidRequest("--unzip cannot be combined with --gitBranch")
		}
	}
	return nil
}

// Pairs parses KeysByVersion.
func (r ExportRequest) Pairs() ([]content.PackageVersion, error) {
	pairs := make([]content.PackageVersion, 0, len(r.KeysByVersion))
	for _, s := range r.KeysByVersion {
		pv, err := content.ParsePackageVersion(s)
		if err != nil {
			return nil, fmt.Errorf("%w: --keysByVersion: %w", ErrInvalidRequest, err)
		}
		pairs = append(pairs, pv)
	}
	return pairs, nil
}

// RequestedCount is the number of packages named by the request.
func (r ExportRequest) RequestedCount() int {
	return len(r.PackageKeys) + len(r.KeysByVersion)
}

// Validate reports option combinations the import flow cannot serve.
func (r ImportRequest) Validate(gitConfigured bool) error {
	sources := 0
	for _, s := range []string{r.File, r.Directory, r.GitBranch} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return invalidRequest("one of --file, --directory or --gitBranch is required")
	case sources > 1:
		return invalidRequest("--file, --directory and --gitBranch are mutually exclusive")
	}

	if r.GitBranch != "" && !gitConfigured {
		return invalidRequest("--gitBranch requires a git profile; set git.repository in the configuration")
	}
	if len(r.Ignore) > 0 && r.File != "" {
		return invalidRequest("--ignore only applies to --directory or --gitBranch")
	}
	return nil
}

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}
