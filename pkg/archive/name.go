// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"strings"

	"github.com/invowk/pkgport/pkg/content"
)

// InnerArchiveSuffix is the file extension of inner package archives.
const InnerArchiveSuffix = ".zip"

// InnerArchiveName returns the file name of the inner archive for a package version.
func InnerArchiveName(ref content.PackageVersion) string {
	return ref.String() + InnerArchiveSuffix
}

// ParseInnerArchiveName recovers the package key and version from an inner
// archive file name, splitting at the last underscore.
func ParseInnerArchiveName(name string) (content.PackageVersion, error) {
	base, ok := strings.CutSuffix(name, InnerArchiveSuffix)
	if !ok {
		return content.PackageVersion{}, fmt.Errorf("inner archive %q must end with %s", name, InnerArchiveSuffix)
	}
	ref, err := content.ParsePackageVersion(base)
	if err != nil {
		return content.PackageVersion{}, fmt.Errorf("inner archive %q: %w", name, err)
	}
	return ref, nil
}
