// SPDX-License-Identifier: MPL-2.0

package content

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// keyVersionSeparator joins a package key and a version in archive names and
// in --keysByVersion values. Keys may contain the separator themselves, so the
// version is always taken from the last occurrence.
const keyVersionSeparator = "_"

// ErrInvalidPackageVersion is the sentinel error wrapped by InvalidPackageVersionError.
var ErrInvalidPackageVersion = errors.New("invalid package version")

type (
	// PackageVersion identifies one version of one package.
	PackageVersion struct {
		PackageKey string `json:"packageKey"`
		Version    string `json:"version"`
	}

	// InvalidPackageVersionError is returned when a "<key>_<version>" value
	// cannot be split into a non-empty key and version.
	InvalidPackageVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidPackageVersionError) Error() string {
	return fmt.Sprintf("invalid package version %q (expected <packageKey>_<version>)", e.Value)
}

// Unwrap returns ErrInvalidPackageVersion for errors.Is() compatibility.
func (e *InvalidPackageVersionError) Unwrap() error { return ErrInvalidPackageVersion }

// ParsePackageVersion splits "<packageKey>_<version>" at the last underscore.
//
// The convention is lossy for keys that themselves end in an
// underscore-plus-version-like suffix, but it round-trips every value
// produced by PackageVersion.String.
func ParsePackageVersion(s string) (PackageVersion, error) {
	idx := strings.LastIndex(s, keyVersionSeparator)
	if idx <= 0 || idx == len(s)-1 {
		return PackageVersion{}, &InvalidPackageVersionError{Value: s}
	}
	return PackageVersion{PackageKey: s[:idx], Version: s[idx+1:]}, nil
}

// String encodes the pair as "<packageKey>_<version>".
func (p PackageVersion) String() string {
	return p.PackageKey + keyVersionSeparator + p.Version
}

// CompareVersions orders two package versions. Versions that parse as semver
// (with or without a leading "v") compare semantically and sort before
// non-semver versions, which compare lexically.
func CompareVersions(a, b string) int {
	va, vb := canonicalSemver(a), canonicalSemver(b)
	validA, validB := semver.IsValid(va), semver.IsValid(vb)
	switch {
	case validA && validB:
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case validA:
		return -1
	case validB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortVersions sorts versions in ascending order in place using CompareVersions.
func SortVersions(versions []string) {
	slices.SortFunc(versions, CompareVersions)
}

func canonicalSemver(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
