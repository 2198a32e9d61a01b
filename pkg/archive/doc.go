// SPDX-License-Identifier: MPL-2.0

// Package archive encodes and decodes the nested zip-of-zips batch archive.
//
// Outer archive layout:
//   - manifest.json: array of content.PackageManifestEntry (always present)
//   - variables.json: array of content.VariableManifest (only when non-empty)
//   - studio.json: array of content.StudioPackageManifest (only when non-empty)
//   - <packageKey>_<version>.zip: one inner archive per exported package version
//
// Each inner archive holds a package.json descriptor for the package root and
// one nodes/<nodeKey>.json file per child node.
//
// Compose and Decompose are pure transforms over in-memory buffers. The tree
// helpers (ExtractTree, PackTree) convert between an archive and its extracted
// directory form, which is what gets committed to a version-control branch.
package archive
