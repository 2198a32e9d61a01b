// SPDX-License-Identifier: MPL-2.0

// Package content defines the data model shared by the batch export and import
// engine: package manifest entries, variable manifests, studio manifests, node
// exports and the small enum vocabularies (flavors, node types, variable types)
// that drive filtering and rewriting decisions.
//
// The package is a leaf dependency: it imports only the standard library and
// the semver helper. All higher layers (archive codec, reconcilers, orchestrator,
// platform client) exchange these types.
package content
