// SPDX-License-Identifier: MPL-2.0

// Package platform implements the HTTP client for the package manager API of
// the hosted platform: package listing, batch export and import, variable
// export, spaces, data model catalog and runtime variables.
//
// The package is organized into three concerns:
//   - client.go: Client construction, options, request helpers and StatusError
//   - packages.go: package listing, batch export, variable export and batch import
//   - studio.go: nodes, spaces, data pools and runtime variable assignments
//
// The client performs no retries. Every non-2xx response is returned as a
// *StatusError; 404 responses additionally match ErrNotFound.
package platform
