// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures shared by the pkgport tests: a fake
// clock for deterministic output names and builders for package archives.
package testutil
