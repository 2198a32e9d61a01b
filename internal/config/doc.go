// SPDX-License-Identifier: MPL-2.0

// Package config handles pkgport configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pkgport/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/pkgport/config.cue on macOS, %APPDATA%\pkgport\config.cue
// on Windows), falling back to ./config.cue. Every key can be overridden through a
// PKGPORT_ prefixed environment variable (PKGPORT_PLATFORM_URL, PKGPORT_BATCH_CONCURRENCY, ...),
// and a .env file in the working directory is loaded into the environment first.
//
// Files are validated against the embedded CUE schema (config_schema.cue).
package config
